package policy

import (
	"math"
	"testing"
)

func TestUniform(t *testing.T) {
	p := Uniform{Actions: 4}

	probs, err := p.ActionProbs([]float32{0.5})
	if err != nil {
		t.Fatalf("action probs: %v", err)
	}
	if len(probs) != 4 {
		t.Fatalf("expected 4 probabilities, got %d", len(probs))
	}
	var sum float64
	for _, pr := range probs {
		if pr != 0.25 {
			t.Errorf("expected 0.25 per action, got %v", pr)
		}
		sum += pr
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("probabilities sum to %v", sum)
	}

	if _, err := (Uniform{}).ActionProbs(nil); err == nil {
		t.Error("expected error for zero actions")
	}
}

func TestStatic(t *testing.T) {
	p := Static{Probs: []float64{0.3, 0.7}}

	probs, err := p.ActionProbs(nil)
	if err != nil {
		t.Fatalf("action probs: %v", err)
	}
	probs[0] = 0 // callers must not be able to corrupt the policy
	again, err := p.ActionProbs(nil)
	if err != nil {
		t.Fatalf("action probs: %v", err)
	}
	if again[0] != 0.3 {
		t.Error("ActionProbs must return a copy")
	}

	if _, err := (Static{}).ActionProbs(nil); err == nil {
		t.Error("expected error for empty distribution")
	}
}
