package model

import (
	"math"
	"strings"
	"testing"

	"github.com/davismoran/offline-eval/go-estimator/internal/policy"
	"github.com/davismoran/offline-eval/go-estimator/internal/sample"
)

// helper: single-action batch where every transition has obs [1] and the
// given reward, all terminal.
func constantBatch(rewards []float64) *sample.Batch {
	n := len(rewards)
	b := &sample.Batch{
		Obs:        make([][]float32, n),
		NewObs:     make([][]float32, n),
		Actions:    make([]int64, n),
		Rewards:    rewards,
		ActionProb: make([]float64, n),
		Dones:      make([]bool, n),
	}
	for i := range rewards {
		b.Obs[i] = []float32{1}
		b.NewObs[i] = []float32{1}
		b.ActionProb[i] = 1
		b.Dones[i] = true
	}
	return b
}

func TestFQE_FitsConstantReward(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 1}, 0.0, DefaultConfig())
	if err != nil {
		t.Fatalf("build model: %v", err)
	}

	losses, err := m.Train(constantBatch([]float64{2, 2, 2}))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(losses) != DefaultConfig().Iterations {
		t.Fatalf("expected %d losses, got %d", DefaultConfig().Iterations, len(losses))
	}
	for i, l := range losses {
		if math.IsNaN(l) || l < 0 {
			t.Fatalf("loss %d is %v", i, l)
		}
	}
	// With γ=0 the targets are the rewards; the ridge solution should sit
	// within regularization distance of an exact fit.
	if losses[len(losses)-1] > 1e-4 {
		t.Errorf("final loss %v too far from exact fit", losses[len(losses)-1])
	}

	v, err := m.EstimateV(constantBatch([]float64{0}).InitialStep())
	if err != nil {
		t.Fatalf("estimate_v: %v", err)
	}
	if math.Abs(v-2.0) > 1e-3 {
		t.Errorf("expected state value near 2.0, got %v", v)
	}
}

func TestFQE_EstimateVIsReadOnlyAndDeterministic(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 1}, 0.0, DefaultConfig())
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if _, err := m.Train(constantBatch([]float64{1, 3})); err != nil {
		t.Fatalf("train: %v", err)
	}

	step := constantBatch([]float64{0}).InitialStep()
	v1, err := m.EstimateV(step)
	if err != nil {
		t.Fatalf("estimate_v: %v", err)
	}
	v2, err := m.EstimateV(step)
	if err != nil {
		t.Fatalf("estimate_v: %v", err)
	}
	if v1 != v2 {
		t.Errorf("repeated estimate_v differs: %v vs %v", v1, v2)
	}
}

func TestFQE_UntrainedEstimatesZero(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 2}, 0.5, DefaultConfig())
	if err != nil {
		t.Fatalf("build model: %v", err)
	}

	v, err := m.EstimateV(constantBatch([]float64{0}).InitialStep())
	if err != nil {
		t.Fatalf("estimate_v: %v", err)
	}
	if v != 0 {
		t.Errorf("untrained model should estimate 0, got %v", v)
	}
}

func TestFQE_RejectsMissingColumns(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 1}, 0.0, DefaultConfig())
	if err != nil {
		t.Fatalf("build model: %v", err)
	}

	if _, err := m.Train(&sample.Batch{Rewards: []float64{1}}); err == nil {
		t.Error("expected error for batch without obs columns")
	}
	if _, err := m.Train(&sample.Batch{}); err == nil {
		t.Error("expected error for empty training batch")
	}
	if _, err := m.EstimateV(&sample.Batch{}); err == nil {
		t.Error("expected error for empty estimation batch")
	}
}

func TestFQE_RejectsOutOfRangeAction(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 1}, 0.0, DefaultConfig())
	if err != nil {
		t.Fatalf("build model: %v", err)
	}

	b := constantBatch([]float64{1})
	b.Actions[0] = 3
	if _, err := m.Train(b); err == nil {
		t.Error("expected error for action outside the policy's action space")
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	cfg := Config{Type: "no-such-model"}
	_, err := New(policy.Uniform{Actions: 2}, 0.9, cfg)
	if err == nil {
		t.Fatal("expected error for unknown model type")
	}
	if !strings.Contains(err.Error(), "no-such-model") {
		t.Errorf("error should name the unknown type: %v", err)
	}
}

func TestRegistry_EmptyTypeSelectsDefault(t *testing.T) {
	m, err := New(policy.Uniform{Actions: 2}, 0.9, Config{})
	if err != nil {
		t.Fatalf("expected default model, got error: %v", err)
	}
	if _, ok := m.(*FQE); !ok {
		t.Errorf("expected *FQE default, got %T", m)
	}
}

func TestRegistry_CustomFactory(t *testing.T) {
	Register("fqe-test-custom", func(p policy.Policy, gamma float64, cfg Config) (ValueModel, error) {
		return &FQE{policy: p, gamma: gamma, iterations: 1, ridge: 1}, nil
	})

	m, err := New(policy.Uniform{Actions: 1}, 1.0, Config{Type: "fqe-test-custom"})
	if err != nil {
		t.Fatalf("custom factory: %v", err)
	}
	if m == nil {
		t.Fatal("expected model from custom factory")
	}

	found := false
	for _, name := range Types() {
		if name == "fqe-test-custom" {
			found = true
		}
	}
	if !found {
		t.Error("expected custom type to be listed")
	}
}
