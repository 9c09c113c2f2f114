package dm

import (
	"math"
	"testing"
)

func TestBuildResult_PopulationStd(t *testing.T) {
	// Population std divides by n, not n-1: [1, 3] → mean 2, std 1.
	res := buildResult([]float64{1, 3}, []float64{2, 2})

	if res.VBehavior != 2 {
		t.Errorf("v_behavior = %v, want 2", res.VBehavior)
	}
	if res.VBehaviorStd != 1 {
		t.Errorf("v_behavior_std = %v, want 1 (population)", res.VBehaviorStd)
	}
	if res.VTargetStd != 0 {
		t.Errorf("v_target_std = %v, want 0", res.VTargetStd)
	}
}

func TestBuildResult_SingleEpisode(t *testing.T) {
	res := buildResult([]float64{4}, []float64{5})

	if res.VBehaviorStd != 0 || res.VTargetStd != 0 {
		t.Error("single-episode stds must be 0")
	}
	if res.VDelta != 1 {
		t.Errorf("v_delta = %v, want 1", res.VDelta)
	}
	if math.Abs(res.VGain-1.25) > 1e-12 {
		t.Errorf("v_gain = %v, want 1.25", res.VGain)
	}
}

func TestBuildResult_ZeroBehaviorDenominator(t *testing.T) {
	res := buildResult([]float64{0}, []float64{3})

	if res.VGain != 3/1e-8 {
		t.Errorf("v_gain = %v, want %v", res.VGain, 3/1e-8)
	}
}
