package dm

// #region imports
import "math"

// #endregion imports

// #region result

// gainEpsilon guards the gain denominator against zero or negative behavior
// returns.
const gainEpsilon = 1e-8

// EpisodeEstimate is the per-episode detail behind the aggregate statistics.
type EpisodeEstimate struct {
	VBehavior float64 `json:"v_behavior"`
	VTarget   float64 `json:"v_target"`
}

// Result holds the aggregate Direct Method estimates for one batch. It is
// built once per Estimate call and not modified afterwards.
type Result struct {
	VBehavior    float64 `json:"v_behavior"`     // mean empirical discounted return
	VBehaviorStd float64 `json:"v_behavior_std"` // population std of the above
	VTarget      float64 `json:"v_target"`       // mean model estimate at initial states
	VTargetStd   float64 `json:"v_target_std"`   // population std of the above
	VGain        float64 `json:"v_gain"`         // VTarget / max(VBehavior, gainEpsilon)
	VDelta       float64 `json:"v_delta"`        // VTarget - VBehavior

	PerEpisode []EpisodeEstimate `json:"per_episode,omitempty"`
}

// #endregion result

// #region builder

// buildResult aggregates parallel per-episode value sequences. Gain and
// delta derive from the two means, not from per-episode ratios. Callers
// guarantee the sequences are non-empty and of equal length.
func buildResult(vBehavior, vTarget []float64) *Result {
	per := make([]EpisodeEstimate, len(vBehavior))
	for i := range vBehavior {
		per[i] = EpisodeEstimate{VBehavior: vBehavior[i], VTarget: vTarget[i]}
	}

	vb := mean(vBehavior)
	vt := mean(vTarget)
	return &Result{
		VBehavior:    vb,
		VBehaviorStd: popStd(vBehavior),
		VTarget:      vt,
		VTargetStd:   popStd(vTarget),
		VGain:        vt / math.Max(vb, gainEpsilon),
		VDelta:       vt - vb,
		PerEpisode:   per,
	}
}

// mean is the arithmetic mean.
func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popStd is the population standard deviation: the square root of the mean
// of squared deviations from the mean.
func popStd(xs []float64) float64 {
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// #endregion builder
