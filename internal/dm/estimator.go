// Package dm implements the Direct Method off-policy estimator: a value
// model is trained on logged behavior data, and the target policy's expected
// return is read off the model at each episode's initial state.
package dm

// #region imports
import (
	"errors"
	"fmt"
	"math"

	"github.com/davismoran/offline-eval/go-estimator/internal/model"
	"github.com/davismoran/offline-eval/go-estimator/internal/policy"
	"github.com/davismoran/offline-eval/go-estimator/internal/sample"
)

// #endregion imports

// #region estimator

// Estimator owns one value model for its lifetime and evaluates batches
// against it. The estimator itself holds no other state: Estimate is
// read-only with respect to the model and the input, so concurrent Estimate
// calls against an unchanging model are safe. Train mutates model
// parameters and must be serialized by the caller; it must not overlap with
// Estimate on the same instance.
type Estimator struct {
	gamma float64
	model model.ValueModel
}

// New builds an estimator with a value model from the registry (default
// fitted-Q evaluation). The discount factor must lie in [0, 1].
func New(p policy.Policy, gamma float64, cfg model.Config) (*Estimator, error) {
	if err := validateGamma(gamma); err != nil {
		return nil, err
	}
	m, err := model.New(p, gamma, cfg)
	if err != nil {
		return nil, fmt.Errorf("build value model: %w", err)
	}
	return &Estimator{gamma: gamma, model: m}, nil
}

// NewWithModel wraps an already-constructed value model.
func NewWithModel(m model.ValueModel, gamma float64) (*Estimator, error) {
	if err := validateGamma(gamma); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("value model is required")
	}
	return &Estimator{gamma: gamma, model: m}, nil
}

func validateGamma(gamma float64) error {
	if math.IsNaN(gamma) || gamma < 0 || gamma > 1 {
		return fmt.Errorf("discount factor %v outside [0, 1]", gamma)
	}
	return nil
}

// Gamma returns the discount factor fixed at construction.
func (e *Estimator) Gamma() float64 {
	return e.gamma
}

// #endregion estimator

// #region guard

// guard normalizes the input to a flat batch and fails fast on structural
// problems before any numeric computation.
func guard(in sample.BatchInput) (*sample.Batch, error) {
	if in == nil {
		return nil, errors.New("batch is required")
	}
	flat := in.AsSampleBatch()
	if err := flat.Validate(); err != nil {
		return nil, err
	}
	if err := sample.CheckActionProb(flat); err != nil {
		return nil, err
	}
	return flat, nil
}

// #endregion guard

// #region estimate

// Estimate computes Direct Method off-policy estimates over the batch. Per
// episode, the empirical behavior return is Σ_t rewards[t]·γ^t, and the
// target estimate is the model's value at the episode's initial step. Zero
// episodes → ErrEmptyBatch. Model failures surface as *ModelError.
func (e *Estimator) Estimate(in sample.BatchInput) (*Result, error) {
	flat, err := guard(in)
	if err != nil {
		return nil, err
	}

	var vBehavior, vTarget []float64
	for ep := range flat.Episodes() {
		vb := 0.0
		discount := 1.0
		for t := 0; t < ep.Count(); t++ {
			vb += ep.Rewards[t] * discount
			discount *= e.gamma
		}

		vt, err := e.model.EstimateV(ep.InitialStep())
		if err != nil {
			return nil, &ModelError{Op: "estimate_v", Err: err}
		}

		vBehavior = append(vBehavior, vb)
		vTarget = append(vTarget, vt)
	}

	if len(vBehavior) == 0 {
		return nil, ErrEmptyBatch
	}
	return buildResult(vBehavior, vTarget), nil
}

// #endregion estimate

// #region train

// TrainResult reports one Train call: the arithmetic mean of the model's
// per-step losses, plus the raw loss sequence for persistence.
type TrainResult struct {
	Loss   float64   `json:"loss"`
	Losses []float64 `json:"losses,omitempty"`
}

// Train hands the entire flat batch to the value model (no episode
// splitting) and reports the mean training loss. Model failures surface as
// *ModelError; the model's parameter state after a mid-training failure is
// whatever the model left behind.
func (e *Estimator) Train(in sample.BatchInput) (TrainResult, error) {
	flat, err := guard(in)
	if err != nil {
		return TrainResult{}, err
	}
	losses, err := e.model.Train(flat)
	if err != nil {
		return TrainResult{}, &ModelError{Op: "train", Err: err}
	}
	if len(losses) == 0 {
		return TrainResult{}, &ModelError{Op: "train", Err: errors.New("model reported no losses")}
	}
	return TrainResult{Loss: mean(losses), Losses: losses}, nil
}

// #endregion train
