package sample

import "fmt"

// #region batch

// Batch is a columnar container of logged transitions. Columns are parallel
// slices indexed by timestep; a nil column means the field was not logged.
// Transitions carry no episode identifier — episode membership is recovered
// by scanning the Dones column in order.
type Batch struct {
	Obs        [][]float32
	NewObs     [][]float32
	Actions    []int64
	Rewards    []float64
	ActionProb []float64 // behavior policy's probability of the taken action
	Dones      []bool    // true on the last step of an episode
}

// #endregion batch

// #region multi-agent

// MultiAgentBatch maps an agent identifier to that agent's flat batch, as
// produced by multi-agent or multi-rollout-worker collection.
type MultiAgentBatch map[string]*Batch

// #endregion multi-agent

// #region batch-input

// BatchInput is satisfied by both *Batch and MultiAgentBatch, so estimator
// entry points accept either form and normalize to a flat batch.
type BatchInput interface {
	AsSampleBatch() *Batch
}

// #endregion batch-input

// #region errors

// MissingFieldError reports a required per-transition field that is absent
// from a batch. Raised by the guard layer before any numeric computation.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("batch field %q is required", e.Field)
}

// #endregion errors
