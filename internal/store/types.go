package store

import (
	"time"

	"github.com/davismoran/offline-eval/go-estimator/internal/dm"
)

// #region eval-run

// EvalRun is one persisted Estimate invocation: the aggregate statistics
// plus, when loaded with detail, the per-episode estimates.
type EvalRun struct {
	RunID     string
	CreatedAt time.Time
	Gamma     float64
	Episodes  int
	Result    dm.Result
}

// #endregion eval-run

// #region training-run

// TrainingRun is one persisted Train invocation with its full loss history.
type TrainingRun struct {
	TrainID   string
	CreatedAt time.Time
	Steps     int
	MeanLoss  float64
	Losses    []float64
}

// #endregion training-run
