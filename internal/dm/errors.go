package dm

// #region imports
import (
	"errors"
	"fmt"
)

// #endregion imports

// #region errors

// ErrEmptyBatch reports a batch that produced zero episodes. It is raised at
// aggregation time, before any division is attempted.
var ErrEmptyBatch = errors.New("batch contains no episodes")

// ModelError wraps a failure raised by the underlying value model. The
// estimator neither interprets nor retries these.
type ModelError struct {
	Op  string // "train" or "estimate_v"
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("value model %s: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// #endregion errors
