package policy

// #region imports
import (
	"fmt"
)

// #endregion imports

// #region policy-interface

// Policy exposes the target policy's action distribution over a discrete
// action space. The estimator core never calls it directly; only the value
// model does.
type Policy interface {
	NumActions() int
	ActionProbs(obs []float32) ([]float64, error)
}

// #endregion policy-interface

// #region uniform

// Uniform assigns equal probability to every action, for any observation.
type Uniform struct {
	Actions int
}

func (u Uniform) NumActions() int {
	return u.Actions
}

func (u Uniform) ActionProbs(obs []float32) ([]float64, error) {
	if u.Actions <= 0 {
		return nil, fmt.Errorf("uniform policy needs a positive action count, got %d", u.Actions)
	}
	probs := make([]float64, u.Actions)
	p := 1.0 / float64(u.Actions)
	for i := range probs {
		probs[i] = p
	}
	return probs, nil
}

// #endregion uniform

// #region static

// Static returns the same fixed distribution for every observation.
type Static struct {
	Probs []float64
}

func (s Static) NumActions() int {
	return len(s.Probs)
}

func (s Static) ActionProbs(obs []float32) ([]float64, error) {
	if len(s.Probs) == 0 {
		return nil, fmt.Errorf("static policy has no action probabilities")
	}
	out := make([]float64, len(s.Probs))
	copy(out, s.Probs)
	return out, nil
}

// #endregion static
