package model

// #region imports
import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/davismoran/offline-eval/go-estimator/internal/policy"
	"github.com/davismoran/offline-eval/go-estimator/internal/sample"
)

// #endregion imports

// #region fqe-struct

// FQE is a linear fitted-Q evaluation model: one ridge-regularized linear Q
// head per action over bias-augmented observation features. Each Train call
// runs a fixed number of fitted-Q iterations against targets
// y = r + γ·(1−done)·V(s'), with V(s) = Σ_a π(a|s)·Q(s,a) under the target
// policy. Fitting is deterministic: weights start at zero and every solve is
// an exact Cholesky factorization of the normal equations.
type FQE struct {
	policy     policy.Policy
	gamma      float64
	iterations int
	ridge      float64

	dim     int         // feature dimension incl. bias; fixed on first Train
	weights [][]float64 // [action][dim]
}

func init() {
	Register(DefaultType, newFQE)
}

func newFQE(p policy.Policy, gamma float64, cfg Config) (ValueModel, error) {
	if p == nil {
		return nil, errors.New("fqe: target policy is required")
	}
	if p.NumActions() <= 0 {
		return nil, fmt.Errorf("fqe: policy reports %d actions", p.NumActions())
	}
	iters := cfg.Iterations
	if iters <= 0 {
		iters = 8
	}
	ridge := cfg.Ridge
	if ridge <= 0 {
		ridge = 1e-6
	}
	return &FQE{
		policy:     p,
		gamma:      gamma,
		iterations: iters,
		ridge:      ridge,
	}, nil
}

// #endregion fqe-struct

// #region train

// Train runs the configured number of fitted-Q iterations over the whole
// batch and returns one mean-squared-error loss per iteration.
func (f *FQE) Train(b *sample.Batch) ([]float64, error) {
	n := 0
	if b != nil {
		n = b.Count()
	}
	if n == 0 {
		return nil, errors.New("fqe: training batch is empty")
	}
	if b.Obs == nil || b.NewObs == nil || b.Actions == nil {
		return nil, errors.New("fqe: training requires obs, new_obs, and actions columns")
	}
	if err := f.ensureDim(b.Obs[0]); err != nil {
		return nil, err
	}
	numActions := f.policy.NumActions()
	for i := 0; i < n; i++ {
		if a := b.Actions[i]; a < 0 || a >= int64(numActions) {
			return nil, fmt.Errorf("fqe: action %d outside [0, %d)", a, numActions)
		}
	}

	losses := make([]float64, 0, f.iterations)
	for it := 0; it < f.iterations; it++ {
		// Bootstrap targets under the current weights.
		targets := make([]float64, n)
		for i := 0; i < n; i++ {
			v := 0.0
			if f.gamma != 0 && !terminal(b, i) {
				sv, err := f.stateValue(b.NewObs[i])
				if err != nil {
					return nil, err
				}
				v = sv
			}
			targets[i] = b.Rewards[i] + f.gamma*v
		}

		// Refit each action head on its own transitions. Actions with no
		// samples this batch keep their previous weights.
		next := make([][]float64, numActions)
		for a := 0; a < numActions; a++ {
			var rows []int
			for i := 0; i < n; i++ {
				if b.Actions[i] == int64(a) {
					rows = append(rows, i)
				}
			}
			if len(rows) == 0 {
				next[a] = f.weights[a]
				continue
			}
			w, err := f.fit(rows, b, targets)
			if err != nil {
				return nil, err
			}
			next[a] = w
		}
		f.weights = next

		var sq float64
		for i := 0; i < n; i++ {
			d := f.qValue(b.Obs[i], b.Actions[i]) - targets[i]
			sq += d * d
		}
		losses = append(losses, sq/float64(n))
	}
	return losses, nil
}

func terminal(b *sample.Batch, i int) bool {
	return b.Dones != nil && b.Dones[i]
}

// #endregion train

// #region estimate-v

// EstimateV returns the mean target-policy state value over the batch's
// observations. Untrained weights are zero, so the untrained estimate is 0.
// EstimateV never mutates model parameters.
func (f *FQE) EstimateV(b *sample.Batch) (float64, error) {
	n := 0
	if b != nil {
		n = b.Count()
	}
	if n == 0 {
		return 0, errors.New("fqe: estimation batch is empty")
	}
	if b.Obs == nil {
		return 0, errors.New("fqe: estimation requires the obs column")
	}
	var total float64
	for i := 0; i < n; i++ {
		v, err := f.stateValue(b.Obs[i])
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total / float64(n), nil
}

// #endregion estimate-v

// #region linear-algebra

// ensureDim pins the feature dimension on first use and rejects later
// batches with a different observation width.
func (f *FQE) ensureDim(obs []float32) error {
	d := len(obs) + 1
	if f.dim == 0 {
		f.dim = d
		f.weights = make([][]float64, f.policy.NumActions())
		for a := range f.weights {
			f.weights[a] = make([]float64, d)
		}
		return nil
	}
	if d != f.dim {
		return fmt.Errorf("fqe: observation width %d does not match fitted width %d", d-1, f.dim-1)
	}
	return nil
}

// features appends a constant bias term to the observation.
func (f *FQE) features(obs []float32) []float64 {
	x := make([]float64, len(obs)+1)
	for i, v := range obs {
		x[i] = float64(v)
	}
	x[len(obs)] = 1
	return x
}

func (f *FQE) qValue(obs []float32, action int64) float64 {
	if f.dim == 0 {
		return 0
	}
	w := f.weights[action]
	var q float64
	for i, v := range obs {
		q += w[i] * float64(v)
	}
	q += w[len(w)-1]
	return q
}

// stateValue is V(s) = Σ_a π(a|s)·Q(s,a) under the target policy.
func (f *FQE) stateValue(obs []float32) (float64, error) {
	probs, err := f.policy.ActionProbs(obs)
	if err != nil {
		return 0, fmt.Errorf("fqe: target policy: %w", err)
	}
	if len(probs) != f.policy.NumActions() {
		return 0, fmt.Errorf("fqe: policy returned %d probabilities, want %d", len(probs), f.policy.NumActions())
	}
	if f.dim != 0 && len(obs)+1 != f.dim {
		return 0, fmt.Errorf("fqe: observation width %d does not match fitted width %d", len(obs), f.dim-1)
	}
	var v float64
	for a, p := range probs {
		if f.dim != 0 {
			v += p * f.qValue(obs, int64(a))
		}
	}
	return v, nil
}

// fit solves the ridge-regularized normal equations (XᵀX + λI)w = Xᵀy over
// the selected rows.
func (f *FQE) fit(rows []int, b *sample.Batch, targets []float64) ([]float64, error) {
	d := f.dim
	gram := mat.NewSymDense(d, nil)
	rhs := mat.NewVecDense(d, nil)
	for _, i := range rows {
		x := f.features(b.Obs[i])
		for r := 0; r < d; r++ {
			rhs.SetVec(r, rhs.AtVec(r)+x[r]*targets[i])
			for c := r; c < d; c++ {
				gram.SetSym(r, c, gram.At(r, c)+x[r]*x[c])
			}
		}
	}
	for r := 0; r < d; r++ {
		gram.SetSym(r, r, gram.At(r, r)+f.ridge)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return nil, errors.New("fqe: normal equations are not positive definite")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, rhs); err != nil {
		return nil, fmt.Errorf("fqe: least-squares solve: %w", err)
	}
	out := make([]float64, d)
	for r := 0; r < d; r++ {
		out[r] = w.AtVec(r)
	}
	return out, nil
}

// #endregion linear-algebra
