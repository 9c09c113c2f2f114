package sample

// #region imports
import (
	"fmt"
	"iter"
	"slices"
)

// #endregion imports

// #region count

// Count returns the number of transitions in the batch.
func (b *Batch) Count() int {
	return len(b.Rewards)
}

// #endregion count

// #region slice

// Slice returns a view over transitions [lo, hi). The view shares backing
// arrays with the parent batch; no data is copied.
func (b *Batch) Slice(lo, hi int) *Batch {
	return &Batch{
		Obs:        sliceObs(b.Obs, lo, hi),
		NewObs:     sliceObs(b.NewObs, lo, hi),
		Actions:    sliceI64(b.Actions, lo, hi),
		Rewards:    b.Rewards[lo:hi:hi],
		ActionProb: sliceF64(b.ActionProb, lo, hi),
		Dones:      sliceBool(b.Dones, lo, hi),
	}
}

// InitialStep returns the first transition as a single-step batch view.
func (b *Batch) InitialStep() *Batch {
	return b.Slice(0, 1)
}

func sliceObs(col [][]float32, lo, hi int) [][]float32 {
	if col == nil {
		return nil
	}
	return col[lo:hi:hi]
}

func sliceI64(col []int64, lo, hi int) []int64 {
	if col == nil {
		return nil
	}
	return col[lo:hi:hi]
}

func sliceF64(col []float64, lo, hi int) []float64 {
	if col == nil {
		return nil
	}
	return col[lo:hi:hi]
}

func sliceBool(col []bool, lo, hi int) []bool {
	if col == nil {
		return nil
	}
	return col[lo:hi:hi]
}

// #endregion slice

// #region episodes

// Episodes yields contiguous single-episode views of the batch in order. An
// episode ends immediately after a transition with Dones set, or at batch
// exhaustion (a truncated tail is still one episode). An empty batch yields
// nothing. The sequence is restartable: ranging again rescans from the start.
func (b *Batch) Episodes() iter.Seq[*Batch] {
	return func(yield func(*Batch) bool) {
		start := 0
		n := b.Count()
		for i := 0; i < n; i++ {
			if b.Dones != nil && b.Dones[i] {
				if !yield(b.Slice(start, i+1)) {
					return
				}
				start = i + 1
			}
		}
		if start < n {
			yield(b.Slice(start, n))
		}
	}
}

// #endregion episodes

// #region normalize

// AsSampleBatch returns the batch itself; flat batches need no conversion.
func (b *Batch) AsSampleBatch() *Batch {
	return b
}

// AsSampleBatch flattens the multi-agent batch into a single flat batch.
func (m MultiAgentBatch) AsSampleBatch() *Batch {
	return m.Flatten()
}

// Flatten concatenates the per-agent batches in sorted agent-id order, so
// the result is deterministic for a given input. An optional column appears
// in the result only when every non-empty sub-batch carries it.
func (m MultiAgentBatch) Flatten() *Batch {
	ids := make([]string, 0, len(m))
	for id, sub := range m {
		if sub == nil || sub.Count() == 0 {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)

	hasObs, hasNewObs, hasActions, hasProb, hasDones := true, true, true, true, true
	total := 0
	for _, id := range ids {
		sub := m[id]
		total += sub.Count()
		hasObs = hasObs && sub.Obs != nil
		hasNewObs = hasNewObs && sub.NewObs != nil
		hasActions = hasActions && sub.Actions != nil
		hasProb = hasProb && sub.ActionProb != nil
		hasDones = hasDones && sub.Dones != nil
	}

	flat := &Batch{Rewards: make([]float64, 0, total)}
	if total == 0 {
		return flat
	}
	if hasObs {
		flat.Obs = make([][]float32, 0, total)
	}
	if hasNewObs {
		flat.NewObs = make([][]float32, 0, total)
	}
	if hasActions {
		flat.Actions = make([]int64, 0, total)
	}
	if hasProb {
		flat.ActionProb = make([]float64, 0, total)
	}
	if hasDones {
		flat.Dones = make([]bool, 0, total)
	}

	for _, id := range ids {
		sub := m[id]
		flat.Rewards = append(flat.Rewards, sub.Rewards...)
		if hasObs {
			flat.Obs = append(flat.Obs, sub.Obs...)
		}
		if hasNewObs {
			flat.NewObs = append(flat.NewObs, sub.NewObs...)
		}
		if hasActions {
			flat.Actions = append(flat.Actions, sub.Actions...)
		}
		if hasProb {
			flat.ActionProb = append(flat.ActionProb, sub.ActionProb...)
		}
		if hasDones {
			flat.Dones = append(flat.Dones, sub.Dones...)
		}
	}
	return flat
}

// #endregion normalize

// #region guard

// Validate checks that every present column agrees on the transition count.
func (b *Batch) Validate() error {
	n := b.Count()
	if b.Obs != nil && len(b.Obs) != n {
		return fmt.Errorf("obs column has %d rows, want %d", len(b.Obs), n)
	}
	if b.NewObs != nil && len(b.NewObs) != n {
		return fmt.Errorf("new_obs column has %d rows, want %d", len(b.NewObs), n)
	}
	if b.Actions != nil && len(b.Actions) != n {
		return fmt.Errorf("actions column has %d rows, want %d", len(b.Actions), n)
	}
	if b.ActionProb != nil && len(b.ActionProb) != n {
		return fmt.Errorf("action_prob column has %d rows, want %d", len(b.ActionProb), n)
	}
	if b.Dones != nil && len(b.Dones) != n {
		return fmt.Errorf("dones column has %d rows, want %d", len(b.Dones), n)
	}
	return nil
}

// CheckActionProb verifies that the batch carries the behavior policy's
// action probabilities, which behavior-relative estimation requires. Empty
// batches pass vacuously.
func CheckActionProb(b *Batch) error {
	if b.Count() > 0 && b.ActionProb == nil {
		return &MissingFieldError{Field: "action_prob"}
	}
	return nil
}

// #endregion guard
