package fixture

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/davismoran/offline-eval/go-estimator/internal/model"
	"github.com/davismoran/offline-eval/go-estimator/internal/policy"
	"github.com/davismoran/offline-eval/go-estimator/internal/sample"
)

// #endregion imports

// #region fixture-types

// Fixture is the top-level JSON structure for an evaluation fixture: a
// logged batch plus the run configuration. Exactly one of Transitions (flat
// form) or Agents (multi-agent form) must be present.
type Fixture struct {
	Description string                         `json:"description"`
	Gamma       float64                        `json:"gamma"`
	TrainPasses int                            `json:"train_passes"`
	Policy      FixturePolicy                  `json:"policy"`
	Model       FixtureModelConfig             `json:"model"`
	Transitions []FixtureTransition            `json:"transitions"`
	Agents      map[string][]FixtureTransition `json:"agents"`
}

// FixturePolicy describes the target policy to evaluate.
type FixturePolicy struct {
	Type       string    `json:"type"` // "uniform" | "static"
	NumActions int       `json:"num_actions"`
	Probs      []float64 `json:"probs"`
}

// FixtureModelConfig mirrors model.Config with JSON tags.
type FixtureModelConfig struct {
	Type       string  `json:"type"`
	Iterations int     `json:"iterations"`
	Ridge      float64 `json:"ridge"`
}

// FixtureTransition is one logged timestep. A nil action_prob marks the
// field as absent, which the guard layer will reject.
type FixtureTransition struct {
	Obs        []float32 `json:"obs"`
	NewObs     []float32 `json:"new_obs"`
	Action     int64     `json:"action"`
	Reward     float64   `json:"reward"`
	ActionProb *float64  `json:"action_prob"`
	Done       bool      `json:"done"`
}

// #endregion fixture-types

// #region loader

// Load reads and parses a JSON fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// #endregion loader

// #region conversion

// BatchInput converts the fixture's transitions to the estimator's input
// form, flat or multi-agent.
func (f *Fixture) BatchInput() (sample.BatchInput, error) {
	switch {
	case f.Transitions != nil && f.Agents != nil:
		return nil, fmt.Errorf("fixture has both transitions and agents; pick one form")
	case f.Agents != nil:
		ma := make(sample.MultiAgentBatch, len(f.Agents))
		for id, ts := range f.Agents {
			ma[id] = toBatch(ts)
		}
		return ma, nil
	case f.Transitions != nil:
		return toBatch(f.Transitions), nil
	default:
		return nil, fmt.Errorf("fixture has no transitions")
	}
}

// toBatch builds a columnar batch. Optional columns materialize only when
// every transition carries the field; otherwise the column stays nil and the
// guard layer reports it.
func toBatch(ts []FixtureTransition) *sample.Batch {
	n := len(ts)
	b := &sample.Batch{
		Rewards: make([]float64, n),
		Actions: make([]int64, n),
		Dones:   make([]bool, n),
	}
	hasObs, hasNewObs, hasProb := true, true, true
	for _, tr := range ts {
		hasObs = hasObs && tr.Obs != nil
		hasNewObs = hasNewObs && tr.NewObs != nil
		hasProb = hasProb && tr.ActionProb != nil
	}
	if hasObs {
		b.Obs = make([][]float32, n)
	}
	if hasNewObs {
		b.NewObs = make([][]float32, n)
	}
	if hasProb {
		b.ActionProb = make([]float64, n)
	}
	for i, tr := range ts {
		b.Rewards[i] = tr.Reward
		b.Actions[i] = tr.Action
		b.Dones[i] = tr.Done
		if hasObs {
			b.Obs[i] = tr.Obs
		}
		if hasNewObs {
			b.NewObs[i] = tr.NewObs
		}
		if hasProb {
			b.ActionProb[i] = *tr.ActionProb
		}
	}
	return b
}

// BuildPolicy constructs the target policy named by the fixture.
func (f *Fixture) BuildPolicy() (policy.Policy, error) {
	switch f.Policy.Type {
	case "", "uniform":
		if f.Policy.NumActions <= 0 {
			return nil, fmt.Errorf("uniform policy needs num_actions > 0")
		}
		return policy.Uniform{Actions: f.Policy.NumActions}, nil
	case "static":
		if len(f.Policy.Probs) == 0 {
			return nil, fmt.Errorf("static policy needs probs")
		}
		return policy.Static{Probs: f.Policy.Probs}, nil
	default:
		return nil, fmt.Errorf("unknown policy type %q", f.Policy.Type)
	}
}

// ModelConfig converts the fixture's model block to a model.Config.
func (f *Fixture) ModelConfig() model.Config {
	return model.Config{
		Type:       f.Model.Type,
		Iterations: f.Model.Iterations,
		Ridge:      f.Model.Ridge,
	}
}

// #endregion conversion
