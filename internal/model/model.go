package model

// #region imports
import (
	"fmt"
	"slices"
	"strings"

	"github.com/davismoran/offline-eval/go-estimator/internal/policy"
	"github.com/davismoran/offline-eval/go-estimator/internal/sample"
)

// #endregion imports

// #region value-model

// ValueModel is the regression capability consumed by the return estimator.
// Train fits the model on a full flat batch and reports one loss scalar per
// internal optimization step. EstimateV returns a state-value estimate for a
// single-step batch and must not mutate model parameters.
type ValueModel interface {
	Train(b *sample.Batch) ([]float64, error)
	EstimateV(b *sample.Batch) (float64, error)
}

// #endregion value-model

// #region config

// DefaultType is the model selected when Config.Type is empty.
const DefaultType = "fqe"

// Config selects and tunes the concrete value model. Options beyond Type are
// forwarded only to the implementation that consumes them.
type Config struct {
	Type       string  // registered model type; "" selects DefaultType
	Iterations int     // fqe: fitted-Q iterations per Train call (default 8)
	Ridge      float64 // fqe: L2 regularizer on the least-squares solve (default 1e-6)
}

// DefaultConfig returns the default fitted-Q evaluation configuration.
func DefaultConfig() Config {
	return Config{
		Type:       DefaultType,
		Iterations: 8,
		Ridge:      1e-6,
	}
}

// #endregion config

// #region registry

// Factory builds a value model for the given target policy and discount.
type Factory func(p policy.Policy, gamma float64, cfg Config) (ValueModel, error)

var registry = map[string]Factory{}

// Register adds a model type to the registry. Call from init; Register is
// not synchronized.
func Register(name string, f Factory) {
	registry[name] = f
}

// Types lists the registered model types in sorted order.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the value model named by cfg.Type, defaulting to DefaultType.
func New(p policy.Policy, gamma float64, cfg Config) (ValueModel, error) {
	typ := cfg.Type
	if typ == "" {
		typ = DefaultType
	}
	f, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown value model type %q (registered: %s)", typ, strings.Join(Types(), ", "))
	}
	return f(p, gamma, cfg)
}

// #endregion registry
