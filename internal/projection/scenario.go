package projection

import (
	"fmt"
	"sync"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"go.uber.org/zap"
)

// Scenario is a named multiplicative perturbation applied uniformly to the
// price and yield assumptions across the projection horizon.
type Scenario struct {
	Name            string  `json:"name"`
	PriceMultiplier float64 `json:"priceMultiplier"`
	YieldMultiplier float64 `json:"yieldMultiplier"`
}

// ScenarioConfigError indicates a scenario declaring a non-positive
// multiplier. It is rejected at definition time, before any projection runs.
type ScenarioConfigError struct {
	Scenario string
	Field    string
	Value    float64
}

func (e *ScenarioConfigError) Error() string {
	return fmt.Sprintf("scenario %q: %s must be positive, got %.2f", e.Scenario, e.Field, e.Value)
}

// Validate rejects non-positive multipliers and unnamed scenarios.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return &ScenarioConfigError{Scenario: "(unnamed)", Field: "name", Value: 0}
	}
	if s.PriceMultiplier <= 0 {
		return &ScenarioConfigError{Scenario: s.Name, Field: "priceMultiplier", Value: s.PriceMultiplier}
	}
	if s.YieldMultiplier <= 0 {
		return &ScenarioConfigError{Scenario: s.Name, Field: "yieldMultiplier", Value: s.YieldMultiplier}
	}
	return nil
}

// DefaultScenarios returns the baseline/pessimistic/optimistic trio used
// when the configuration declares no scenario set.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "pessimistic", PriceMultiplier: 0.85, YieldMultiplier: 0.9},
		{Name: "baseline", PriceMultiplier: 1.0, YieldMultiplier: 1.0},
		{Name: "optimistic", PriceMultiplier: 1.15, YieldMultiplier: 1.1},
	}
}

// Analyzer runs the projector under a set of scenarios.
type Analyzer struct {
	projector *Projector
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer sharing the given projector. If logger is
// nil, it will use a no-op logger to prevent panics.
func NewAnalyzer(projector *Projector, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{projector: projector, logger: logger}
}

// Analyze runs every scenario through the same projector logic and returns a
// mapping from scenario name to projection. Scenario runs share no mutable
// state; they are computed in parallel and the output is identical whether
// run sequentially or concurrently. All scenarios are validated before any
// projection runs.
func (a *Analyzer) Analyze(crop catalog.Crop, f field.Field, horizonYears int, price, yield Assumption, scenarios []Scenario) (map[string][]Row, error) {
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}
	seen := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if price == nil {
		price = Flat(crop.PriceEurT)
	}
	if yield == nil {
		y, _ := crop.YieldFor(f.Soil)
		yield = Flat(y)
	}

	type outcome struct {
		rows []Row
		err  error
	}
	outcomes := make([]outcome, len(scenarios))

	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc Scenario) {
			defer wg.Done()
			rows, err := a.projector.Project(crop, f, horizonYears,
				Scaled(price, sc.PriceMultiplier),
				Scaled(yield, sc.YieldMultiplier),
			)
			outcomes[i] = outcome{rows: rows, err: err}
		}(i, sc)
	}
	wg.Wait()

	result := make(map[string][]Row, len(scenarios))
	for i, sc := range scenarios {
		if outcomes[i].err != nil {
			return nil, outcomes[i].err
		}
		result[sc.Name] = outcomes[i].rows
	}

	a.logger.Debug("scenario analysis computed",
		zap.String("op", "projection.Analyze"),
		zap.String("field", f.ID),
		zap.String("crop", crop.Code),
		zap.Int("scenarios", len(scenarios)),
	)
	return result, nil
}
