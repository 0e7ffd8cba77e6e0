// Package planner combines price resolution and rotation scoring into ranked
// crop recommendations for a field.
package planner

import (
	"context"
	"errors"
	"sort"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"github.com/uldisg/cropwise/internal/pricing"
	"github.com/uldisg/cropwise/internal/rotation"
	"github.com/uldisg/cropwise/pkg/constants"
	"github.com/uldisg/cropwise/pkg/mathutil"
	"go.uber.org/zap"
)

// Weights is the explicit trade-off between biologically sound rotation and
// economic attractiveness. Configuration, not hidden constants.
type Weights struct {
	Suitability float64
	Profit      float64
}

// DefaultWeights returns the ranking weights used when the configuration
// does not override them.
func DefaultWeights() Weights {
	return Weights{
		Suitability: constants.DefaultSuitabilityWeight,
		Profit:      constants.DefaultProfitWeight,
	}
}

// Recommendation is one ranked candidate for a field.
type Recommendation struct {
	CropCode      string        `json:"cropCode"`
	CropName      string        `json:"cropName"`
	Suitability   float64       `json:"suitability"`
	Quote         pricing.Quote `json:"quote"`
	YieldTHa      float64       `json:"yieldTHa"`
	YieldFallback bool          `json:"yieldFallback,omitempty"`
	RevenuePerHa  float64       `json:"revenuePerHa"`
	CostPerHa     float64       `json:"costPerHa"`
	ProfitPerHa   float64       `json:"profitPerHa"`
	RankingKey    float64       `json:"rankingKey"`
	Notes         []string      `json:"notes,omitempty"`
}

// Result is the outcome of ranking one field. Candidates that could not be
// evaluated are reported explicitly rather than silently dropped.
type Result struct {
	Recommendations []Recommendation  `json:"recommendations"`
	Skipped         map[string]string `json:"skipped,omitempty"`
}

// Ranker ranks candidate crops for a field. It is a pure function over its
// snapshot inputs plus one resolver read per candidate.
type Ranker struct {
	catalog  *catalog.Catalog
	resolver *pricing.Resolver
	scorer   *rotation.Scorer
	weights  Weights
	logger   *zap.Logger
}

// NewRanker creates a ranker. If logger is nil, it will use a no-op logger
// to prevent panics.
func NewRanker(cat *catalog.Catalog, resolver *pricing.Resolver, scorer *rotation.Scorer, weights Weights, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if weights.Suitability == 0 && weights.Profit == 0 {
		weights = DefaultWeights()
	}
	return &Ranker{catalog: cat, resolver: resolver, scorer: scorer, weights: weights, logger: logger}
}

// Rank evaluates the candidate crops for the field and returns them sorted
// by descending ranking key with a lexicographic crop-code tie-break. An
// empty candidate list means the whole catalog. An unknown candidate crop is
// fatal to that candidate only; the rest of the batch still evaluates. A
// history record referencing an unknown crop fails the whole call.
func (r *Ranker) Rank(ctx context.Context, f field.Field, history []field.SowingRecord, candidates []string) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	for _, rec := range history {
		if !r.catalog.Has(rec.CropCode) {
			return Result{}, &catalog.UnknownCropError{Code: rec.CropCode}
		}
	}

	if len(candidates) == 0 {
		candidates = r.catalog.Codes()
	}

	result := Result{}
	for _, code := range candidates {
		rec, err := r.evaluate(ctx, f, history, code)
		if err != nil {
			var unknown *catalog.UnknownCropError
			if errors.As(err, &unknown) {
				if result.Skipped == nil {
					result.Skipped = make(map[string]string)
				}
				result.Skipped[code] = err.Error()
				r.logger.Warn("skipping candidate crop",
					zap.String("op", "planner.Rank"),
					zap.String("field", f.ID),
					zap.String("crop", code),
					zap.Error(err),
				)
				continue
			}
			return Result{}, err
		}
		result.Recommendations = append(result.Recommendations, rec)
	}

	sort.SliceStable(result.Recommendations, func(i, j int) bool {
		a, b := result.Recommendations[i], result.Recommendations[j]
		// Keys within currency tolerance are a tie, broken by crop code.
		if !mathutil.IsZero(a.RankingKey - b.RankingKey) {
			return a.RankingKey > b.RankingKey
		}
		return a.CropCode < b.CropCode
	})

	return result, nil
}

func (r *Ranker) evaluate(ctx context.Context, f field.Field, history []field.SowingRecord, code string) (Recommendation, error) {
	crop, err := r.catalog.Get(code)
	if err != nil {
		return Recommendation{}, err
	}

	quote, err := r.resolver.Resolve(ctx, code)
	if err != nil {
		return Recommendation{}, err
	}

	suitability, err := r.scorer.Score(f, history, crop)
	if err != nil {
		return Recommendation{}, err
	}

	yield, yieldFallback := crop.YieldFor(f.Soil)
	revenuePerHa := mathutil.Round(yield * quote.PriceEurT)
	costPerHa := mathutil.Round(crop.CostEurHa + f.RentEurHa)
	profitPerHa := revenuePerHa - costPerHa

	rec := Recommendation{
		CropCode:      code,
		CropName:      crop.Name,
		Suitability:   suitability,
		Quote:         quote,
		YieldTHa:      yield,
		YieldFallback: yieldFallback,
		RevenuePerHa:  revenuePerHa,
		CostPerHa:     costPerHa,
	}
	if yieldFallback {
		rec.Notes = append(rec.Notes, "yield estimated from the mean of declared per-soil yields")
	}

	// Profit penalty when the field pH falls outside the crop's optimal range.
	if f.PH != nil && crop.PHRange != nil {
		if *f.PH < crop.PHRange.Min || *f.PH > crop.PHRange.Max {
			profitPerHa *= 0.9
			rec.Notes = append(rec.Notes, "field pH outside optimal range, profit reduced by 10%")
		}
	}

	rec.ProfitPerHa = mathutil.Round(profitPerHa)
	rec.RankingKey = r.weights.Suitability*suitability + r.weights.Profit*rec.ProfitPerHa
	return rec, nil
}
