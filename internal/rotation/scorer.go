// Package rotation scores how well a candidate crop fits a field's soil type
// and multi-year sowing history. The score is dimensionless; it disfavors but
// never hard-excludes a crop, so the user retains the final choice.
package rotation

import (
	"math"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"go.uber.org/zap"
)

// Policy holds the tunable rotation scoring parameters. The exact decay
// function is policy, not a hidden constant; only determinism and totality
// are fixed.
type Policy struct {
	// Window is how many most recent seasons of history are considered.
	Window int
	// SoilMatchBonus is added when the crop declares the field's soil type.
	SoilMatchBonus float64
	// SoilMismatchPenalty is subtracted when it does not.
	SoilMismatchPenalty float64
	// SameCropPenalty is subtracted for replanting the same crop the very
	// next season; it decays with intervening seasons.
	SameCropPenalty float64
	// SameCategoryPenalty is the analogous penalty for the same category.
	SameCategoryPenalty float64
	// DecayFactor scales a penalty down per intervening season, in (0, 1].
	DecayFactor float64
	// LegumeAfterCerealBonus rewards planting a nitrogen-fixing legume
	// immediately after a heavy-feeder cereal.
	LegumeAfterCerealBonus float64
}

// DefaultPolicy returns the rotation parameters used when the configuration
// does not override them.
func DefaultPolicy() Policy {
	return Policy{
		Window:                 4,
		SoilMatchBonus:         10.0,
		SoilMismatchPenalty:    15.0,
		SameCropPenalty:        25.0,
		SameCategoryPenalty:    10.0,
		DecayFactor:            0.5,
		LegumeAfterCerealBonus: 8.0,
	}
}

// Scorer computes suitability scores. It is pure and deterministic given the
// same field snapshot and catalog.
type Scorer struct {
	policy  Policy
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewScorer creates a scorer. If logger is nil, it will use a no-op logger
// to prevent panics.
func NewScorer(policy Policy, cat *catalog.Catalog, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Window <= 0 {
		policy.Window = DefaultPolicy().Window
	}
	if policy.DecayFactor <= 0 || policy.DecayFactor > 1 {
		policy.DecayFactor = DefaultPolicy().DecayFactor
	}
	return &Scorer{policy: policy, catalog: cat, logger: logger}
}

// Score returns the suitability of planting the candidate crop on the field
// next season. Missing history yields a neutral rotation component: absence
// of data must not bias the score. A history record referencing a crop
// absent from the catalog fails fast with an UnknownCropError.
func (s *Scorer) Score(f field.Field, history []field.SowingRecord, crop catalog.Crop) (float64, error) {
	score := s.soilComponent(f, crop)

	rot, err := s.rotationComponent(history, crop)
	if err != nil {
		return 0, err
	}
	score += rot

	s.logger.Debug("suitability computed",
		zap.String("op", "rotation.Score"),
		zap.String("field", f.ID),
		zap.String("crop", crop.Code),
		zap.Float64("score", score),
	)
	return score, nil
}

func (s *Scorer) soilComponent(f field.Field, crop catalog.Crop) float64 {
	if crop.SoilCompatible(f.Soil) {
		return s.policy.SoilMatchBonus
	}
	return -s.policy.SoilMismatchPenalty
}

func (s *Scorer) rotationComponent(history []field.SowingRecord, crop catalog.Crop) (float64, error) {
	if len(history) == 0 {
		return 0, nil
	}

	ordered := make([]field.SowingRecord, len(history))
	copy(ordered, history)
	field.SortHistory(ordered)

	lastYear := ordered[len(ordered)-1].Year
	// The score is computed for the season following the most recent record.
	targetYear := lastYear + 1

	component := 0.0
	for _, rec := range ordered {
		prev, err := s.catalog.Get(rec.CropCode)
		if err != nil {
			return 0, err
		}
		seasonsBack := targetYear - rec.Year
		if seasonsBack < 1 || seasonsBack > s.policy.Window {
			continue
		}
		decay := math.Pow(s.policy.DecayFactor, float64(seasonsBack-1))
		if prev.Code == crop.Code {
			component -= s.policy.SameCropPenalty * decay
		} else if prev.Category == crop.Category {
			component -= s.policy.SameCategoryPenalty * decay
		}
	}

	// Nitrogen-fixing rotation benefit.
	mostRecent, err := s.catalog.Get(ordered[len(ordered)-1].CropCode)
	if err != nil {
		return 0, err
	}
	if crop.Category == catalog.CategoryLegume && mostRecent.Category == catalog.CategoryCereal {
		component += s.policy.LegumeAfterCerealBonus
	}

	return component, nil
}
