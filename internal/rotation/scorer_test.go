package rotation

import (
	"errors"
	"math"
	"testing"

	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"go.uber.org/zap"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Crop{
		{
			Code: "wheat", Name: "Winter wheat", Category: catalog.CategoryCereal,
			PriceEurT: 200, YieldTHa: 5, CostEurHa: 300,
			CompatibleSoils: []catalog.SoilType{catalog.SoilClay, catalog.SoilSand},
		},
		{
			Code: "barley", Name: "Spring barley", Category: catalog.CategoryCereal,
			PriceEurT: 175, YieldTHa: 4.2, CostEurHa: 260,
			CompatibleSoils: []catalog.SoilType{catalog.SoilClay},
		},
		{
			Code: "peas", Name: "Field peas", Category: catalog.CategoryLegume,
			PriceEurT: 240, YieldTHa: 3, CostEurHa: 270,
			CompatibleSoils: []catalog.SoilType{catalog.SoilClay},
		},
		{
			Code: "potato", Name: "Potato", Category: catalog.CategoryRoot,
			PriceEurT: 150, YieldTHa: 30, CostEurHa: 2200,
			CompatibleSoils: []catalog.SoilType{catalog.SoilSand},
		},
	})
	if err != nil {
		t.Fatalf("failed to build test catalog: %v", err)
	}
	return cat
}

func clayField() field.Field {
	return field.Field{ID: "f1", OwnerID: "u1", AreaHa: 10, Soil: catalog.SoilClay}
}

func mustGet(t *testing.T, cat *catalog.Catalog, code string) catalog.Crop {
	t.Helper()
	crop, err := cat.Get(code)
	if err != nil {
		t.Fatalf("catalog lookup for %s failed: %v", code, err)
	}
	return crop
}

func TestEmptyHistoryIsNeutral(t *testing.T) {
	// With no history the rotation component must be zero for every crop;
	// only the soil compatibility component may vary.
	cat := testCatalog(t)
	policy := DefaultPolicy()
	scorer := NewScorer(policy, cat, zap.NewNop())
	f := clayField()

	for _, code := range cat.Codes() {
		crop := mustGet(t, cat, code)
		score, err := scorer.Score(f, nil, crop)
		if err != nil {
			t.Fatalf("Score(%s) error = %v", code, err)
		}
		expected := policy.SoilMatchBonus
		if !crop.SoilCompatible(f.Soil) {
			expected = -policy.SoilMismatchPenalty
		}
		if score != expected {
			t.Errorf("Score(%s) = %.2f, expected pure soil component %.2f", code, score, expected)
		}
	}
}

func TestSameCropPenaltyDecays(t *testing.T) {
	cat := testCatalog(t)
	policy := DefaultPolicy()
	scorer := NewScorer(policy, cat, zap.NewNop())
	f := clayField()
	wheat := mustGet(t, cat, "wheat")

	tests := []struct {
		name     string
		history  []field.SowingRecord
		expected float64
	}{
		{
			name: "same crop last season takes the full penalty",
			history: []field.SowingRecord{
				{FieldID: "f1", CropCode: "wheat", Year: 2025},
			},
			expected: policy.SoilMatchBonus - policy.SameCropPenalty,
		},
		{
			name: "one intervening season of a different category decays the penalty",
			history: []field.SowingRecord{
				{FieldID: "f1", CropCode: "wheat", Year: 2024},
				{FieldID: "f1", CropCode: "potato", Year: 2025},
			},
			expected: policy.SoilMatchBonus - policy.SameCropPenalty*policy.DecayFactor,
		},
		{
			name: "same category last season takes the category penalty",
			history: []field.SowingRecord{
				{FieldID: "f1", CropCode: "barley", Year: 2025},
			},
			expected: policy.SoilMatchBonus - policy.SameCategoryPenalty,
		},
		{
			name: "records beyond the window are ignored",
			history: []field.SowingRecord{
				{FieldID: "f1", CropCode: "wheat", Year: 2018},
				{FieldID: "f1", CropCode: "potato", Year: 2025},
			},
			expected: policy.SoilMatchBonus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score(f, tt.history, wheat)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if math.Abs(score-tt.expected) > 1e-9 {
				t.Errorf("Score() = %.4f, expected %.4f", score, tt.expected)
			}
		})
	}
}

func TestLegumeAfterCerealBonus(t *testing.T) {
	cat := testCatalog(t)
	policy := DefaultPolicy()
	scorer := NewScorer(policy, cat, zap.NewNop())
	f := clayField()
	peas := mustGet(t, cat, "peas")

	history := []field.SowingRecord{
		{FieldID: "f1", CropCode: "wheat", Year: 2025},
	}
	score, err := scorer.Score(f, history, peas)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	expected := policy.SoilMatchBonus + policy.LegumeAfterCerealBonus
	if math.Abs(score-expected) > 1e-9 {
		t.Errorf("Score() = %.4f, expected %.4f (soil bonus plus legume bonus)", score, expected)
	}

	// No bonus when the previous season was not a cereal.
	history[0].CropCode = "potato"
	score, err = scorer.Score(f, history, peas)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(score-policy.SoilMatchBonus) > 1e-9 {
		t.Errorf("Score() = %.4f, expected %.4f (no legume bonus after a root crop)", score, policy.SoilMatchBonus)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	cat := testCatalog(t)
	scorer := NewScorer(DefaultPolicy(), cat, zap.NewNop())
	f := clayField()
	wheat := mustGet(t, cat, "wheat")
	history := []field.SowingRecord{
		{FieldID: "f1", CropCode: "peas", Year: 2023},
		{FieldID: "f1", CropCode: "wheat", Year: 2024},
		{FieldID: "f1", CropCode: "barley", Year: 2025},
	}

	first, err := scorer.Score(f, history, wheat)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		score, err := scorer.Score(f, history, wheat)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if score != first {
			t.Fatalf("Score() = %.6f on repeat call, expected %.6f", score, first)
		}
	}
}

func TestScoreFailsFastOnUnknownHistoryCrop(t *testing.T) {
	cat := testCatalog(t)
	scorer := NewScorer(DefaultPolicy(), cat, zap.NewNop())
	f := clayField()
	wheat := mustGet(t, cat, "wheat")

	history := []field.SowingRecord{
		{FieldID: "f1", CropCode: "quinoa", Year: 2025},
	}
	_, err := scorer.Score(f, history, wheat)
	var unknown *catalog.UnknownCropError
	if !errors.As(err, &unknown) {
		t.Errorf("Score() error = %v, expected UnknownCropError", err)
	}
}
