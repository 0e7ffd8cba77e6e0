// Package field defines the field and sowing history data structures the
// engine consumes. Fields are owned and mutated through the persistence
// store; the engine only reads them.
package field

import (
	"fmt"
	"sort"

	"github.com/uldisg/cropwise/internal/catalog"
)

// Field is one farmed field owned by a single user.
type Field struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"ownerId"`
	Name      string           `json:"name"`
	AreaHa    float64          `json:"areaHa"`
	Soil      catalog.SoilType `json:"soil"`
	RentEurHa float64          `json:"rentEurHa"`
	PH        *float64         `json:"ph,omitempty"`
}

// InvalidFieldStateError indicates a field snapshot that cannot be priced or
// scored; downstream numeric results would be meaningless.
type InvalidFieldStateError struct {
	FieldID string
	Reason  string
}

func (e *InvalidFieldStateError) Error() string {
	return fmt.Sprintf("invalid field state for field %q: %s", e.FieldID, e.Reason)
}

// Validate fails fast before any pricing or scoring work happens.
func (f Field) Validate() error {
	if f.AreaHa <= 0 {
		return &InvalidFieldStateError{FieldID: f.ID, Reason: fmt.Sprintf("area must be strictly positive, got %.2f ha", f.AreaHa)}
	}
	if f.Soil == "" {
		return &InvalidFieldStateError{FieldID: f.ID, Reason: "soil type is missing"}
	}
	if _, err := catalog.ParseSoilType(string(f.Soil)); err != nil {
		return &InvalidFieldStateError{FieldID: f.ID, Reason: err.Error()}
	}
	if f.RentEurHa < 0 {
		return &InvalidFieldStateError{FieldID: f.ID, Reason: fmt.Sprintf("rent must not be negative, got %.2f EUR/ha", f.RentEurHa)}
	}
	return nil
}

// SowingRecord is one season of a field's rotation history.
type SowingRecord struct {
	ID        string   `json:"id"`
	FieldID   string   `json:"fieldId"`
	CropCode  string   `json:"cropCode"`
	Year      int      `json:"year"`
	YieldTHa  *float64 `json:"yieldTHa,omitempty"`
	ProfitEur *float64 `json:"profitEur,omitempty"`
}

// SortHistory orders sowing records by year, most recent last. The order is
// stable for records sharing a year.
func SortHistory(history []SowingRecord) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Year < history[j].Year
	})
}
