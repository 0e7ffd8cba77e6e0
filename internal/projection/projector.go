// Package projection computes year-by-year profit projections for one crop
// on one field and runs them under perturbed price/yield scenarios.
package projection

import (
	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/field"
	"github.com/uldisg/cropwise/pkg/constants"
	"github.com/uldisg/cropwise/pkg/mathutil"
	"go.uber.org/zap"
)

// Assumption is a pluggable function of year offset returning an assumed
// price (EUR/t) or yield (t/ha) for that year.
type Assumption func(yearOffset int) float64

// Flat holds a value constant across the projection horizon. It is the
// explicit default when no trend is supplied.
func Flat(v float64) Assumption {
	return func(int) float64 { return v }
}

// Scaled multiplies an assumption by a constant factor.
func Scaled(base Assumption, factor float64) Assumption {
	return func(year int) float64 { return base(year) * factor }
}

// Row is one projected year.
type Row struct {
	YearOffset int     `json:"yearOffset"`
	PriceEurT  float64 `json:"priceEurT"`
	YieldTHa   float64 `json:"yieldTHa"`
	Revenue    float64 `json:"revenue"`
	Cost       float64 `json:"cost"`
	Net        float64 `json:"net"`
}

// Projector computes profit projections. Input costs grow by a configurable
// year-over-year inflation rate; rent stays flat.
type Projector struct {
	inflationRate float64
	logger        *zap.Logger
}

// NewProjector creates a projector with the given yearly cost inflation
// rate. If logger is nil, it will use a no-op logger to prevent panics.
func NewProjector(inflationRate float64, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{inflationRate: inflationRate, logger: logger}
}

// Project returns one row per year across the horizon, year offsets
// 0..horizonYears-1. A non-positive horizon falls back to the default of
// three years. Nil assumptions default to holding the crop's catalog price
// and the field-soil yield flat; callers that resolved a live price pass
// Flat(quote.PriceEurT) instead.
func (p *Projector) Project(crop catalog.Crop, f field.Field, horizonYears int, price, yield Assumption) ([]Row, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if horizonYears <= 0 {
		horizonYears = constants.DefaultHorizonYears
	}
	if price == nil {
		price = Flat(crop.PriceEurT)
	}
	if yield == nil {
		y, _ := crop.YieldFor(f.Soil)
		yield = Flat(y)
	}

	rows := make([]Row, 0, horizonYears)
	for year := 0; year < horizonYears; year++ {
		assumedPrice := price(year)
		assumedYield := yield(year)
		revenue := mathutil.Round(f.AreaHa * assumedYield * assumedPrice)
		cost := mathutil.Round(f.AreaHa * (crop.CostEurHa*mathutil.Compound(p.inflationRate, year) + f.RentEurHa))
		rows = append(rows, Row{
			YearOffset: year,
			PriceEurT:  assumedPrice,
			YieldTHa:   assumedYield,
			Revenue:    revenue,
			Cost:       cost,
			Net:        mathutil.Round(revenue - cost),
		})
	}

	p.logger.Debug("projection computed",
		zap.String("op", "projection.Project"),
		zap.String("field", f.ID),
		zap.String("crop", crop.Code),
		zap.Int("horizonYears", horizonYears),
	)
	return rows, nil
}
