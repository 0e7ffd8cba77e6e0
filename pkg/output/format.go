// Package output provides utilities for formatting and displaying
// recommendations, projections, and scenario analyses.
package output

import (
	"fmt"
	"sort"

	"github.com/uldisg/cropwise/internal/planner"
	"github.com/uldisg/cropwise/internal/projection"
	"github.com/uldisg/cropwise/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyRecommendations outputs a human-readable recommendation table.
func PrettyRecommendations(fieldName string, result planner.Result) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Recommendations for field %s ---\n", fieldName)
	fmt.Printf("Crop            | Score   | Price (EUR/t) | Tier    | Profit (EUR/ha)\n")
	fmt.Printf("____            | _____   | _____________ | ____    | _______________\n")
	for _, rec := range result.Recommendations {
		_, _ = p.Printf("%-15s | %7.2f | %13.2f | %-7s | %15s\n",
			rec.CropCode, rec.Suitability, rec.Quote.PriceEurT, rec.Quote.Tier, format.NumericCurrency(rec.ProfitPerHa))
		for _, note := range rec.Notes {
			fmt.Printf("                  note: %s\n", note)
		}
	}
	codes := make([]string, 0, len(result.Skipped))
	for code := range result.Skipped {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("skipped %s: %s\n", code, result.Skipped[code])
	}
}

// CsvRecommendations outputs recommendations in comma-separated value format.
func CsvRecommendations(result planner.Result) {
	fmt.Printf(`"crop","suitability","price_eur_t","tier","yield_t_ha","revenue_per_ha","cost_per_ha","profit_per_ha","ranking_key"` + "\n")
	for _, rec := range result.Recommendations {
		fmt.Printf(`"%s","%.2f","%.2f","%s","%.2f","%.2f","%.2f","%.2f","%.2f"`+"\n",
			rec.CropCode, rec.Suitability, rec.Quote.PriceEurT, rec.Quote.Tier,
			rec.YieldTHa, rec.RevenuePerHa, rec.CostPerHa, rec.ProfitPerHa, rec.RankingKey)
	}
}

// PrettyProjection outputs a human-readable year-by-year projection.
func PrettyProjection(cropCode string, rows []projection.Row) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Projection for %s ---\n", cropCode)
	fmt.Printf("Year | Price (EUR/t) | Yield (t/ha) | Revenue    | Cost       | Net\n")
	fmt.Printf("____ | _____________ | ____________ | _______    | ____       | ___\n")
	totalNet := 0.0
	for _, row := range rows {
		_, _ = p.Printf("%4d | %13.2f | %12.2f | %10s | %10s | %s\n",
			row.YearOffset, row.PriceEurT, row.YieldTHa,
			format.NumericCurrency(row.Revenue), format.NumericCurrency(row.Cost), format.NumericCurrency(row.Net))
		totalNet += row.Net
	}
	fmt.Printf("Total net over %d year(s): %s\n", len(rows), format.Currency(totalNet))
}

// PrettyScenarios outputs a comparative scenario table, scenario names in
// alphabetical order.
func PrettyScenarios(cropCode string, scenarios map[string][]projection.Row) {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		PrettyProjection(fmt.Sprintf("%s (scenario %s)", cropCode, name), scenarios[name])
		if i < len(names)-1 {
			fmt.Printf("\n")
		}
	}
}

// CsvScenarios outputs all scenario projections in comma-separated value
// format, one row per scenario-year.
func CsvScenarios(scenarios map[string][]projection.Row) {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf(`"scenario","year_offset","price_eur_t","yield_t_ha","revenue","cost","net"` + "\n")
	for _, name := range names {
		for _, row := range scenarios[name] {
			fmt.Printf(`"%s","%d","%.2f","%.2f","%.2f","%.2f","%.2f"`+"\n",
				name, row.YearOffset, row.PriceEurT, row.YieldTHa, row.Revenue, row.Cost, row.Net)
		}
	}
}
