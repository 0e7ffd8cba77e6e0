// Package constants provides shared constants for the cropwise application.
package constants

// Currency is the currency unit for all prices and profits.
const Currency = "EUR"

// Numeric constants
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance used when comparing currency values
	CurrencyTolerance = 0.005
)

// Projection defaults
const (
	// DefaultHorizonYears is the number of years a profit projection covers
	// when the caller does not specify a horizon.
	DefaultHorizonYears = 3

	// DefaultCostInflationRate is the year-over-year input cost inflation
	// applied by the profit projector.
	DefaultCostInflationRate = 0.02
)

// Ranking defaults
const (
	// DefaultSuitabilityWeight weights the rotation/soil suitability score
	// in the recommendation ranking key.
	DefaultSuitabilityWeight = 1.0

	// DefaultProfitWeight weights the estimated first-year profit per
	// hectare in the recommendation ranking key.
	DefaultProfitWeight = 0.1
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultCropsFile is the default crop catalog file
	DefaultCropsFile = "data/crops.yaml"

	// DefaultLocalPricesFile is the default local price table file
	DefaultLocalPricesFile = "data/local_prices.yaml"

	// DefaultStoragePath is the default embedded database location
	DefaultStoragePath = "cropwise.db"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMarketFeedTimeoutSeconds bounds a single market feed lookup
	DefaultMarketFeedTimeoutSeconds = 5
)
