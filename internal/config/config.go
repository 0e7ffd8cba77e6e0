// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/uldisg/cropwise/internal/planner"
	"github.com/uldisg/cropwise/internal/projection"
	"github.com/uldisg/cropwise/internal/rotation"
	"github.com/uldisg/cropwise/pkg/constants"
)

// Configuration holds all configuration for cropwise.
type Configuration struct {
	Catalog    CatalogConfig    `yaml:"catalog,omitempty"`
	MarketFeed MarketFeedConfig `yaml:"marketFeed,omitempty"`
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Ranking    RankingConfig    `yaml:"ranking,omitempty"`
	Rotation   RotationConfig   `yaml:"rotation,omitempty"`
	Projection ProjectionConfig `yaml:"projection,omitempty"`
	Scenarios  []ScenarioConfig `yaml:"scenarios,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
}

// CatalogConfig locates the crop catalog and local price table files.
type CatalogConfig struct {
	CropsFile       string `yaml:"cropsFile,omitempty"`
	LocalPricesFile string `yaml:"localPricesFile,omitempty"`
}

// MarketFeedConfig configures the external market price feed. An empty URL
// disables the market tier entirely.
type MarketFeedConfig struct {
	URL            string `yaml:"url,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// StorageConfig configures the embedded persistence store.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RankingConfig holds the recommendation ranking weights.
type RankingConfig struct {
	SuitabilityWeight float64 `yaml:"suitabilityWeight,omitempty"`
	ProfitWeight      float64 `yaml:"profitWeight,omitempty"`
}

// RotationConfig holds the rotation scoring policy parameters.
type RotationConfig struct {
	Window                 int     `yaml:"window,omitempty"`
	SoilMatchBonus         float64 `yaml:"soilMatchBonus,omitempty"`
	SoilMismatchPenalty    float64 `yaml:"soilMismatchPenalty,omitempty"`
	SameCropPenalty        float64 `yaml:"sameCropPenalty,omitempty"`
	SameCategoryPenalty    float64 `yaml:"sameCategoryPenalty,omitempty"`
	DecayFactor            float64 `yaml:"decayFactor,omitempty"`
	LegumeAfterCerealBonus float64 `yaml:"legumeAfterCerealBonus,omitempty"`
}

// ProjectionConfig holds the profit projection defaults.
type ProjectionConfig struct {
	HorizonYears      int     `yaml:"horizonYears,omitempty"`
	CostInflationRate float64 `yaml:"costInflationRate,omitempty"`
}

// ScenarioConfig declares one named scenario.
type ScenarioConfig struct {
	Name            string  `yaml:"name"`
	PriceMultiplier float64 `yaml:"priceMultiplier"`
	YieldMultiplier float64 `yaml:"yieldMultiplier"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset values with the documented defaults.
func (c *Configuration) ApplyDefaults() {
	if c.Catalog.CropsFile == "" {
		c.Catalog.CropsFile = constants.DefaultCropsFile
	}
	if c.Catalog.LocalPricesFile == "" {
		c.Catalog.LocalPricesFile = constants.DefaultLocalPricesFile
	}
	if c.MarketFeed.TimeoutSeconds <= 0 {
		c.MarketFeed.TimeoutSeconds = constants.DefaultMarketFeedTimeoutSeconds
	}
	if c.Storage.Path == "" {
		c.Storage.Path = constants.DefaultStoragePath
	}
	if c.Ranking.SuitabilityWeight == 0 && c.Ranking.ProfitWeight == 0 {
		c.Ranking.SuitabilityWeight = constants.DefaultSuitabilityWeight
		c.Ranking.ProfitWeight = constants.DefaultProfitWeight
	}
	if c.Projection.HorizonYears <= 0 {
		c.Projection.HorizonYears = constants.DefaultHorizonYears
	}
	if c.Projection.CostInflationRate == 0 {
		c.Projection.CostInflationRate = constants.DefaultCostInflationRate
	}
	if c.Server.Address == "" {
		c.Server.Address = constants.DefaultServerAddress
	}
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	if c.Ranking.SuitabilityWeight < 0 || c.Ranking.ProfitWeight < 0 {
		warnings = append(warnings, fmt.Sprintf("ranking weights should not be negative (suitability=%.2f, profit=%.2f)",
			c.Ranking.SuitabilityWeight, c.Ranking.ProfitWeight))
	}
	if c.Rotation.DecayFactor < 0 || c.Rotation.DecayFactor > 1 {
		warnings = append(warnings, fmt.Sprintf("rotation decay factor %.2f outside (0, 1], default will be used", c.Rotation.DecayFactor))
	}
	if c.Projection.CostInflationRate < -1 {
		warnings = append(warnings, fmt.Sprintf("cost inflation rate %.2f below -100%%", c.Projection.CostInflationRate))
	}
	if c.MarketFeed.URL == "" {
		warnings = append(warnings, "no market feed URL configured; prices will resolve from local, proxy, and catalog tiers only")
	}
	for _, sc := range c.Scenarios {
		if err := sc.ToScenario().Validate(); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}

// ToScenario converts the config declaration into a projection scenario.
func (sc ScenarioConfig) ToScenario() projection.Scenario {
	return projection.Scenario{
		Name:            sc.Name,
		PriceMultiplier: sc.PriceMultiplier,
		YieldMultiplier: sc.YieldMultiplier,
	}
}

// ScenarioSet returns the configured scenarios, or the default trio when the
// configuration declares none.
func (c *Configuration) ScenarioSet() []projection.Scenario {
	if len(c.Scenarios) == 0 {
		return projection.DefaultScenarios()
	}
	scenarios := make([]projection.Scenario, 0, len(c.Scenarios))
	for _, sc := range c.Scenarios {
		scenarios = append(scenarios, sc.ToScenario())
	}
	return scenarios
}

// RotationPolicy converts the rotation section into a scoring policy,
// filling unset values with defaults.
func (c *Configuration) RotationPolicy() rotation.Policy {
	policy := rotation.DefaultPolicy()
	if c.Rotation.Window > 0 {
		policy.Window = c.Rotation.Window
	}
	if c.Rotation.SoilMatchBonus != 0 {
		policy.SoilMatchBonus = c.Rotation.SoilMatchBonus
	}
	if c.Rotation.SoilMismatchPenalty != 0 {
		policy.SoilMismatchPenalty = c.Rotation.SoilMismatchPenalty
	}
	if c.Rotation.SameCropPenalty != 0 {
		policy.SameCropPenalty = c.Rotation.SameCropPenalty
	}
	if c.Rotation.SameCategoryPenalty != 0 {
		policy.SameCategoryPenalty = c.Rotation.SameCategoryPenalty
	}
	if c.Rotation.DecayFactor > 0 && c.Rotation.DecayFactor <= 1 {
		policy.DecayFactor = c.Rotation.DecayFactor
	}
	if c.Rotation.LegumeAfterCerealBonus != 0 {
		policy.LegumeAfterCerealBonus = c.Rotation.LegumeAfterCerealBonus
	}
	return policy
}

// RankingWeights converts the ranking section into planner weights.
func (c *Configuration) RankingWeights() planner.Weights {
	return planner.Weights{
		Suitability: c.Ranking.SuitabilityWeight,
		Profit:      c.Ranking.ProfitWeight,
	}
}
