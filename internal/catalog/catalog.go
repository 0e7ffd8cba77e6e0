// Package catalog defines the immutable crop reference data and its loading
// and validation. The catalog is loaded once at process start and passed into
// every engine component as a read-only snapshot.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SoilType enumerates the supported field soil types.
type SoilType string

const (
	SoilSand SoilType = "sand"
	SoilClay SoilType = "clay"
	SoilPeat SoilType = "peat"
	SoilWet  SoilType = "wet"
)

// ParseSoilType converts a string into a SoilType.
func ParseSoilType(s string) (SoilType, error) {
	switch SoilType(s) {
	case SoilSand, SoilClay, SoilPeat, SoilWet:
		return SoilType(s), nil
	}
	return "", fmt.Errorf("invalid soil type %q (expected sand, clay, peat, or wet)", s)
}

// Category enumerates crop categories used by rotation rules.
type Category string

const (
	CategoryCereal    Category = "cereal"
	CategoryLegume    Category = "legume"
	CategoryOilseed   Category = "oilseed"
	CategoryRoot      Category = "root"
	CategoryForage    Category = "forage"
	CategoryVegetable Category = "vegetable"
	CategoryCover     Category = "cover"
)

// PHRange is the optimal soil pH interval for a crop.
type PHRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Crop is one immutable catalog entry.
type Crop struct {
	Code            string               `yaml:"code"`
	Name            string               `yaml:"name"`
	Category        Category             `yaml:"category"`
	PriceEurT       float64              `yaml:"priceEurT"`
	YieldTHa        float64              `yaml:"yieldTHa"`
	CostEurHa       float64              `yaml:"costEurHa"`
	ProxyGroup      string               `yaml:"proxyGroup,omitempty"`
	CompatibleSoils []SoilType           `yaml:"compatibleSoils"`
	YieldBySoil     map[SoilType]float64 `yaml:"yieldBySoil,omitempty"`
	SowMonths       []int                `yaml:"sowMonths,omitempty"`
	PHRange         *PHRange             `yaml:"phRange,omitempty"`
}

// SoilCompatible reports whether the crop declares the given soil type.
func (c Crop) SoilCompatible(soil SoilType) bool {
	for _, s := range c.CompatibleSoils {
		if s == soil {
			return true
		}
	}
	return false
}

// YieldFor returns the expected yield in t/ha for the given soil type. When
// the crop declares a per-soil yield table but the soil is not listed, the
// mean of the declared values is used and fallback is reported as true.
func (c Crop) YieldFor(soil SoilType) (yield float64, fallback bool) {
	if len(c.YieldBySoil) == 0 {
		return c.YieldTHa, false
	}
	if y, ok := c.YieldBySoil[soil]; ok {
		return y, false
	}
	sum := 0.0
	for _, y := range c.YieldBySoil {
		sum += y
	}
	return sum / float64(len(c.YieldBySoil)), true
}

// UnknownCropError indicates a crop code absent from the catalog.
type UnknownCropError struct {
	Code string
}

func (e *UnknownCropError) Error() string {
	return fmt.Sprintf("unknown crop code %q: not present in the catalog", e.Code)
}

// Catalog is an immutable snapshot of the crop reference data.
type Catalog struct {
	crops map[string]Crop
	codes []string
}

// New builds a Catalog from the given entries, validating every entry.
// Validation failures abort startup rather than surfacing mid-computation.
func New(crops []Crop) (*Catalog, error) {
	c := &Catalog{crops: make(map[string]Crop, len(crops))}
	for i, crop := range crops {
		if crop.Code == "" {
			return nil, fmt.Errorf("catalog entry %d: missing crop code", i)
		}
		if _, dup := c.crops[crop.Code]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate crop code", crop.Code)
		}
		if err := validateCrop(crop); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", crop.Code, err)
		}
		c.crops[crop.Code] = crop
		c.codes = append(c.codes, crop.Code)
	}
	if len(c.crops) == 0 {
		return nil, fmt.Errorf("catalog contains no crops")
	}
	// Proxy groups must point at existing crops so the price resolver stays total.
	for _, crop := range c.crops {
		if crop.ProxyGroup == "" {
			continue
		}
		if _, ok := c.crops[crop.ProxyGroup]; !ok {
			return nil, fmt.Errorf("catalog entry %q: proxy group %q not present in catalog", crop.Code, crop.ProxyGroup)
		}
	}
	sort.Strings(c.codes)
	return c, nil
}

func validateCrop(crop Crop) error {
	if crop.Name == "" {
		return fmt.Errorf("missing display name")
	}
	switch crop.Category {
	case CategoryCereal, CategoryLegume, CategoryOilseed, CategoryRoot, CategoryForage, CategoryVegetable, CategoryCover:
	default:
		return fmt.Errorf("invalid category %q", crop.Category)
	}
	if crop.PriceEurT <= 0 {
		return fmt.Errorf("default price must be positive, got %.2f", crop.PriceEurT)
	}
	if crop.YieldTHa <= 0 {
		return fmt.Errorf("default yield must be positive, got %.2f", crop.YieldTHa)
	}
	if crop.CostEurHa <= 0 {
		return fmt.Errorf("input cost must be positive, got %.2f", crop.CostEurHa)
	}
	if len(crop.CompatibleSoils) == 0 {
		return fmt.Errorf("at least one compatible soil type is required")
	}
	for _, s := range crop.CompatibleSoils {
		if _, err := ParseSoilType(string(s)); err != nil {
			return err
		}
	}
	for s, y := range crop.YieldBySoil {
		if _, err := ParseSoilType(string(s)); err != nil {
			return err
		}
		if y <= 0 {
			return fmt.Errorf("per-soil yield for %s must be positive, got %.2f", s, y)
		}
	}
	for _, m := range crop.SowMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("sow month %d out of range 1-12", m)
		}
	}
	if crop.PHRange != nil && crop.PHRange.Min > crop.PHRange.Max {
		return fmt.Errorf("pH range min %.1f exceeds max %.1f", crop.PHRange.Min, crop.PHRange.Max)
	}
	return nil
}

// Load reads and validates a YAML crop catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file, %s", err)
	}
	var doc struct {
		Crops []Crop `yaml:"crops"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode catalog file %s, %s", path, err)
	}
	return New(doc.Crops)
}

// Get returns the crop for the given code or an UnknownCropError.
func (c *Catalog) Get(code string) (Crop, error) {
	crop, ok := c.crops[code]
	if !ok {
		return Crop{}, &UnknownCropError{Code: code}
	}
	return crop, nil
}

// Has reports whether the catalog contains the given crop code.
func (c *Catalog) Has(code string) bool {
	_, ok := c.crops[code]
	return ok
}

// Codes returns all crop codes in ascending order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len returns the number of crops in the catalog.
func (c *Catalog) Len() int {
	return len(c.crops)
}
