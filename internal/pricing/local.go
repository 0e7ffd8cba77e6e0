package pricing

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalPrice is one entry of the curated local price table, maintained
// independently of the external feed for crops with no public market series.
type LocalPrice struct {
	PriceEurT     float64   `yaml:"priceEurT"`
	EffectiveDate time.Time `yaml:"effectiveDate"`
}

// LocalTable maps crop codes to curated local prices. It is loaded as a
// read-only snapshot.
type LocalTable map[string]LocalPrice

// LoadLocalTable reads a YAML local price table. A missing file is not an
// error; it yields an empty table and the resolver falls through to the
// remaining tiers.
func LoadLocalTable(path string) (LocalTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LocalTable{}, nil
		}
		return nil, fmt.Errorf("error reading local price table, %s", err)
	}
	var doc struct {
		Prices map[string]LocalPrice `yaml:"prices"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode local price table %s, %s", path, err)
	}
	table := LocalTable{}
	for code, entry := range doc.Prices {
		if entry.PriceEurT < 0 {
			return nil, fmt.Errorf("local price for %q must not be negative, got %.2f", code, entry.PriceEurT)
		}
		table[code] = entry
	}
	return table, nil
}
