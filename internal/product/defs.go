package product

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionsFile is the on-disk shape of products.yaml.
type definitionsFile struct {
	Products []Definition `yaml:"products"`
}

// LoadDefinitions reads product definitions from a YAML file.
func LoadDefinitions(path string) ([]Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product definitions: %w", err)
	}
	var file definitionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse product definitions: %w", err)
	}
	return file.Products, nil
}

// RegisterDefinitions compiles and registers definitions into a registry.
func RegisterDefinitions(reg *Registry, defs []Definition) error {
	for _, def := range defs {
		p, err := NewPatternProduct(def)
		if err != nil {
			return err
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Builtins returns the product definitions shipped with geodex. They
// cover a satellite swath product, a gridded satellite composite, and a
// reanalysis product; site-specific products come from products.yaml.
func Builtins() []Definition {
	return []Definition{
		{
			Name:    "cloudsat_2b_cldclass",
			Level:   "2b",
			Version: "r05",
			Pattern: `^(?P<year>\d{4})(?P<doy>\d{3})(?P<hour>\d{2})(?P<minute>\d{2})` +
				`(?P<second>\d{2})_\d+_CS_2B-CLDCLASS_GRANULE_P_R05_E\d+\.hdf$`,
			GranuleDuration: "99m",
			Destination:     "cloudsat/2b-cldclass",
		},
		{
			Name:    "gridsat_b1",
			Level:   "b1",
			Version: "v02r01",
			Pattern: `^GRIDSAT-B1\.(?P<year>\d{4})\.(?P<month>\d{2})\.(?P<day>\d{2})\.` +
				`(?P<hour>\d{2})\.v02r01\.nc$`,
			GranuleDuration: "3h",
			Destination:     "ncei/gridsat-b1",
		},
		{
			Name:    "era5_single_levels",
			Level:   "surface",
			Version: "5",
			Pattern: `^era5_single_levels_(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})` +
				`(?P<hour>\d{2})\.nc$`,
			GranuleDuration: "1h",
			Destination:     "era5/single-levels",
		},
	}
}
