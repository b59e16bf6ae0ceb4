package product

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterDefinitions(reg, Builtins()))
	return reg
}

func TestCloudSatFilename(t *testing.T) {
	reg := builtinRegistry(t)
	p, ok := reg.Get("cloudsat_2b_cldclass")
	require.True(t, ok)

	const filename = "2020027050921_73239_CS_2B-CLDCLASS_GRANULE_P_R05_E02.hdf"
	assert.True(t, p.Matches(filename))
	assert.False(t, p.Matches("GRIDSAT-B1.2020.01.27.06.v02r01.nc"))

	tr, err := p.TimeCoverage(filename)
	require.NoError(t, err)
	// Day 027 of 2020 is January 27.
	assert.Equal(t, time.Date(2020, 1, 27, 5, 9, 21, 0, time.UTC), tr.Start)
	assert.Equal(t, 99*time.Minute, tr.Duration())

	// Paths are reduced to their base name first.
	full := filepath.Join("/data/cloudsat/2b-cldclass", filename)
	assert.True(t, p.Matches(full))
	tr2, err := p.TimeCoverage(full)
	require.NoError(t, err)
	assert.True(t, tr.Equal(tr2))
}

func TestGridsatFilename(t *testing.T) {
	reg := builtinRegistry(t)
	p, ok := reg.Get("gridsat_b1")
	require.True(t, ok)

	tr, err := p.TimeCoverage("GRIDSAT-B1.1998.03.14.15.v02r01.nc")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1998, 3, 14, 15, 0, 0, 0, time.UTC), tr.Start)
	assert.Equal(t, 3*time.Hour, tr.Duration())

	_, err = p.TimeCoverage("not-a-product-file.nc")
	assert.Error(t, err)
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()
	p, err := NewPatternProduct(Builtins()[0])
	require.NoError(t, err)

	require.NoError(t, reg.Register(p))
	assert.Error(t, reg.Register(p), "duplicate names must be rejected")

	reg.Freeze()
	other, err := NewPatternProduct(Builtins()[1])
	require.NoError(t, err)
	assert.Error(t, reg.Register(other), "registration after freeze must fail")

	got, ok := reg.Get(p.Name())
	assert.True(t, ok)
	assert.Equal(t, p.Name(), got.Name())
}

func TestDefinitionValidation(t *testing.T) {
	_, err := NewPatternProduct(Definition{
		Name:            "broken",
		Pattern:         `^file_(?P<month>\d{2})\.nc$`,
		GranuleDuration: "1h",
	})
	assert.Error(t, err, "pattern without a year group must be rejected")

	_, err = NewPatternProduct(Definition{
		Name:            "broken",
		Pattern:         `^file_(?P<year>\d{4})\.nc$`,
		GranuleDuration: "zero",
	})
	assert.Error(t, err)
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.yaml")
	content := `products:
  - name: station_sonde
    level: l2
    pattern: '^sonde_(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})(?P<hour>\d{2})\.bfr$'
    granule_duration: 12h
    destination: stations/sonde
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	reg := NewRegistry()
	require.NoError(t, RegisterDefinitions(reg, defs))
	p, ok := reg.Get("station_sonde")
	require.True(t, ok)
	assert.True(t, p.Matches("sonde_2021060112.bfr"))
	assert.Equal(t, "stations/sonde", p.Destination())

	_, err = LoadDefinitions(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
