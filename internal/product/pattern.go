package product

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/geodex/geodex/internal/model"
)

// PatternProduct implements Product from a filename regular expression
// with named capture groups. Recognized groups are year, month, day,
// doy (day of year), hour, minute, and second; missing components
// default to the earliest value. The coverage of a file is
// [timestamp, timestamp + granule duration).
type PatternProduct struct {
	name        string
	level       string
	version     string
	re          *regexp.Regexp
	duration    time.Duration
	destination string
}

// Definition is the declarative form of a pattern product, typically
// loaded from products.yaml.
type Definition struct {
	Name            string `yaml:"name" validate:"required"`
	Level           string `yaml:"level"`
	Version         string `yaml:"version"`
	Pattern         string `yaml:"pattern" validate:"required"`
	GranuleDuration string `yaml:"granule_duration" validate:"required"`
	Destination     string `yaml:"destination"`
}

// NewPatternProduct compiles a definition into a product.
func NewPatternProduct(def Definition) (*PatternProduct, error) {
	re, err := regexp.Compile(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("product %q: invalid pattern: %w", def.Name, err)
	}
	hasYear := false
	for _, name := range re.SubexpNames() {
		if name == "year" {
			hasYear = true
		}
	}
	if !hasYear {
		return nil, fmt.Errorf("product %q: pattern lacks a 'year' capture group", def.Name)
	}
	duration, err := time.ParseDuration(def.GranuleDuration)
	if err != nil {
		return nil, fmt.Errorf("product %q: invalid granule duration: %w", def.Name, err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("product %q: granule duration must be positive", def.Name)
	}
	destination := def.Destination
	if destination == "" {
		destination = def.Name
	}
	return &PatternProduct{
		name:        def.Name,
		level:       def.Level,
		version:     def.Version,
		re:          re,
		duration:    duration,
		destination: destination,
	}, nil
}

func (p *PatternProduct) Name() string    { return p.name }
func (p *PatternProduct) Level() string   { return p.level }
func (p *PatternProduct) Version() string { return p.version }

// Destination returns the sub-path under the data directory where files
// of this product are stored.
func (p *PatternProduct) Destination() string { return p.destination }

// Matches reports whether a filename (or path) belongs to this product.
func (p *PatternProduct) Matches(filename string) bool {
	return p.re.MatchString(path.Base(filename))
}

// GranuleDuration returns the nominal length of one file's coverage.
func (p *PatternProduct) GranuleDuration() time.Duration { return p.duration }

// TimeCoverage derives the file's nominal coverage from the timestamp
// encoded in its name.
func (p *PatternProduct) TimeCoverage(filename string) (model.TimeRange, error) {
	base := path.Base(filename)
	match := p.re.FindStringSubmatch(base)
	if match == nil {
		return model.NoTimeInfo, fmt.Errorf("filename %q does not match product %q", base, p.name)
	}

	parts := map[string]int{}
	for i, name := range p.re.SubexpNames() {
		if name == "" || i >= len(match) || match[i] == "" {
			continue
		}
		v, err := strconv.Atoi(match[i])
		if err != nil {
			return model.NoTimeInfo, fmt.Errorf("filename %q: group %q is not numeric", base, name)
		}
		parts[name] = v
	}

	year, ok := parts["year"]
	if !ok {
		return model.NoTimeInfo, fmt.Errorf("filename %q: no year captured", base)
	}

	var start time.Time
	if doy, ok := parts["doy"]; ok {
		start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	} else {
		month := orDefault(parts, "month", 1)
		day := orDefault(parts, "day", 1)
		start = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
	start = start.Add(
		time.Duration(orDefault(parts, "hour", 0))*time.Hour +
			time.Duration(orDefault(parts, "minute", 0))*time.Minute +
			time.Duration(orDefault(parts, "second", 0))*time.Second)

	return model.NewTimeRange(start, start.Add(p.duration)), nil
}

func orDefault(parts map[string]int, name string, def int) int {
	if v, ok := parts[name]; ok {
		return v
	}
	return def
}
