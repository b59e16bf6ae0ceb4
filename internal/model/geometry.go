package model

import (
	"fmt"
	"strconv"
	"strings"
)

// LatLonBox is a latitude/longitude bounding box used as a granule's
// spatial footprint. The zero value means "no spatial information".
// Longitudes are degrees east in [-180, 180]; boxes crossing the
// antimeridian are not supported.
type LatLonBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// IsZero reports whether the box carries no spatial information.
func (b LatLonBox) IsZero() bool {
	return b == LatLonBox{}
}

// Contains reports whether a point lies within the box.
func (b LatLonBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Intersects reports whether the two boxes share any area. A zero box
// intersects nothing.
func (b LatLonBox) Intersects(other LatLonBox) bool {
	if b.IsZero() || other.IsZero() {
		return false
	}
	return b.LatMin <= other.LatMax && other.LatMin <= b.LatMax &&
		b.LonMin <= other.LonMax && other.LonMin <= b.LonMax
}

// Merge returns the smallest box covering both. Merging with a zero box
// returns the other box unchanged.
func (b LatLonBox) Merge(other LatLonBox) LatLonBox {
	if b.IsZero() {
		return other
	}
	if other.IsZero() {
		return b
	}
	out := b
	if other.LatMin < out.LatMin {
		out.LatMin = other.LatMin
	}
	if other.LatMax > out.LatMax {
		out.LatMax = other.LatMax
	}
	if other.LonMin < out.LonMin {
		out.LonMin = other.LonMin
	}
	if other.LonMax > out.LonMax {
		out.LonMax = other.LonMax
	}
	return out
}

func (b LatLonBox) String() string {
	return fmt.Sprintf("[%.2f..%.2f]N x [%.2f..%.2f]E", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}

// ParseLatLonBox parses "latmin,lonmin,latmax,lonmax" in degrees.
func ParseLatLonBox(s string) (LatLonBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return LatLonBox{}, fmt.Errorf("region %q: want latmin,lonmin,latmax,lonmax", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return LatLonBox{}, fmt.Errorf("region %q: bad coordinate %q", s, part)
		}
		vals[i] = v
	}
	box := LatLonBox{LatMin: vals[0], LonMin: vals[1], LatMax: vals[2], LonMax: vals[3]}
	if box.LatMin > box.LatMax || box.LonMin > box.LonMax {
		return LatLonBox{}, fmt.Errorf("region %q: bounds out of order", s)
	}
	if box.LatMin < -90 || box.LatMax > 90 || box.LonMin < -180 || box.LonMax > 180 {
		return LatLonBox{}, fmt.Errorf("region %q: coordinates out of range", s)
	}
	return box, nil
}
