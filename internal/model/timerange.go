// Package model defines the core domain types for geodex: time ranges,
// spatial footprints, file records, and granules. All types in this
// package are plain values with no I/O.
package model

import (
	"fmt"
	"time"
)

// ErrIncompatibleRanges is returned when two disjoint, non-adjacent time
// ranges are merged. This indicates a logic bug at the call site.
var ErrIncompatibleRanges = fmt.Errorf("time ranges are disjoint and not adjacent")

// TimeRange is a half-open interval [Start, End) of instants.
// The zero value (NoTimeInfo) means "no time information".
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NoTimeInfo is the distinguished "no time information" range.
var NoTimeInfo = TimeRange{}

// NewTimeRange builds a range from two instants. Bounds are swapped if
// given in reverse order so that Start <= End always holds.
func NewTimeRange(start, end time.Time) TimeRange {
	if end.Before(start) {
		start, end = end, start
	}
	return TimeRange{Start: start, End: end}
}

// InstantRange builds the single-instant range [t, t).
func InstantRange(t time.Time) TimeRange {
	return TimeRange{Start: t, End: t}
}

// IsZero reports whether the range carries no time information.
func (tr TimeRange) IsZero() bool {
	return tr.Start.IsZero() && tr.End.IsZero()
}

// IsInstant reports whether the range is zero-length.
func (tr TimeRange) IsInstant() bool {
	return tr.Start.Equal(tr.End)
}

// Duration returns End - Start.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Center returns the midpoint of the range.
func (tr TimeRange) Center() time.Time {
	return tr.Start.Add(tr.Duration() / 2)
}

// Equal reports exact bound equality.
func (tr TimeRange) Equal(other TimeRange) bool {
	return tr.Start.Equal(other.Start) && tr.End.Equal(other.End)
}

// Contains reports whether an instant lies within the range. A
// zero-length range contains exactly its own instant.
func (tr TimeRange) Contains(t time.Time) bool {
	if tr.IsInstant() {
		return t.Equal(tr.Start)
	}
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// Covers reports whether other lies entirely within the range.
func (tr TimeRange) Covers(other TimeRange) bool {
	return !other.Start.Before(tr.Start) && !other.End.After(tr.End)
}

// Overlaps reports whether the two half-open ranges share any instant.
// Two ranges touching at a single instant overlap only if both are
// zero-length and equal.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	if tr.IsInstant() && other.IsInstant() {
		return tr.Start.Equal(other.Start)
	}
	if tr.IsInstant() {
		return other.Contains(tr.Start)
	}
	if other.IsInstant() {
		return tr.Contains(other.Start)
	}
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Adjacent reports whether the ranges touch end-to-start without
// overlapping.
func (tr TimeRange) Adjacent(other TimeRange) bool {
	if tr.Overlaps(other) {
		return false
	}
	return tr.End.Equal(other.Start) || other.End.Equal(tr.Start)
}

// Intersect returns the common sub-range. ok is false when the ranges do
// not overlap.
func (tr TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	if !tr.Overlaps(other) {
		return NoTimeInfo, false
	}
	start := tr.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := tr.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimeRange{Start: start, End: end}, true
}

// Merge returns the union of two overlapping or adjacent ranges.
// Returns ErrIncompatibleRanges when they are neither.
func (tr TimeRange) Merge(other TimeRange) (TimeRange, error) {
	if !tr.Overlaps(other) && !tr.Adjacent(other) {
		return NoTimeInfo, fmt.Errorf("merge %s with %s: %w", tr, other, ErrIncompatibleRanges)
	}
	start := tr.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := tr.End
	if other.End.After(end) {
		end = other.End
	}
	return TimeRange{Start: start, End: end}, nil
}

// Distance returns the gap between the two ranges, zero when they
// overlap or touch.
func (tr TimeRange) Distance(other TimeRange) time.Duration {
	if tr.Overlaps(other) {
		return 0
	}
	if !tr.End.After(other.Start) {
		return other.Start.Sub(tr.End)
	}
	return tr.Start.Sub(other.End)
}

// Expand grows the range by d on both sides.
func (tr TimeRange) Expand(d time.Duration) TimeRange {
	return TimeRange{Start: tr.Start.Add(-d), End: tr.End.Add(d)}
}

func (tr TimeRange) String() string {
	if tr.IsZero() {
		return "[no time info]"
	}
	return fmt.Sprintf("[%s, %s)",
		tr.Start.UTC().Format(time.RFC3339),
		tr.End.UTC().Format(time.RFC3339))
}

// instantLayouts are tried in order when parsing user-supplied instants.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant parses an instant in one of the accepted layouts, in UTC.
func ParseInstant(s string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse %q as an instant", s)
}

// ParseTimeRange parses a range from two instant strings.
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseInstant(start)
	if err != nil {
		return NoTimeInfo, err
	}
	e, err := ParseInstant(end)
	if err != nil {
		return NoTimeInfo, err
	}
	return NewTimeRange(s, e), nil
}
