package source

import "fmt"

// Span is a half-open byte range [Start, End) in the unit identified by Unit.
// Start <= End always holds for spans produced by the toolchain.
type Span struct {
	Unit  ID
	Start int
	End   int
}

// NewSpan returns the span [start, end) in unit.
// If end is before start the span is collapsed to an empty span at start.
func NewSpan(unit ID, start, end int) Span {
	if end < start {
		end = start
	}
	return Span{Unit: unit, Start: start, End: end}
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty returns true if the span has zero length.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// ContainsOffset reports whether offset lies within [Start, End).
func (s Span) ContainsOffset(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Contains reports whether other lies entirely within s.
// Spans from different units never contain one another.
func (s Span) Contains(other Span) bool {
	if s.Unit != other.Unit {
		return false
	}
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether s and other share at least one byte.
func (s Span) Overlaps(other Span) bool {
	if s.Unit != other.Unit {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// Union returns the smallest span covering both s and other.
// Both spans must belong to the same unit; otherwise s is returned.
func (s Span) Union(other Span) Span {
	if s.Unit != other.Unit {
		return s
	}
	return Span{Unit: s.Unit, Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// String formats the span as unit:[start,end).
func (s Span) String() string {
	return fmt.Sprintf("%s:[%d,%d)", s.Unit, s.Start, s.End)
}
