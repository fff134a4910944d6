// Package source defines source units, spans, and problems shared by the
// toolchain, the tree builder, and the analysis cache.
package source

import (
	"path"
	"strings"
)

// Extension is the file extension of teth source files.
const Extension = ".teth"

// ID is the unique, path-like identity of a source unit.
// IDs are absolute, slash-separated, and independent of the host OS.
type ID string

// String returns the ID as a plain string.
func (id ID) String() string {
	return string(id)
}

// Dir returns the directory portion of the ID.
func (id ID) Dir() string {
	return path.Dir(string(id))
}

// ModuleName returns the base name of the ID without the teth extension.
func (id ID) ModuleName() string {
	return strings.TrimSuffix(path.Base(string(id)), Extension)
}

// Unit is an immutable source text together with its identity.
// A content change produces a new Unit; an existing Unit never changes.
type Unit struct {
	id    ID
	text  string
	lines []LineInfo
}

// NewUnit creates a unit with the given identity and text.
func NewUnit(id ID, text string) *Unit {
	return &Unit{
		id:    id,
		text:  text,
		lines: BuildLines(text),
	}
}

// ID returns the unit's identity.
func (u *Unit) ID() ID {
	return u.id
}

// Text returns the full source text.
func (u *Unit) Text() string {
	return u.text
}

// Len returns the length of the text in bytes.
func (u *Unit) Len() int {
	return len(u.text)
}

// Slice returns the text covered by span, or "" if the span is out of range
// or belongs to another unit.
func (u *Unit) Slice(span Span) string {
	if span.Unit != u.id || span.Start < 0 || span.End > len(u.text) || span.Start > span.End {
		return ""
	}
	return u.text[span.Start:span.End]
}

// Span returns the span covering the whole unit.
func (u *Unit) Span() Span {
	return Span{Unit: u.id, Start: 0, End: len(u.text)}
}

// LineCount returns the number of lines in the unit.
func (u *Unit) LineCount() int {
	return len(u.lines)
}

// Lines returns the line table. The returned slice must not be modified.
func (u *Unit) Lines() []LineInfo {
	return u.lines
}
