package source

import "sort"

// LineInfo describes one line of a unit.
type LineInfo struct {
	// StartOffset is the byte index of the first character of the line.
	StartOffset int

	// NewlineStart is the byte index of the line terminator ("\n" or "\r\n"),
	// or the end of the text for the last line.
	NewlineStart int

	// EndOffset is the byte index just past the line terminator.
	EndOffset int
}

// BuildLines constructs the line table for text.
// Both LF and CRLF line endings are recognized.
func BuildLines(text string) []LineInfo {
	lines := make([]LineInfo, 0, 16)
	lineStart := 0

	for idx := range len(text) {
		if text[idx] != '\n' {
			continue
		}

		newlineStart := idx
		if idx > 0 && text[idx-1] == '\r' {
			newlineStart = idx - 1
		}

		lines = append(lines, LineInfo{
			StartOffset:  lineStart,
			NewlineStart: newlineStart,
			EndOffset:    idx + 1,
		})
		lineStart = idx + 1
	}

	// The last line has no terminator and may be empty.
	lines = append(lines, LineInfo{
		StartOffset:  lineStart,
		NewlineStart: len(text),
		EndOffset:    len(text),
	})

	return lines
}

// Position is a 1-based line and column. Columns count bytes.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether both components are positive.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Position converts a byte offset to a 1-based line and column.
// Returns the zero Position if the offset is out of range.
func (u *Unit) Position(offset int) Position {
	if offset < 0 || offset > len(u.text) {
		return Position{}
	}

	lineIdx := sort.Search(len(u.lines), func(i int) bool {
		return u.lines[i].EndOffset > offset
	})
	if lineIdx >= len(u.lines) {
		lineIdx = len(u.lines) - 1
	}

	line := u.lines[lineIdx]
	if offset < line.StartOffset {
		return Position{}
	}

	return Position{Line: lineIdx + 1, Column: offset - line.StartOffset + 1}
}

// Offset converts a 1-based line and column to a byte offset.
// The column may point one past the last character of the line.
func (u *Unit) Offset(pos Position) (int, bool) {
	if pos.Line < 1 || pos.Line > len(u.lines) || pos.Column < 1 {
		return 0, false
	}

	line := u.lines[pos.Line-1]
	offset := line.StartOffset + pos.Column - 1
	if offset > line.NewlineStart {
		return 0, false
	}

	return offset, true
}

// LineText returns the text of a 1-based line without its terminator.
func (u *Unit) LineText(line int) string {
	if line < 1 || line > len(u.lines) {
		return ""
	}

	info := u.lines[line-1]
	return u.text[info.StartOffset:info.NewlineStart]
}
