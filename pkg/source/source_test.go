package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/source"
)

func TestBuildLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected []source.LineInfo
	}{
		{
			name: "empty text",
			text: "",
			expected: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 0, EndOffset: 0},
			},
		},
		{
			name: "single line no newline",
			text: "let a = 1",
			expected: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 9, EndOffset: 9},
			},
		},
		{
			name: "LF lines",
			text: "a\nbc\n",
			expected: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 1, EndOffset: 2},
				{StartOffset: 2, NewlineStart: 4, EndOffset: 5},
				{StartOffset: 5, NewlineStart: 5, EndOffset: 5},
			},
		},
		{
			name: "CRLF lines",
			text: "a\r\nb",
			expected: []source.LineInfo{
				{StartOffset: 0, NewlineStart: 1, EndOffset: 3},
				{StartOffset: 3, NewlineStart: 4, EndOffset: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, source.BuildLines(tt.text))
		})
	}
}

func TestUnitPositionRoundTrip(t *testing.T) {
	t.Parallel()

	unit := source.NewUnit("/a.teth", "let a = 1\nlet b = a\n")

	tests := []struct {
		name   string
		offset int
		want   source.Position
	}{
		{name: "start", offset: 0, want: source.Position{Line: 1, Column: 1}},
		{name: "newline of first line", offset: 9, want: source.Position{Line: 1, Column: 10}},
		{name: "second line", offset: 14, want: source.Position{Line: 2, Column: 5}},
		{name: "end of text", offset: 20, want: source.Position{Line: 3, Column: 1}},
		{name: "negative", offset: -1, want: source.Position{}},
		{name: "past end", offset: 21, want: source.Position{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pos := unit.Position(tt.offset)
			assert.Equal(t, tt.want, pos)

			if pos.IsValid() {
				offset, ok := unit.Offset(pos)
				require.True(t, ok)
				assert.Equal(t, tt.offset, offset)
			}
		})
	}
}

func TestUnitOffsetOutOfRange(t *testing.T) {
	t.Parallel()

	unit := source.NewUnit("/a.teth", "ab\ncd")

	_, ok := unit.Offset(source.Position{Line: 3, Column: 1})
	assert.False(t, ok)

	_, ok = unit.Offset(source.Position{Line: 1, Column: 5})
	assert.False(t, ok)

	assert.Equal(t, "cd", unit.LineText(2))
	assert.Empty(t, unit.LineText(3))
}

func TestSpanContains(t *testing.T) {
	t.Parallel()

	outer := source.NewSpan("/a.teth", 0, 10)

	assert.True(t, outer.Contains(source.NewSpan("/a.teth", 2, 10)))
	assert.False(t, outer.Contains(source.NewSpan("/a.teth", 2, 11)))
	assert.False(t, outer.Contains(source.NewSpan("/b.teth", 2, 3)), "spans of different units are never related")
	assert.True(t, outer.Overlaps(source.NewSpan("/a.teth", 9, 12)))
	assert.False(t, outer.Overlaps(source.NewSpan("/a.teth", 10, 12)))
}

func TestNewSpanCollapsesInvertedRange(t *testing.T) {
	t.Parallel()

	span := source.NewSpan("/a.teth", 5, 3)
	assert.Equal(t, 5, span.Start)
	assert.Equal(t, 5, span.End)
	assert.True(t, span.IsEmpty())
}

func TestUnitSlice(t *testing.T) {
	t.Parallel()

	unit := source.NewUnit("/dir/main.teth", "use b: value")

	assert.Equal(t, "value", unit.Slice(source.NewSpan("/dir/main.teth", 7, 12)))
	assert.Empty(t, unit.Slice(source.NewSpan("/dir/other.teth", 7, 12)))
	assert.Equal(t, "main", unit.ID().ModuleName())
	assert.Equal(t, "/dir", unit.ID().Dir())
}

func TestSortProblems(t *testing.T) {
	t.Parallel()

	problems := []source.Problem{
		source.NewProblem(source.NewSpan("/b.teth", 0, 1), "b"),
		source.NewProblem(source.NewSpan("/a.teth", 5, 6), "late"),
		source.NewProblem(source.NewSpan("/a.teth", 1, 2), "early"),
	}

	source.SortProblems(problems)

	assert.Equal(t, "early", problems[0].Message)
	assert.Equal(t, "late", problems[1].Message)
	assert.Equal(t, "b", problems[2].Message)
	assert.True(t, source.HasErrors(problems))
}
