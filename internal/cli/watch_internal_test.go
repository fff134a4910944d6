package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchIgnores(t *testing.T) {
	t.Parallel()

	got := watchIgnores([]string{"vendor", "*.gen.teth", "build/**", "**/gen", "tmp"})
	assert.Equal(t, []string{"vendor", "*.gen.teth", "tmp"}, got)
	assert.Nil(t, watchIgnores(nil))
}

func TestParsePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantLine int
		wantCol  int
		wantErr  bool
	}{
		{in: "3:9", wantLine: 3, wantCol: 9},
		{in: "1:1", wantLine: 1, wantCol: 1},
		{in: "3", wantErr: true},
		{in: "a:1", wantErr: true},
		{in: "1:b", wantErr: true},
		{in: "0:4", wantErr: true},
		{in: "2:0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			pos, err := parsePosition(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantLine, pos.Line)
			assert.Equal(t, tt.wantCol, pos.Column)
		})
	}
}
