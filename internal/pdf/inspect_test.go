package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pensign/pensign/internal/testutil"
)

func TestInspectCountsPages(t *testing.T) {
	tests := []struct {
		name  string
		pages int
	}{
		{name: "single_page", pages: 1},
		{name: "three_pages", pages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(testutil.BuildPDF(t, tt.pages))
			require.NoError(t, err)
			assert.Equal(t, tt.pages, info.Pages)
		})
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect([]byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{name: "collapses_runs", in: "a  b\n\tc", limit: 100, want: "a b c"},
		{name: "truncates", in: "hello world", limit: 5, want: "hello"},
		{name: "empty", in: "   ", limit: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collapseWhitespace(tt.in, tt.limit))
		})
	}
}
