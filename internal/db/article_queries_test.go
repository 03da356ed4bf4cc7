package db

import (
	"strings"
	"testing"
)

func TestNormalizeSourceFilterFoldsCase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Bloomberg", "bloomberg"},
		{"  PR Newswire  ", "pr newswire"},
		{"reuters", "reuters"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := normalizeSourceFilter(tc.in); got != tc.want {
			t.Fatalf("normalizeSourceFilter(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestArticleListQueryFoldsSourceColumn(t *testing.T) {
	t.Parallel()

	// Sources are stored verbatim, so a mixed-case value like "Bloomberg"
	// only matches if the column is folded the same way as the parameter.
	if !strings.Contains(articleListQuery, "LOWER(a.source) = $3") {
		t.Fatalf("source filter must compare folded values:\n%s", articleListQuery)
	}
}
