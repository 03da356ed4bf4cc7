package langdetect

import "testing"

func TestPrimarySubtag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{raw: "en", want: "en"},
		{raw: "EN", want: "en"},
		{raw: "en-US", want: "en"},
		{raw: "en_GB", want: "en"},
		{raw: "  pt-BR  ", want: "pt"},
		{raw: "", want: ""},
		{raw: "   ", want: ""},
		{raw: "e1", want: ""},
		{raw: "en US", want: ""},
	}
	for _, tc := range cases {
		if got := PrimarySubtag(tc.raw); got != tc.want {
			t.Fatalf("PrimarySubtag(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
