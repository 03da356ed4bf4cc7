package reader

import "testing"

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	t.Parallel()

	input := "  First   paragraph \n\n Second\tparagraph \r\n\r\nThird line "
	got := CleanText(input)
	want := "First paragraph\n\nSecond paragraph\n\nThird line"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	input := "abcdefghijklmnopqrstuvwxyz"

	got := Summarize(input, 10)
	if got != "abcdefghi…" {
		t.Fatalf("unexpected clipped text: %q", got)
	}

	if full := Summarize("short", 10); full != "short" {
		t.Fatalf("unexpected short text: %q", full)
	}

	if blank := Summarize("   ", 10); blank != "" {
		t.Fatalf("expected empty result for blank input, got %q", blank)
	}
}
