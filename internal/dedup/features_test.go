package dedup

import (
	"math"
	"testing"
)

func TestExtractNormalizesAmountForms(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityVocabulary)

	cases := []struct {
		name  string
		title string
		want  float64
	}{
		{name: "symbolic short unit", title: "Firm closes $500M facility", want: 500e6},
		{name: "symbolic long unit", title: "Firm closes $500 Million facility", want: 500e6},
		{name: "written form", title: "Firm raises 500 million in new round", want: 500e6},
		{name: "billions short", title: "Deal valued at $1.2B", want: 1.2e9},
		{name: "billions written", title: "Deal valued at 1.2 billion", want: 1.2e9},
		{name: "thousands", title: "Grant of $750K announced", want: 750e3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := extractor.Extract(Article{ID: 1, Title: tc.title})
			if len(fs.Amounts) != 1 {
				t.Fatalf("expected one amount, got %v", fs.Amounts)
			}
			if math.Abs(fs.Amounts[0]-tc.want) > tc.want*1e-9 {
				t.Fatalf("amount = %g, want %g", fs.Amounts[0], tc.want)
			}
		})
	}
}

func TestExtractDeduplicatesEquivalentAmounts(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityVocabulary)
	fs := extractor.Extract(Article{
		ID:      1,
		Title:   "Apollo closes $500M fund",
		Summary: "Apollo has closed a 500 million fund.",
	})
	if len(fs.Amounts) != 1 {
		t.Fatalf("expected symbolic and written forms to collapse, got %v", fs.Amounts)
	}
}

func TestSignificantWordsFilterShortTokens(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityVocabulary)
	fs := extractor.Extract(Article{ID: 1, Title: "Big firm to buy the Acme unit"})

	for _, short := range []string{"big", "to", "buy", "the"} {
		if _, ok := fs.TitleWords[short]; ok {
			t.Fatalf("short token %q should not be significant", short)
		}
	}
	for _, long := range []string{"firm", "acme", "unit"} {
		if _, ok := fs.TitleWords[long]; !ok {
			t.Fatalf("token %q missing from significant words %v", long, fs.TitleWords)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityVocabulary)
	fs := extractor.Extract(Article{
		ID:    1,
		Title: "Lender closes credit facility to support acquisition",
	})

	for _, kw := range []string{"closes", "credit", "facility", "acquisition"} {
		if _, ok := fs.Keywords[kw]; !ok {
			t.Fatalf("keyword %q missing from %v", kw, fs.Keywords)
		}
	}
	if _, ok := fs.Keywords["support"]; ok {
		t.Fatalf("non-deal word leaked into keywords: %v", fs.Keywords)
	}
}

func TestVocabularyEntityStrategy(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityVocabulary)

	fs := extractor.Extract(Article{
		ID:      1,
		Title:   "Apollo provides unitranche for software deal",
		Summary: "Bain Capital also participated.",
	})
	if _, ok := fs.Entities["apollo"]; !ok {
		t.Fatalf("expected apollo entity, got %v", fs.Entities)
	}
	if _, ok := fs.Entities["bain capital"]; !ok {
		t.Fatalf("expected multi-word sponsor match, got %v", fs.Entities)
	}

	// Substring of a longer token must not match.
	fs = extractor.Extract(Article{ID: 2, Title: "Apollonia Ventures raises seed round"})
	if _, ok := fs.Entities["apollo"]; ok {
		t.Fatalf("partial token should not match a sponsor: %v", fs.Entities)
	}
}

func TestHeuristicEntityStrategy(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityHeuristic)
	fs := extractor.Extract(Article{
		ID:    1,
		Title: "Riverbend Capital buys TechCorp for undisclosed sum",
	})

	if _, ok := fs.Entities["riverbend capital"]; !ok {
		t.Fatalf("expected capitalized run entity, got %v", fs.Entities)
	}
	if _, ok := fs.Entities["techcorp"]; !ok {
		t.Fatalf("expected interior-capital entity, got %v", fs.Entities)
	}
	if _, ok := fs.Entities["undisclosed sum"]; ok {
		t.Fatalf("lowercase words should not form entities: %v", fs.Entities)
	}
}

func TestNewExtractorDefaultsToVocabulary(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(EntityStrategy("bogus"))
	fs := extractor.Extract(Article{ID: 1, Title: "Blackstone closes fund"})
	if _, ok := fs.Entities["blackstone"]; !ok {
		t.Fatalf("unknown strategy should fall back to vocabulary, got %v", fs.Entities)
	}
}
