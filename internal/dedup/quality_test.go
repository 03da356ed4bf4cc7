package dedup

import (
	"testing"
	"time"

	"horse.fit/dealsweep/internal/globaltime"
)

func TestQualityScoreSourceTiers(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	base := Article{Title: "short"}

	cases := []struct {
		name string
		url  string
		want float64
	}{
		{name: "wire service", url: "https://www.prnewswire.com/news/release", want: 10},
		{name: "newsroom subdomain", url: "https://press.acme.com/story", want: 8},
		{name: "investor relations", url: "https://ir.acme.com/story", want: 8},
		{name: "paywalled", url: "https://www.bloomberg.com/news/article", want: 2},
		{name: "generic https", url: "https://example.com/story", want: 4},
		{name: "generic http", url: "http://example.com/story", want: 3},
	}
	for _, tc := range cases {
		a := base
		a.SourceURL = tc.url
		if got := QualityScore(a); got != tc.want {
			t.Fatalf("%s: score = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestQualityScoreSourceNameFallback(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	cases := []struct {
		source string
		want   float64
	}{
		{source: "Reuters News Service", want: 9},
		{source: "PR Newswire", want: 9},
		{source: "Bloomberg Terminal", want: 2},
		{source: "Some Local Blog", want: 3},
		{source: "", want: 0},
	}
	for _, tc := range cases {
		a := Article{Title: "short", Source: tc.source}
		if got := QualityScore(a); got != tc.want {
			t.Fatalf("source %q: score = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestQualityScoreContentBonuses(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	plain := Article{Title: "short"}
	titled := Article{Title: "A headline comfortably over twenty characters"}
	if QualityScore(titled)-QualityScore(plain) != qualityTitleBonus {
		t.Fatal("long title should add the title bonus")
	}

	longSummary := titled
	longSummary.Summary = "A detailed recap of the transaction including parties, structure, pricing, tenor, and the use of proceeds, long enough to exceed the floor."
	if QualityScore(longSummary)-QualityScore(titled) != qualitySummaryBonus {
		t.Fatal("long summary should add the summary bonus")
	}

	rich := titled
	rich.Summary = "**Deal terms** follow"
	if QualityScore(rich)-QualityScore(titled) != qualityRichTextBonus {
		t.Fatal("rich-text markers should add the formatting bonus")
	}
}

func TestQualityScoreEngagementMonotonic(t *testing.T) {
	globaltime.SetMockTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	defer globaltime.ResetTime()

	low := Article{Title: "short", EngagementScore: 10}
	high := Article{Title: "short", EngagementScore: 100}
	if QualityScore(high) <= QualityScore(low) {
		t.Fatal("higher engagement must not lower the score")
	}
	if diff := QualityScore(high) - QualityScore(low); diff < 8.99 || diff > 9.01 {
		t.Fatalf("engagement delta = %v, want ~9", diff)
	}
}

func TestQualityScoreRecencyDecay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	fresh := Article{Title: "short", CreatedAt: now}
	week := Article{Title: "short", CreatedAt: now.AddDate(0, 0, -7)}
	month := Article{Title: "short", CreatedAt: now.AddDate(0, 0, -28)}

	if QualityScore(fresh) != qualityRecencyCeiling {
		t.Fatalf("fresh article recency = %v, want %v", QualityScore(fresh), qualityRecencyCeiling)
	}
	if QualityScore(week) != qualityRecencyCeiling/2 {
		t.Fatalf("week-old recency = %v, want half ceiling", QualityScore(week))
	}
	if QualityScore(week) <= QualityScore(month) {
		t.Fatal("recency bonus must decay with age")
	}

	zero := Article{Title: "short"}
	if QualityScore(zero) != 0 {
		t.Fatalf("zero CreatedAt should add no recency bonus, got %v", QualityScore(zero))
	}
}
