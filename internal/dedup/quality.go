package dedup

import (
	"net/url"
	"strings"

	"horse.fit/dealsweep/internal/globaltime"
)

// Domain reputation tiers for keep/delete tie-breaks. Wire services carry
// the full article; paywalled domains usually truncate it.
var wireServiceDomains = map[string]struct{}{
	"prnewswire.com":    {},
	"businesswire.com":  {},
	"globenewswire.com": {},
	"accesswire.com":    {},
	"reuters.com":       {},
	"apnews.com":        {},
	"finance.yahoo.com": {},
}

var paywalledDomains = map[string]struct{}{
	"bloomberg.com": {},
	"wsj.com":       {},
	"ft.com":        {},
	"reorg.com":     {},
	"9fin.com":      {},
	"debtwire.com":  {},
	"lcdcomps.com":  {},
}

var newsroomHostPrefixes = []string{"press.", "ir.", "investors.", "newsroom.", "news."}

var richTextMarkers = []string{"**", "##", "<b>", "<p>", "<li>", "\n-", "•"}

const (
	qualityTitleLengthFloor   = 20
	qualitySummaryLengthFloor = 120
	qualityTitleBonus         = 2.0
	qualitySummaryBonus       = 3.0
	qualityRichTextBonus      = 1.0
	qualityEngagementWeight   = 0.1
	qualityRecencyCeiling     = 3.0
)

// QualityScore ranks one article's trustworthiness and completeness.
// Unbounded and non-negative; only the relative ordering matters.
func QualityScore(a Article) float64 {
	score := sourceReputation(a)

	if len(strings.TrimSpace(a.Title)) > qualityTitleLengthFloor {
		score += qualityTitleBonus
	}
	if len(strings.TrimSpace(a.Summary)) > qualitySummaryLengthFloor {
		score += qualitySummaryBonus
	}
	if hasRichTextMarkers(a.Summary) {
		score += qualityRichTextBonus
	}

	if a.EngagementScore > 0 {
		score += float64(a.EngagementScore) * qualityEngagementWeight
	}

	score += recencyBonus(a)

	return score
}

func sourceReputation(a Article) float64 {
	trimmedURL := strings.TrimSpace(a.SourceURL)
	if trimmedURL == "" {
		return sourceNameReputation(a.Source)
	}

	parsed, err := url.Parse(trimmedURL)
	if err != nil || parsed.Hostname() == "" {
		return sourceNameReputation(a.Source)
	}

	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	if _, ok := wireServiceDomains[host]; ok {
		return 10
	}
	for _, prefix := range newsroomHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return 8
		}
	}
	if _, ok := paywalledDomains[host]; ok {
		return 2
	}
	if parsed.Scheme == "https" {
		return 4
	}
	return 3
}

// sourceNameReputation mirrors the URL tiering for articles without a URL.
func sourceNameReputation(source string) float64 {
	name := strings.ToLower(strings.TrimSpace(source))
	if name == "" {
		return 0
	}
	switch {
	case strings.Contains(name, "newswire"),
		strings.Contains(name, "business wire"),
		strings.Contains(name, "reuters"),
		strings.Contains(name, "associated press"):
		return 9
	case strings.Contains(name, "bloomberg"),
		strings.Contains(name, "wall street journal"),
		strings.Contains(name, "financial times"),
		strings.Contains(name, "debtwire"):
		return 2
	default:
		return 3
	}
}

func hasRichTextMarkers(summary string) bool {
	for _, marker := range richTextMarkers {
		if strings.Contains(summary, marker) {
			return true
		}
	}
	return false
}

// recencyBonus decays from the ceiling toward zero as the article ages.
func recencyBonus(a Article) float64 {
	if a.CreatedAt.IsZero() {
		return 0
	}
	ageDays := globaltime.Since(a.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return qualityRecencyCeiling / (1 + ageDays/7)
}
