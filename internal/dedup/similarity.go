package dedup

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DuplicateThreshold is the minimum similarity score for a pair to count as
// a duplicate judgment.
const DuplicateThreshold = 0.70

type Tier string

const (
	TierHigh       Tier = "high"
	TierMediumHigh Tier = "medium-high"
	TierMedium     Tier = "medium"
	TierNone       Tier = "none"
)

func TierForScore(score float64) Tier {
	switch {
	case score >= 0.90:
		return TierHigh
	case score >= 0.80:
		return TierMediumHigh
	case score >= DuplicateThreshold:
		return TierMedium
	default:
		return TierNone
	}
}

// tierRank orders tiers for threshold comparisons. Higher is stronger.
func tierRank(t Tier) int {
	switch t {
	case TierHigh:
		return 3
	case TierMediumHigh:
		return 2
	case TierMedium:
		return 1
	default:
		return 0
	}
}

// PairJudgment records the duplicate decision for one article pair.
type PairJudgment struct {
	LeftID            int64
	RightID           int64
	Score             float64
	Tier              Tier
	Reason            string
	SemanticChecked   bool
	SemanticRationale string
}

func (j PairJudgment) IsDuplicate() bool {
	return j.Score >= DuplicateThreshold
}

// Scorer turns two feature sets into a pair judgment. Both observed
// heuristics live behind this interface; run configuration picks one.
type Scorer interface {
	Score(a, b FeatureSet, titleA, titleB string) PairJudgment
}

// NewScorer maps a configured strategy name to a Scorer.
func NewScorer(strategy string) Scorer {
	if strings.EqualFold(strings.TrimSpace(strategy), "overlap") {
		return OverlapScorer{}
	}
	return TieredScorer{}
}

// TieredScorer is the multi-signal heuristic: entity, amount, and deal
// keyword matches dominate, with title overlap as a weaker fallback.
// Rules are checked in priority order; the first hit wins.
type TieredScorer struct{}

func (TieredScorer) Score(a, b FeatureSet, titleA, titleB string) PairJudgment {
	judgment := PairJudgment{LeftID: a.ArticleID, RightID: b.ArticleID}

	if canonicalTitle(titleA) == canonicalTitle(titleB) && canonicalTitle(titleA) != "" {
		judgment.Score = 0.95
		judgment.Reason = "identical normalized titles"
		judgment.Tier = TierForScore(judgment.Score)
		return judgment
	}

	sameEntity, entity := sharedEntity(a.Entities, b.Entities)
	sameAmount, amount := sharedAmount(a.Amounts, b.Amounts)
	keywords := sharedKeywords(a.Keywords, b.Keywords)
	overlap := titleOverlapRatio(a.TitleWords, b.TitleWords)

	switch {
	case sameEntity && sameAmount && len(keywords) >= 2:
		judgment.Score = 0.95
		judgment.Reason = fmt.Sprintf("same entity (%s), same amount (%s), shared keywords {%s}",
			entity, formatAmount(amount), strings.Join(keywords, ", "))
	case sameEntity && sameAmount && len(keywords) >= 1:
		judgment.Score = 0.90
		judgment.Reason = fmt.Sprintf("same entity (%s), same amount (%s), shared keyword {%s}",
			entity, formatAmount(amount), strings.Join(keywords, ", "))
	case sameEntity && len(keywords) >= 2 && overlap > 0.4:
		judgment.Score = 0.80
		judgment.Reason = fmt.Sprintf("same entity (%s), shared keywords {%s}, title overlap %.2f",
			entity, strings.Join(keywords, ", "), overlap)
	case overlap > 0.6 && len(keywords) >= 2:
		judgment.Score = 0.75
		judgment.Reason = fmt.Sprintf("title overlap %.2f, shared keywords {%s}",
			overlap, strings.Join(keywords, ", "))
	case overlap > 0.5 && sameAmount:
		judgment.Score = 0.70
		judgment.Reason = fmt.Sprintf("title overlap %.2f, same amount (%s)",
			overlap, formatAmount(amount))
	default:
		judgment.Score = 0
		judgment.Reason = "no matching signals"
	}

	judgment.Tier = TierForScore(judgment.Score)
	return judgment
}

// OverlapScorer is the simpler legacy heuristic: a single significant-word
// overlap ratio with no entity or amount weighting.
type OverlapScorer struct{}

func (OverlapScorer) Score(a, b FeatureSet, titleA, titleB string) PairJudgment {
	judgment := PairJudgment{LeftID: a.ArticleID, RightID: b.ArticleID}

	overlap := titleOverlapRatio(a.TitleWords, b.TitleWords)
	if overlap >= DuplicateThreshold {
		judgment.Score = overlap
		judgment.Reason = fmt.Sprintf("title word overlap %.2f", overlap)
	} else {
		judgment.Score = 0
		judgment.Reason = fmt.Sprintf("title word overlap %.2f below threshold", overlap)
	}

	judgment.Tier = TierForScore(judgment.Score)
	return judgment
}

func canonicalTitle(title string) string {
	return strings.Join(tokenize(title), " ")
}

// titleOverlapRatio = |shared significant words| / max(|wordsA|, |wordsB|).
func titleOverlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for word := range a {
		if _, ok := b[word]; ok {
			shared++
		}
	}

	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

func sharedEntity(a, b map[string]struct{}) (bool, string) {
	for entity := range a {
		if _, ok := b[entity]; ok {
			return true, entity
		}
	}
	return false, ""
}

// sharedAmount compares normalized amounts with a small relative tolerance
// so that $1.2B and "1.2 billion" land on the same value.
func sharedAmount(a, b []float64) (bool, float64) {
	for _, left := range a {
		for _, right := range b {
			if amountsEqual(left, right) {
				return true, left
			}
		}
	}
	return false, 0
}

func amountsEqual(left, right float64) bool {
	larger := math.Max(math.Abs(left), math.Abs(right))
	if larger == 0 {
		return left == right
	}
	return math.Abs(left-right)/larger < 1e-6
}

func sharedKeywords(a, b map[string]struct{}) []string {
	var shared []string
	for keyword := range a {
		if _, ok := b[keyword]; ok {
			shared = append(shared, keyword)
		}
	}
	sort.Strings(shared)
	return shared
}

func formatAmount(amount float64) string {
	switch {
	case amount >= 1e9:
		return fmt.Sprintf("$%.4gB", amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("$%.4gM", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("$%.4gK", amount/1e3)
	default:
		return fmt.Sprintf("$%.4g", amount)
	}
}
