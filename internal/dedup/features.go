package dedup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type EntityStrategy string

const (
	// EntityVocabulary matches against a fixed list of known sponsor names.
	EntityVocabulary EntityStrategy = "vocabulary"
	// EntityHeuristic detects capitalized multi-word phrases in the title.
	EntityHeuristic EntityStrategy = "heuristic"
)

// FeatureSet holds the comparable signals extracted from one article.
// Derived, never persisted.
type FeatureSet struct {
	ArticleID  int64
	TitleWords map[string]struct{}
	Amounts    []float64
	Entities   map[string]struct{}
	Keywords   map[string]struct{}
}

const minSignificantWordLen = 4

// transactionKeywords is the deal vocabulary shared titles are checked
// against. Lowercase, token-level matches only.
var transactionKeywords = map[string]struct{}{
	"acquisition": {}, "acquires": {}, "acquire": {}, "bond": {}, "bonds": {},
	"buyout": {}, "close": {}, "closed": {}, "closes": {}, "closing": {},
	"credit": {}, "debt": {}, "divestiture": {}, "equity": {}, "facility": {},
	"financing": {}, "fund": {}, "funding": {}, "funds": {}, "investment": {},
	"ipo": {}, "lending": {}, "loan": {}, "merger": {}, "notes": {},
	"offering": {}, "placement": {}, "raise": {}, "raises": {}, "raised": {},
	"rating": {}, "recapitalization": {}, "refinancing": {}, "round": {},
	"sale": {}, "stake": {}, "term": {},
}

// knownSponsors backs the vocabulary entity strategy. Names are matched as
// whole-token phrases against the normalized title+summary.
var knownSponsors = []string{
	"antares", "apollo", "ares", "audax", "bain capital", "barings",
	"blackrock", "blackstone", "blue owl", "brookfield", "carlyle",
	"cerberus", "churchill", "crescent capital", "fortress", "golub",
	"goldman sachs", "hps", "jpmorgan", "kkr", "monroe capital",
	"morgan stanley", "oaktree", "owl rock", "sixth street", "thoma bravo",
	"tpg", "vista equity",
}

var (
	symbolicAmountRe = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)\s*(billion|million|thousand|bn|mm|[kmb])?`)
	writtenAmountRe  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s+(billion|million|thousand)\b`)
)

// Extractor derives FeatureSets from articles. Pure and deterministic;
// callers pick the entity strategy that matches their corpus.
type Extractor struct {
	strategy EntityStrategy
}

func NewExtractor(strategy EntityStrategy) *Extractor {
	if strategy != EntityHeuristic {
		strategy = EntityVocabulary
	}
	return &Extractor{strategy: strategy}
}

func (e *Extractor) Extract(a Article) FeatureSet {
	body := a.Title + " " + a.Summary

	return FeatureSet{
		ArticleID:  a.ID,
		TitleWords: significantWordSet(a.Title),
		Amounts:    parseAmounts(body),
		Entities:   e.extractEntities(a),
		Keywords:   extractKeywords(body),
	}
}

func (e *Extractor) extractEntities(a Article) map[string]struct{} {
	if e.strategy == EntityHeuristic {
		return capitalizedPhrases(a.Title)
	}
	return vocabularyEntities(a.Title + " " + a.Summary)
}

func vocabularyEntities(text string) map[string]struct{} {
	normalized := " " + strings.Join(tokenize(text), " ") + " "
	entities := map[string]struct{}{}
	for _, name := range knownSponsors {
		if strings.Contains(normalized, " "+name+" ") {
			entities[name] = struct{}{}
		}
	}
	return entities
}

// capitalizedPhrases collects runs of two or more capitalized words, plus
// single words with an interior capital ("TechCorp").
func capitalizedPhrases(title string) map[string]struct{} {
	words := strings.Fields(title)
	entities := map[string]struct{}{}

	var run []string
	flush := func() {
		if len(run) >= 2 {
			entities[strings.ToLower(strings.Join(run, " "))] = struct{}{}
		}
		run = nil
	}

	for _, word := range words {
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if cleaned == "" {
			flush()
			continue
		}
		runes := []rune(cleaned)
		if len(runes) >= 2 && unicode.IsUpper(runes[0]) {
			run = append(run, cleaned)
			if hasInteriorUpper(runes) {
				entities[strings.ToLower(cleaned)] = struct{}{}
			}
			continue
		}
		flush()
	}
	flush()

	return entities
}

func hasInteriorUpper(runes []rune) bool {
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func extractKeywords(text string) map[string]struct{} {
	keywords := map[string]struct{}{}
	for _, token := range tokenize(text) {
		if _, ok := transactionKeywords[token]; ok {
			keywords[token] = struct{}{}
		}
	}
	return keywords
}

// parseAmounts pulls monetary amounts out of text and normalizes symbolic
// ($500M) and written (500 million) forms to the same numeric scale so
// cross-form comparisons succeed.
func parseAmounts(text string) []float64 {
	seen := map[float64]struct{}{}

	for _, m := range symbolicAmountRe.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		seen[value*unitMultiplier(m[2])] = struct{}{}
	}
	for _, m := range writtenAmountRe.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		seen[value*unitMultiplier(m[2])] = struct{}{}
	}

	amounts := make([]float64, 0, len(seen))
	for value := range seen {
		amounts = append(amounts, value)
	}
	return amounts
}

func unitMultiplier(unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "k", "thousand":
		return 1e3
	case "m", "mm", "million":
		return 1e6
	case "b", "bn", "billion":
		return 1e9
	default:
		return 1
	}
}

func significantWordSet(text string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, token := range tokenize(text) {
		if len(token) >= minSignificantWordLen {
			words[token] = struct{}{}
		}
	}
	return words
}

func normalizeText(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

func tokenize(text string) []string {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}
