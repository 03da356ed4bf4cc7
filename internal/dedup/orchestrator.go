package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"horse.fit/dealsweep/internal/globaltime"
)

type Mode string

const (
	ModePreview Mode = "preview"
	ModeApply   Mode = "apply"
)

type State string

const (
	StateFetching     State = "fetching"
	StateComparing    State = "comparing"
	StateGrouping     State = "grouping"
	StateGateChecking State = "gate-checking"
	StatePreviewing   State = "previewing"
	StateApplying     State = "applying"
	StateReported     State = "reported"
	StateFailed       State = "failed"
)

// ErrRunActive is returned when a trigger arrives while another run holds
// the guard. Retryable; the new run is rejected, never queued.
var ErrRunActive = errors.New("a cleanup run is already active, retry later")

// RunGuard is the advisory single-flight lock owned by the orchestrator's
// caller. Injectable so tests can drive concurrent scenarios.
type RunGuard struct {
	mu     sync.Mutex
	active bool
}

func (g *RunGuard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return false
	}
	g.active = true
	return true
}

func (g *RunGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
}

// Limits are the per-run caller overrides.
type Limits struct {
	MaxDeletions int
}

// Options configure one orchestrator. Zero values fall back to defaults,
// except MaxDeletions where zero is a meaningful setting.
type Options struct {
	Scorer         Scorer
	Extractor      *Extractor
	Comparer       SemanticComparer
	DetectLanguage func(string) string

	ComparisonWindowDays int
	BatchSize            int
	Parallelism          int
	BatchDelay           time.Duration
	DeleteDelay          time.Duration
	DeleteTimeout        time.Duration
	SemanticTimeout      time.Duration
	SemanticBandLow      float64
	SemanticBandHigh     float64

	ConfirmationToken string
	// MaxDeletions caps deletions per run. Zero means automatic deletions
	// are disabled and is honored as configured, never defaulted.
	MaxDeletions      int
	MinApplyTier      Tier
}

const (
	defaultComparisonWindowDays = 30
	defaultBatchSize            = 50
	defaultParallelism          = 4
	defaultDeleteTimeout        = 10 * time.Second
	defaultSemanticTimeout      = 30 * time.Second

	// semanticConfirmedScore is assigned when the external comparer
	// confirms a pair the heuristics left inconclusive.
	semanticConfirmedScore = 0.85
)

// Orchestrator drives one cleanup run end to end: fetch, compare, group,
// gate, then preview or apply.
type Orchestrator struct {
	store  Store
	guard  *RunGuard
	logger zerolog.Logger
	opts   Options
}

func NewOrchestrator(store Store, guard *RunGuard, logger zerolog.Logger, opts Options) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("run guard is required")
	}
	if opts.Scorer == nil {
		opts.Scorer = TieredScorer{}
	}
	if opts.Extractor == nil {
		opts.Extractor = NewExtractor(EntityVocabulary)
	}
	if opts.ComparisonWindowDays <= 0 {
		opts.ComparisonWindowDays = defaultComparisonWindowDays
	}
	if opts.BatchSize < 2 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = defaultParallelism
	}
	if opts.DeleteTimeout <= 0 {
		opts.DeleteTimeout = defaultDeleteTimeout
	}
	if opts.SemanticTimeout <= 0 {
		opts.SemanticTimeout = defaultSemanticTimeout
	}
	if opts.SemanticBandHigh <= opts.SemanticBandLow {
		opts.SemanticBandLow = 0.6
		opts.SemanticBandHigh = 0.8
	}
	if opts.MaxDeletions < 0 {
		opts.MaxDeletions = 0
	}
	if tierRank(opts.MinApplyTier) == 0 {
		opts.MinApplyTier = TierMediumHigh
	}

	return &Orchestrator{
		store:  store,
		guard:  guard,
		logger: logger,
		opts:   opts,
	}, nil
}

// RunRequest describes one cleanup run.
type RunRequest struct {
	Window            Window
	Mode              Mode
	Limits            Limits
	ConfirmationToken string
}

// RunReport is the audit record returned for every run, previewed or
// applied. Partial application is Reported, not Failed.
type RunReport struct {
	RunID      string
	Mode       Mode
	State      State
	StartedAt  time.Time
	FinishedAt time.Time

	Analyzed          int
	PairsScored       int
	Escalated         int
	SemanticOverrides int
	GroupsFound       int
	RedundantCount    int

	Deleted          int
	FailedDeletions  int
	UpdatedLinks     int
	FailedUpdates    int
	PartiallyApplied bool

	RejectedReasons []string
	Skipped         []SkippedDeletion
	GroupRationales []string
}

// PreviewDuplicates is the convenience wrapper that forces preview mode.
func (o *Orchestrator) PreviewDuplicates(ctx context.Context, w Window) (RunReport, error) {
	return o.Run(ctx, RunRequest{Window: w, Mode: ModePreview})
}

func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		Mode:      req.Mode,
		State:     StateFetching,
		StartedAt: globaltime.UTC(),
	}

	if err := req.Window.Validate(); err != nil {
		report.State = StateFailed
		return report, fmt.Errorf("invalid window: %w", err)
	}
	switch req.Mode {
	case ModePreview, ModeApply:
	default:
		report.State = StateFailed
		return report, fmt.Errorf("unknown run mode %q", req.Mode)
	}

	if !o.guard.TryAcquire() {
		report.State = StateFailed
		return report, ErrRunActive
	}
	defer o.guard.Release()

	groups, err := o.buildPlan(ctx, req.Window, &report)
	if err != nil {
		report.State = StateFailed
		report.FinishedAt = globaltime.UTC()
		return report, err
	}

	report.State = StateGateChecking
	if req.Mode == ModePreview {
		report.State = StatePreviewing
		o.finish(&report)
		return report, nil
	}

	decision := ApplyGate(groups, req.ConfirmationToken, GateConfig{
		ConfirmationToken: o.opts.ConfirmationToken,
		MaxDeletions:      o.deletionBudget(req.Limits),
		MinTier:           o.opts.MinApplyTier,
	})
	report.RejectedReasons = decision.RejectedReasons
	report.Skipped = decision.Skipped

	if len(decision.Allowed) == 0 {
		o.finish(&report)
		return report, nil
	}

	report.State = StateApplying
	o.applyDeletions(ctx, decision.Allowed, &report)
	o.finish(&report)
	return report, nil
}

// RepairMissingLinks is the narrower resolution variant: instead of deleting
// redundant articles it copies the best member URL onto a canonical article
// that lacks one, via the store's field update.
func (o *Orchestrator) RepairMissingLinks(ctx context.Context, w Window, apply bool) (RunReport, error) {
	report := RunReport{
		RunID:     uuid.NewString(),
		Mode:      ModePreview,
		State:     StateFetching,
		StartedAt: globaltime.UTC(),
	}
	if apply {
		report.Mode = ModeApply
	}

	if err := w.Validate(); err != nil {
		report.State = StateFailed
		return report, fmt.Errorf("invalid window: %w", err)
	}
	if !o.guard.TryAcquire() {
		report.State = StateFailed
		return report, ErrRunActive
	}
	defer o.guard.Release()

	groups, err := o.buildPlan(ctx, w, &report)
	if err != nil {
		report.State = StateFailed
		report.FinishedAt = globaltime.UTC()
		return report, err
	}

	limiter := pacer(o.opts.DeleteDelay)
	report.State = StateApplying
	if !apply {
		report.State = StatePreviewing
	}

	for _, group := range groups {
		if strings.TrimSpace(group.Canonical.SourceURL) != "" {
			continue
		}
		donorURL := bestDonorURL(group)
		if donorURL == "" {
			continue
		}
		if !apply {
			report.UpdatedLinks++
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			report.PartiallyApplied = true
			report.RejectedReasons = append(report.RejectedReasons,
				"run cancelled mid-apply; completed updates are not rolled back")
			o.finish(&report)
			return report, nil
		}
		updateCtx, cancel := context.WithTimeout(ctx, o.opts.DeleteTimeout)
		err := o.store.UpdateArticleField(updateCtx, group.Canonical.ID, "source_url", donorURL)
		cancel()
		if err != nil {
			report.FailedUpdates++
			o.logger.Warn().Err(err).
				Int64("article_id", group.Canonical.ID).
				Msg("link repair update failed")
			continue
		}
		report.UpdatedLinks++
	}

	if report.FailedUpdates > 0 {
		report.PartiallyApplied = true
	}
	o.finish(&report)
	return report, nil
}

// buildPlan runs the shared fetch/compare/group phases.
func (o *Orchestrator) buildPlan(ctx context.Context, w Window, report *RunReport) ([]DuplicateGroup, error) {
	articles, err := o.store.ListArticles(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("fetch window: %w", err)
	}
	report.Analyzed = len(articles)
	o.fillLanguages(articles)

	report.State = StateComparing
	judgments, err := o.compareAll(ctx, articles, report)
	if err != nil {
		return nil, err
	}

	report.State = StateGrouping
	groups := Resolve(articles, judgments)
	report.GroupsFound = len(groups)
	for _, g := range groups {
		report.RedundantCount += len(g.Redundant)
		report.GroupRationales = append(report.GroupRationales, g.Rationale())
	}

	o.logger.Info().
		Str("run_id", report.RunID).
		Int("analyzed", report.Analyzed).
		Int("pairs_scored", report.PairsScored).
		Int("groups", report.GroupsFound).
		Int("redundant", report.RedundantCount).
		Msg("resolution plan built")

	return groups, nil
}

func (o *Orchestrator) fillLanguages(articles []Article) {
	if o.opts.DetectLanguage == nil {
		return
	}
	for i := range articles {
		if strings.TrimSpace(articles[i].Language) == "" {
			articles[i].Language = o.opts.DetectLanguage(articles[i].Title)
		}
	}
}

type candidatePair struct {
	left  Article
	right Article
}

func (o *Orchestrator) compareAll(ctx context.Context, articles []Article, report *RunReport) ([]PairJudgment, error) {
	features := make(map[int64]FeatureSet, len(articles))
	for _, a := range articles {
		features[a.ID] = o.opts.Extractor.Extract(a)
	}

	limiter := pacer(o.opts.BatchDelay)
	var judgments []PairJudgment
	for _, batch := range chunkArticles(articles, o.opts.BatchSize) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("comparison pacing interrupted: %w", err)
		}
		batchJudgments, err := o.compareBatch(ctx, batch, features, report)
		if err != nil {
			return nil, err
		}
		judgments = append(judgments, batchJudgments...)
	}
	return judgments, nil
}

// compareBatch scores every in-window pair of one sub-batch. Scoring is
// CPU-bound over immutable inputs, so pairs fan out across workers; each
// result lands in its own slot.
func (o *Orchestrator) compareBatch(
	ctx context.Context,
	batch []Article,
	features map[int64]FeatureSet,
	report *RunReport,
) ([]PairJudgment, error) {
	var pairs []candidatePair
	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			if !o.withinComparisonWindow(batch[i], batch[j]) {
				continue
			}
			if languagesConflict(batch[i], batch[j]) {
				continue
			}
			pairs = append(pairs, candidatePair{left: batch[i], right: batch[j]})
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	results := make([]PairJudgment, len(pairs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(o.opts.Parallelism)
	for idx, pair := range pairs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[idx] = o.opts.Scorer.Score(
				features[pair.left.ID],
				features[pair.right.ID],
				pair.left.Title,
				pair.right.Title,
			)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("pairwise comparison interrupted: %w", err)
	}
	report.PairsScored += len(pairs)

	o.escalateInconclusive(ctx, pairs, results, report)

	return results, nil
}

// escalateInconclusive hands band pairs to the semantic comparer. Its
// boolean verdict overrides the heuristic; failures and unparsable answers
// silently keep the heuristic score.
func (o *Orchestrator) escalateInconclusive(
	ctx context.Context,
	pairs []candidatePair,
	results []PairJudgment,
	report *RunReport,
) {
	if o.opts.Comparer == nil {
		return
	}

	for idx := range results {
		score := results[idx].Score
		if score < o.opts.SemanticBandLow || score >= o.opts.SemanticBandHigh {
			continue
		}
		report.Escalated++

		compareCtx, cancel := context.WithTimeout(ctx, o.opts.SemanticTimeout)
		verdict, err := o.opts.Comparer.Compare(compareCtx, pairs[idx].left, pairs[idx].right)
		cancel()
		if err != nil {
			o.logger.Debug().Err(err).
				Int64("left_id", pairs[idx].left.ID).
				Int64("right_id", pairs[idx].right.ID).
				Msg("semantic comparison unavailable, keeping heuristic score")
			continue
		}

		wasDuplicate := results[idx].IsDuplicate()
		results[idx].SemanticChecked = true
		results[idx].SemanticRationale = verdict.Rationale
		if verdict.IsDuplicate {
			if results[idx].Score < semanticConfirmedScore {
				results[idx].Score = semanticConfirmedScore
			}
			results[idx].Reason += "; confirmed by semantic comparison"
		} else {
			results[idx].Score = 0
			results[idx].Reason += "; rejected by semantic comparison"
		}
		results[idx].Tier = TierForScore(results[idx].Score)
		if wasDuplicate != results[idx].IsDuplicate() {
			report.SemanticOverrides++
		}
	}
}

func (o *Orchestrator) applyDeletions(ctx context.Context, groups []DuplicateGroup, report *RunReport) {
	limiter := pacer(o.opts.DeleteDelay)
	for _, group := range groups {
		for _, redundant := range group.Redundant {
			if err := limiter.Wait(ctx); err != nil {
				report.PartiallyApplied = true
				report.RejectedReasons = append(report.RejectedReasons,
					"run cancelled mid-apply; already-issued deletions are not rolled back")
				return
			}

			deleteCtx, cancel := context.WithTimeout(ctx, o.opts.DeleteTimeout)
			err := o.store.DeleteArticle(deleteCtx, redundant.Article.ID)
			cancel()
			if err != nil {
				report.FailedDeletions++
				o.logger.Warn().Err(err).
					Int64("article_id", redundant.Article.ID).
					Int64("canonical_id", group.Canonical.ID).
					Msg("redundant article deletion failed")
				continue
			}
			report.Deleted++
			o.logger.Info().
				Int64("article_id", redundant.Article.ID).
				Int64("canonical_id", group.Canonical.ID).
				Str("tier", string(redundant.Judgment.Tier)).
				Msg("redundant article deleted")
		}
	}
	if report.FailedDeletions > 0 {
		report.PartiallyApplied = true
	}
}

func (o *Orchestrator) withinComparisonWindow(a, b Article) bool {
	if a.PublicationDate.IsZero() || b.PublicationDate.IsZero() {
		return false
	}
	diff := a.PublicationDate.Sub(b.PublicationDate)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(o.opts.ComparisonWindowDays)*24*time.Hour
}

// languagesConflict compares primary language subtags, so "en-US" and "en"
// still pair up.
func languagesConflict(a, b Article) bool {
	left := primaryLanguageSubtag(a.Language)
	right := primaryLanguageSubtag(b.Language)
	return left != "" && right != "" && left != right
}

func primaryLanguageSubtag(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	tag = strings.ReplaceAll(tag, "_", "-")
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		tag = tag[:dash]
	}
	for _, r := range tag {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return tag
}

func (o *Orchestrator) deletionBudget(limits Limits) int {
	if limits.MaxDeletions > 0 && limits.MaxDeletions < o.opts.MaxDeletions {
		return limits.MaxDeletions
	}
	return o.opts.MaxDeletions
}

func (o *Orchestrator) finish(report *RunReport) {
	report.State = StateReported
	report.FinishedAt = globaltime.UTC()
}

// bestDonorURL picks the highest-quality redundant member that still
// carries a source URL.
func bestDonorURL(group DuplicateGroup) string {
	var (
		donorURL     string
		donorQuality float64
	)
	for _, redundant := range group.Redundant {
		url := strings.TrimSpace(redundant.Article.SourceURL)
		if url == "" {
			continue
		}
		quality := QualityScore(redundant.Article)
		if donorURL == "" || quality > donorQuality {
			donorURL = url
			donorQuality = quality
		}
	}
	return donorURL
}

func pacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func chunkArticles(articles []Article, size int) [][]Article {
	if len(articles) == 0 {
		return nil
	}
	var chunks [][]Article
	for start := 0; start < len(articles); start += size {
		end := start + size
		if end > len(articles) {
			end = len(articles)
		}
		chunks = append(chunks, articles[start:end])
	}
	return chunks
}
