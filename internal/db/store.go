package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/dealsweep/internal/dedup"
	"horse.fit/dealsweep/internal/globaltime"
)

// updatableArticleColumns is the allowlist for single-field updates. The
// column name is interpolated into SQL, so only these values are accepted.
var updatableArticleColumns = map[string]string{
	"source_url": "source_url",
	"category":   "category",
	"language":   "language",
	"summary":    "summary",
}

// ArticleStore adapts the pool to the cleanup engine's store interface.
type ArticleStore struct {
	pool *Pool
}

func NewArticleStore(pool *Pool) (*ArticleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ArticleStore{pool: pool}, nil
}

// ListArticles returns live articles inside the window, oldest first.
func (s *ArticleStore) ListArticles(ctx context.Context, w dedup.Window) ([]dedup.Article, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var (
		from time.Time
		to   time.Time
		col  string
	)
	span := time.Duration(w.Days) * 24 * time.Hour
	switch w.Strategy {
	case dedup.WindowRecency:
		to = globaltime.UTC()
		from = to.Add(-span)
		col = "a.created_at"
	case dedup.WindowPublicationDate:
		from = w.Date.UTC().Add(-span)
		to = w.Date.UTC().Add(span)
		col = "a.publication_date"
	default:
		return nil, fmt.Errorf("unknown window strategy %q", w.Strategy)
	}

	q := fmt.Sprintf(`
SELECT
	a.article_id,
	a.title,
	a.summary,
	a.content,
	a.source,
	COALESCE(a.source_url, ''),
	a.category,
	a.language,
	a.engagement_score,
	a.publication_date,
	a.created_at
FROM deals.articles a
WHERE a.deleted_at IS NULL
  AND %s >= $1
  AND %s <= $2
ORDER BY a.created_at ASC, a.article_id ASC
`, col, col)

	rows, err := s.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []dedup.Article
	for rows.Next() {
		var (
			a           dedup.Article
			publishedAt *time.Time
		)
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Summary,
			&a.Content,
			&a.Source,
			&a.SourceURL,
			&a.Category,
			&a.Language,
			&a.EngagementScore,
			&publishedAt,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		if publishedAt != nil {
			a.PublicationDate = publishedAt.UTC()
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return articles, nil
}

// DeleteArticle soft-deletes one article. A miss is an error so the caller
// can count the deletion as failed.
func (s *ArticleStore) DeleteArticle(ctx context.Context, articleID int64) error {
	if articleID <= 0 {
		return fmt.Errorf("article ID must be > 0")
	}

	tx, err := s.pool.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const q = `
UPDATE deals.articles
SET
	deleted_at = $2,
	updated_at = $2
WHERE article_id = $1
  AND deleted_at IS NULL
`
	tag, err := tx.Exec(ctx, q, articleID, globaltime.UTC())
	if err != nil {
		return fmt.Errorf("soft delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d not found or already deleted", articleID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateArticleField sets one allowlisted column on a live article.
func (s *ArticleStore) UpdateArticleField(ctx context.Context, articleID int64, field, value string) error {
	if articleID <= 0 {
		return fmt.Errorf("article ID must be > 0")
	}
	column, ok := updatableArticleColumns[strings.TrimSpace(strings.ToLower(field))]
	if !ok {
		return fmt.Errorf("field %q is not updatable", field)
	}

	q := fmt.Sprintf(`
UPDATE deals.articles
SET
	%s = $2,
	updated_at = $3
WHERE article_id = $1
  AND deleted_at IS NULL
`, column)

	tag, err := s.pool.Exec(ctx, q, articleID, value, globaltime.UTC())
	if err != nil {
		return fmt.Errorf("update article %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %d not found or already deleted", articleID)
	}
	return nil
}

// InsertArticle stores one imported article and returns its ID.
func (s *ArticleStore) InsertArticle(ctx context.Context, a dedup.Article) (int64, error) {
	if strings.TrimSpace(a.Title) == "" {
		return 0, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(a.Source) == "" {
		return 0, fmt.Errorf("source is required")
	}

	var publishedAt *time.Time
	if !a.PublicationDate.IsZero() {
		t := a.PublicationDate.UTC()
		publishedAt = &t
	}
	var sourceURL *string
	if trimmed := strings.TrimSpace(a.SourceURL); trimmed != "" {
		sourceURL = &trimmed
	}

	const q = `
INSERT INTO deals.articles (
	title,
	summary,
	content,
	source,
	source_url,
	category,
	language,
	engagement_score,
	publication_date
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING article_id
`

	var articleID int64
	err := s.pool.QueryRow(ctx, q,
		a.Title,
		a.Summary,
		a.Content,
		a.Source,
		sourceURL,
		a.Category,
		a.Language,
		a.EngagementScore,
		publishedAt,
	).Scan(&articleID)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return articleID, nil
}

// RecordRun persists the audit row for one cleanup run.
func (s *ArticleStore) RecordRun(ctx context.Context, report dedup.RunReport) error {
	runUUID := strings.TrimSpace(report.RunID)
	if runUUID == "" {
		runUUID = uuid.NewString()
	}

	var finishedAt *time.Time
	if !report.FinishedAt.IsZero() {
		t := report.FinishedAt.UTC()
		finishedAt = &t
	}

	const q = `
INSERT INTO deals.cleanup_runs (
	run_uuid,
	mode,
	state,
	analyzed,
	pairs_scored,
	groups_found,
	redundant_count,
	deleted,
	failed_deletions,
	partially_applied,
	started_at,
	finished_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
	_, err := s.pool.Exec(ctx, q,
		runUUID,
		string(report.Mode),
		string(report.State),
		report.Analyzed,
		report.PairsScored,
		report.GroupsFound,
		report.RedundantCount,
		report.Deleted,
		report.FailedDeletions,
		report.PartiallyApplied,
		report.StartedAt.UTC(),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("record cleanup run: %w", err)
	}
	return nil
}
