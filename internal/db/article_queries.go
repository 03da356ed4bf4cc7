package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ArticleListOptions controls article listing queries.
type ArticleListOptions struct {
	Source string
	From   time.Time
	To     time.Time
	Limit  int
}

// ArticleListItem is used by the articles CLI command.
type ArticleListItem struct {
	ArticleID       int64      `json:"article_id"`
	ArticleUUID     string     `json:"article_uuid"`
	Title           string     `json:"title"`
	Source          string     `json:"source"`
	SourceURL       *string    `json:"source_url,omitempty"`
	Category        string     `json:"category,omitempty"`
	Language        string     `json:"language,omitempty"`
	EngagementScore int        `json:"engagement_score"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CorpusStats is the read model returned by the stats command.
type CorpusStats struct {
	Articles        int64 `json:"articles"`
	DeletedArticles int64 `json:"deleted_articles"`
	CleanupRuns     int64 `json:"cleanup_runs"`
	ArticlesToday   int64 `json:"articles_today"`
}

const articleListQuery = `
SELECT
	a.article_id,
	a.article_uuid::text,
	a.title,
	a.source,
	a.source_url,
	a.category,
	a.language,
	a.engagement_score,
	a.publication_date,
	a.created_at
FROM deals.articles a
WHERE a.deleted_at IS NULL
  AND a.created_at >= $1
  AND a.created_at < $2
  AND ($3 = '' OR LOWER(a.source) = $3)
ORDER BY a.created_at DESC, a.article_id DESC
LIMIT $4
`

// normalizeSourceFilter folds a source filter for the case-insensitive
// comparison in the list query. Sources are stored verbatim, so the query
// lowers both sides.
func normalizeSourceFilter(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ListArticleItems lists live articles in a UTC created_at window.
func (p *Pool) ListArticleItems(ctx context.Context, opts ArticleListOptions) ([]ArticleListItem, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	from := opts.From.UTC()
	to := opts.To.UTC()
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to")
	}

	rows, err := p.Query(ctx, articleListQuery, from, to, normalizeSourceFilter(opts.Source), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items := make([]ArticleListItem, 0, opts.Limit)
	for rows.Next() {
		var row ArticleListItem
		if err := rows.Scan(
			&row.ArticleID,
			&row.ArticleUUID,
			&row.Title,
			&row.Source,
			&row.SourceURL,
			&row.Category,
			&row.Language,
			&row.EngagementScore,
			&row.PublicationDate,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article rows: %w", err)
	}

	return items, nil
}

// QueryCorpusStats returns corpus and cleanup-run counters.
func (p *Pool) QueryCorpusStats(ctx context.Context, dayStart time.Time) (*CorpusStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*)::BIGINT FROM deals.articles WHERE deleted_at IS NULL),
	(SELECT COUNT(*)::BIGINT FROM deals.articles WHERE deleted_at IS NOT NULL),
	(SELECT COUNT(*)::BIGINT FROM deals.cleanup_runs),
	(SELECT COUNT(*)::BIGINT FROM deals.articles WHERE deleted_at IS NULL AND created_at >= $1)
`

	stats := &CorpusStats{}
	err := p.QueryRow(ctx, q, dayStart.UTC()).Scan(
		&stats.Articles,
		&stats.DeletedArticles,
		&stats.CleanupRuns,
		&stats.ArticlesToday,
	)
	if err != nil {
		return nil, fmt.Errorf("query corpus stats: %w", err)
	}
	return stats, nil
}
