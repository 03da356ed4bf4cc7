package dedup

import (
	"context"
	"fmt"
	"time"
)

// Article is the engine-facing view of one stored deal report. The engine
// never mutates articles; resolution goes through the Store.
type Article struct {
	ID              int64
	Title           string
	Summary         string
	Content         string
	PublicationDate time.Time
	Source          string
	SourceURL       string
	Category        string
	Language        string
	EngagementScore int
	CreatedAt       time.Time
}

type WindowStrategy string

const (
	// WindowRecency selects articles created in the last N days.
	WindowRecency WindowStrategy = "recency"
	// WindowPublicationDate selects articles published on one calendar date.
	WindowPublicationDate WindowStrategy = "publication-date"
)

// Window describes which slice of the store a cleanup run looks at.
type Window struct {
	Strategy WindowStrategy
	Days     int
	Date     time.Time
}

func (w Window) Validate() error {
	switch w.Strategy {
	case WindowRecency:
		if w.Days < 1 {
			return fmt.Errorf("recency window requires days >= 1, got %d", w.Days)
		}
	case WindowPublicationDate:
		if w.Date.IsZero() {
			return fmt.Errorf("publication-date window requires a date")
		}
	default:
		return fmt.Errorf("unknown window strategy %q", w.Strategy)
	}
	return nil
}

// Store is the article store collaborator. Implementations live outside the
// engine; the engine only reads, deletes, and patches single fields.
type Store interface {
	ListArticles(ctx context.Context, w Window) ([]Article, error)
	DeleteArticle(ctx context.Context, id int64) error
	UpdateArticleField(ctx context.Context, id int64, field, value string) error
}

// Verdict is a semantic-comparison service answer for one article pair.
type Verdict struct {
	IsDuplicate bool
	Rationale   string
}

// SemanticComparer escalates inconclusive heuristic pairs to an external
// judgment. Errors and unparsable answers fall back to the heuristic score.
type SemanticComparer interface {
	Compare(ctx context.Context, a, b Article) (Verdict, error)
}
