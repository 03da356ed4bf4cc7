package db

import (
	"time"
)

// Article maps deals.articles, the deal-news corpus the cleanup engine
// operates on.
type Article struct {
	ArticleID       int64      `gorm:"column:article_id;primaryKey;autoIncrement"`
	ArticleUUID     string     `gorm:"column:article_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Title           string     `gorm:"column:title;type:text;not null"`
	Summary         string     `gorm:"column:summary;type:text;not null;default:''"`
	Content         string     `gorm:"column:content;type:text;not null;default:''"`
	Source          string     `gorm:"column:source;type:text;not null"`
	SourceURL       *string    `gorm:"column:source_url;type:text"`
	Category        string     `gorm:"column:category;type:text;not null;default:''"`
	Language        string     `gorm:"column:language;type:text;not null;default:''"`
	EngagementScore int        `gorm:"column:engagement_score;type:integer;not null;default:0"`
	PublicationDate *time.Time `gorm:"column:publication_date;type:timestamptz"`
	DeletedAt       *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt       time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "deals.articles" }

// CleanupRun maps deals.cleanup_runs, the audit trail of every preview or
// apply run.
type CleanupRun struct {
	CleanupRunID     int64      `gorm:"column:cleanup_run_id;primaryKey;autoIncrement"`
	RunUUID          string     `gorm:"column:run_uuid;type:uuid;not null;unique"`
	Mode             string     `gorm:"column:mode;type:text;not null"`
	State            string     `gorm:"column:state;type:text;not null"`
	Analyzed         int        `gorm:"column:analyzed;type:integer;not null;default:0"`
	PairsScored      int        `gorm:"column:pairs_scored;type:integer;not null;default:0"`
	GroupsFound      int        `gorm:"column:groups_found;type:integer;not null;default:0"`
	RedundantCount   int        `gorm:"column:redundant_count;type:integer;not null;default:0"`
	Deleted          int        `gorm:"column:deleted;type:integer;not null;default:0"`
	FailedDeletions  int        `gorm:"column:failed_deletions;type:integer;not null;default:0"`
	PartiallyApplied bool       `gorm:"column:partially_applied;not null;default:false"`
	StartedAt        time.Time  `gorm:"column:started_at;type:timestamptz;not null"`
	FinishedAt       *time.Time `gorm:"column:finished_at;type:timestamptz"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (CleanupRun) TableName() string { return "deals.cleanup_runs" }

func autoMigrateModels() []any {
	return []any{
		&Article{},
		&CleanupRun{},
	}
}
