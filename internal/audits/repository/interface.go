package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Audit is one scored (or in-flight) business audit.
type Audit struct {
	ID               uuid.UUID  `db:"id"`
	CreatedBy        *uuid.UUID `db:"created_by"`
	Status           string     `db:"status"`
	Error            *string    `db:"error"`
	BusinessName     string     `db:"business_name"`
	Domain           string     `db:"domain"`
	LocationInput    string     `db:"location_input"`
	LocationCode     int        `db:"location_code"`
	LocationName     string     `db:"location_name"`
	Keyword          string     `db:"keyword"`
	LeadScore        *int       `db:"lead_score"`
	PresenceScore    *int       `db:"presence_score"`
	SEOScore         *int       `db:"seo_score"`
	AdsScore         *int       `db:"ads_score"`
	EngagementScore  *int       `db:"engagement_score"`
	OpportunityScore *int       `db:"opportunity_score"`
	ScoreVersion     *string    `db:"score_version"`
	Report           []byte     `db:"report"`
	FailedSources    []string   `db:"failed_sources"`
	BundleObjectKey  *string    `db:"bundle_object_key"`
	CreatedAt        time.Time  `db:"created_at"`
	CompletedAt      *time.Time `db:"completed_at"`
}

// CreateParams contains data for a new pending audit.
type CreateParams struct {
	ID            uuid.UUID
	CreatedBy     *uuid.UUID
	BusinessName  string
	Domain        string
	LocationInput string
	LocationCode  int
	LocationName  string
	Keyword       string
}

// CompleteParams holds the scored result of an audit.
type CompleteParams struct {
	ID               uuid.UUID
	LeadScore        int
	PresenceScore    int
	SEOScore         int
	AdsScore         int
	EngagementScore  int
	OpportunityScore int
	ScoreVersion     string
	Report           []byte
	FailedSources    []string
	BundleObjectKey  *string
}

// ListParams defines filters for listing audits.
type ListParams struct {
	Status       string
	Domain       string
	MinLeadScore *int
	Offset       int
	Limit        int
	SortBy       string
	SortOrder    string
}

// Repository is the persistence contract for audits.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Audit, error)
	Complete(ctx context.Context, params CompleteParams) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (Audit, error)
	List(ctx context.Context, params ListParams) ([]Audit, int, error)
	ListCompleted(ctx context.Context, limit int) ([]Audit, error)
	ListArchived(ctx context.Context, limit int) ([]Audit, error)
	FailStalePending(ctx context.Context, before time.Time, reason string) (int64, error)
}
