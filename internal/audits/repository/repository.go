package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadscout_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditNotFoundMessage = "audit not found"

const auditColumns = `
	id, created_by, status, error, business_name, domain, location_input,
	location_code, location_name, keyword, lead_score, presence_score, seo_score,
	ads_score, engagement_score, opportunity_score, score_version, report,
	failed_sources, bundle_object_key, created_at, completed_at`

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audits repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a pending audit.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Audit, error) {
	query := `
		INSERT INTO audits (
			id, created_by, status, business_name, domain, location_input,
			location_code, location_name, keyword
		) VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8)
		RETURNING` + auditColumns

	audit, err := scanAudit(r.pool.QueryRow(ctx, query,
		params.ID, params.CreatedBy, params.BusinessName, params.Domain, params.LocationInput,
		params.LocationCode, params.LocationName, params.Keyword,
	))
	if err != nil {
		return Audit{}, fmt.Errorf("create audit: %w", err)
	}
	return audit, nil
}

// Complete stores the scored result and marks the audit completed.
func (r *Repo) Complete(ctx context.Context, params CompleteParams) error {
	query := `
		UPDATE audits
		SET status = 'completed',
			error = NULL,
			lead_score = $2,
			presence_score = $3,
			seo_score = $4,
			ads_score = $5,
			engagement_score = $6,
			opportunity_score = $7,
			score_version = $8,
			report = $9,
			failed_sources = $10,
			bundle_object_key = COALESCE($11, bundle_object_key),
			completed_at = now()
		WHERE id = $1`

	failed := params.FailedSources
	if failed == nil {
		failed = []string{}
	}

	result, err := r.pool.Exec(ctx, query,
		params.ID, params.LeadScore, params.PresenceScore, params.SEOScore, params.AdsScore,
		params.EngagementScore, params.OpportunityScore, params.ScoreVersion, params.Report,
		failed, params.BundleObjectKey,
	)
	if err != nil {
		return fmt.Errorf("complete audit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(auditNotFoundMessage)
	}
	return nil
}

// Fail marks an audit failed with reason.
func (r *Repo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE audits SET status = 'failed', error = $2, completed_at = now() WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("fail audit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(auditNotFoundMessage)
	}
	return nil
}

// GetByID retrieves an audit by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Audit, error) {
	query := `SELECT` + auditColumns + ` FROM audits WHERE id = $1`

	audit, err := scanAudit(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Audit{}, apperr.NotFound(auditNotFoundMessage)
		}
		return Audit{}, fmt.Errorf("get audit by id: %w", err)
	}
	return audit, nil
}

// List lists audits with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Audit, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	if params.Domain != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("domain ILIKE $%d", argIdx))
		args = append(args, "%"+params.Domain+"%")
		argIdx++
	}
	if params.MinLeadScore != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lead_score >= $%d", argIdx))
		args = append(args, *params.MinLeadScore)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audits WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audits: %w", err)
	}

	sortColumn := "created_at"
	switch params.SortBy {
	case "leadScore":
		sortColumn = "lead_score"
	case "opportunityScore":
		sortColumn = "opportunity_score"
	case "domain":
		sortColumn = "domain"
	}

	sortOrder := "DESC"
	if params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM audits
		WHERE %s
		ORDER BY %s %s NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d
	`, auditColumns, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	items, err := r.queryAudits(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audits: %w", err)
	}
	return items, total, nil
}

// ListCompleted returns the most recent completed audits, highest lead score first.
func (r *Repo) ListCompleted(ctx context.Context, limit int) ([]Audit, error) {
	query := `SELECT` + auditColumns + `
		FROM audits
		WHERE status = 'completed'
		ORDER BY lead_score DESC, created_at DESC
		LIMIT $1`

	items, err := r.queryAudits(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed audits: %w", err)
	}
	return items, nil
}

// ListArchived returns completed audits whose raw bundle was archived.
func (r *Repo) ListArchived(ctx context.Context, limit int) ([]Audit, error) {
	query := `SELECT` + auditColumns + `
		FROM audits
		WHERE status = 'completed' AND bundle_object_key IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $1`

	items, err := r.queryAudits(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list archived audits: %w", err)
	}
	return items, nil
}

// FailStalePending fails audits that have been pending since before the cutoff.
func (r *Repo) FailStalePending(ctx context.Context, before time.Time, reason string) (int64, error) {
	query := `
		UPDATE audits
		SET status = 'failed', error = $2, completed_at = now()
		WHERE status = 'pending' AND created_at < $1`

	result, err := r.pool.Exec(ctx, query, before, reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale audits: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *Repo) queryAudits(ctx context.Context, query string, args ...interface{}) ([]Audit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Audit, 0)
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		items = append(items, audit)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate audits: %w", rows.Err())
	}
	return items, nil
}

func scanAudit(row pgx.Row) (Audit, error) {
	var a Audit
	err := row.Scan(
		&a.ID, &a.CreatedBy, &a.Status, &a.Error, &a.BusinessName, &a.Domain, &a.LocationInput,
		&a.LocationCode, &a.LocationName, &a.Keyword, &a.LeadScore, &a.PresenceScore, &a.SEOScore,
		&a.AdsScore, &a.EngagementScore, &a.OpportunityScore, &a.ScoreVersion, &a.Report,
		&a.FailedSources, &a.BundleObjectKey, &a.CreatedAt, &a.CompletedAt,
	)
	return a, err
}
