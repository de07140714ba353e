// Package service runs business audits: it resolves the market, collects
// upstream data, scores it and keeps the result.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"leadscout_backend/internal/audits/export"
	"leadscout_backend/internal/audits/repository"
	"leadscout_backend/internal/audits/transport"
	"leadscout_backend/internal/dataforseo"
	"leadscout_backend/internal/email"
	"leadscout_backend/internal/location"
	"leadscout_backend/internal/pitch"
	"leadscout_backend/internal/scoring"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/storage"

	"github.com/google/uuid"
)

const (
	defaultPageSize    = 20
	defaultExportLimit = 1000
)

// Fetcher collects the upstream bundle for one business.
type Fetcher interface {
	FetchBundle(ctx context.Context, req dataforseo.Request) (scoring.Bundle, dataforseo.FetchReport)
}

// LocationResolver maps free text to a location code.
type LocationResolver interface {
	Resolve(input string) location.Match
}

// Enqueuer schedules an audit run on the job queue.
type Enqueuer interface {
	EnqueueAudit(ctx context.Context, auditID uuid.UUID) error
}

// PitchWriter drafts an outreach email from an audit.
type PitchWriter interface {
	Generate(ctx context.Context, in pitch.Input) (string, error)
}

// Observer records completed audits.
type Observer interface {
	ObserveAudit(leadScore, opportunityScore int)
}

type nopObserver struct{}

func (nopObserver) ObserveAudit(int, int) {}

// Option configures optional collaborators.
type Option func(*Service)

// WithObjectStore archives raw bundles so audits can be rescored later.
func WithObjectStore(store storage.ObjectStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEnqueuer enables asynchronous audits.
func WithEnqueuer(q Enqueuer) Option {
	return func(s *Service) { s.queue = q }
}

// WithPitchWriter enables pitch generation.
func WithPitchWriter(p PitchWriter) Option {
	return func(s *Service) { s.pitch = p }
}

// WithMailer sets the report email sender.
func WithMailer(m email.Sender) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithObserver sets the metrics sink.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.obs = o
		}
	}
}

// WithClock overrides the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service coordinates the audit workflow.
type Service struct {
	repo     repository.Repository
	fetcher  Fetcher
	resolver LocationResolver
	store    storage.ObjectStore
	queue    Enqueuer
	pitch    PitchWriter
	mailer   email.Sender
	obs      Observer
	log      *logger.Logger
	now      func() time.Time
}

// New creates the audit service.
func New(repo repository.Repository, fetcher Fetcher, resolver LocationResolver, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		fetcher:  fetcher,
		resolver: resolver,
		store:    storage.Noop{},
		mailer:   email.NoopSender{},
		obs:      nopObserver{},
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers an audit. Synchronous audits are run before returning;
// asynchronous ones are queued and returned pending.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req transport.CreateAuditRequest) (transport.AuditResponse, error) {
	in := scoring.Input{BusinessName: strings.TrimSpace(req.BusinessName), Domain: req.Domain, Location: req.Location}
	if err := scoring.ValidateInput(in); err != nil {
		return transport.AuditResponse{}, err
	}
	if req.Async && s.queue == nil {
		return transport.AuditResponse{}, apperr.Unavailable("asynchronous audits are not configured")
	}

	match := s.resolver.Resolve(req.Location)
	var createdBy *uuid.UUID
	if userID != uuid.Nil {
		createdBy = &userID
	}

	audit, err := s.repo.Create(ctx, repository.CreateParams{
		ID:            uuid.New(),
		CreatedBy:     createdBy,
		BusinessName:  in.BusinessName,
		Domain:        scoring.NormalizeDomain(req.Domain),
		LocationInput: strings.TrimSpace(req.Location),
		LocationCode:  match.Code,
		LocationName:  match.Name,
		Keyword:       strings.TrimSpace(req.Keyword),
	})
	if err != nil {
		return transport.AuditResponse{}, err
	}

	if req.Async {
		if err := s.queue.EnqueueAudit(ctx, audit.ID); err != nil {
			_ = s.repo.Fail(ctx, audit.ID, "failed to enqueue audit")
			return transport.AuditResponse{}, apperr.Wrap(apperr.KindUnavailable, "failed to enqueue audit", err)
		}
		return toAuditResponse(audit), nil
	}

	if err := s.RunAudit(ctx, audit.ID); err != nil {
		return transport.AuditResponse{}, err
	}
	return s.Get(ctx, audit.ID)
}

// RunAudit fetches, scores and stores a pending audit. Audits that are no
// longer pending are left untouched so queue redeliveries are harmless.
func (s *Service) RunAudit(ctx context.Context, id uuid.UUID) error {
	audit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if audit.Status != repository.StatusPending {
		return nil
	}

	bundle, fetchReport := s.fetcher.FetchBundle(ctx, dataforseo.Request{
		BusinessName: audit.BusinessName,
		Domain:       audit.Domain,
		LocationCode: audit.LocationCode,
		Keyword:      audit.Keyword,
	})

	objectKey := s.archiveBundle(ctx, audit.ID, bundle)
	report := scoring.Evaluate(inputOf(audit), bundle, s.now())

	if err := s.complete(ctx, audit.ID, report, fetchReport.Failed, objectKey); err != nil {
		s.log.Error("failed to store audit result", "auditId", audit.ID.String(), "error", err)
		_ = s.repo.Fail(ctx, audit.ID, "failed to store audit result")
		return err
	}

	s.obs.ObserveAudit(report.Scores.LeadScore, report.OpportunityScore)
	s.log.AuditEvent(audit.ID.String(), audit.Domain, report.Scores.LeadScore, fetchReport.Failed)
	return nil
}

// MarkFailed records a terminal failure for an audit run.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.repo.Fail(ctx, id, reason)
}

// Get returns one audit with its decoded report.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.AuditResponse, error) {
	audit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AuditResponse{}, err
	}
	return toAuditResponse(audit), nil
}

// List returns a page of audit summaries.
func (s *Service) List(ctx context.Context, req transport.ListAuditsRequest) (transport.AuditListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		Status:       req.Status,
		Domain:       strings.TrimSpace(req.Domain),
		MinLeadScore: req.MinLeadScore,
		Offset:       (page - 1) * pageSize,
		Limit:        pageSize,
		SortBy:       req.SortBy,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		return transport.AuditListResponse{}, err
	}

	summaries := make([]transport.AuditSummary, 0, len(items))
	for _, a := range items {
		summaries = append(summaries, transport.AuditSummary{
			ID:               a.ID.String(),
			Status:           a.Status,
			BusinessName:     a.BusinessName,
			Domain:           a.Domain,
			LocationName:     a.LocationName,
			LeadScore:        a.LeadScore,
			OpportunityScore: a.OpportunityScore,
			CreatedAt:        a.CreatedAt,
		})
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return transport.AuditListResponse{
		Items:      summaries,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Export writes completed audits as an XLSX workbook.
func (s *Service) Export(ctx context.Context, w io.Writer, limit int) error {
	if limit < 1 {
		limit = defaultExportLimit
	}
	audits, err := s.repo.ListCompleted(ctx, limit)
	if err != nil {
		return err
	}

	rows := make([]export.Row, 0, len(audits))
	for _, a := range audits {
		row := export.Row{
			ID:            a.ID.String(),
			BusinessName:  a.BusinessName,
			Domain:        a.Domain,
			Location:      a.LocationName,
			FailedSources: a.FailedSources,
			CreatedAt:     a.CreatedAt,
		}
		if report := decodeReport(a.Report); report != nil {
			row.LeadScore = report.Scores.LeadScore
			row.PresenceScore = report.Scores.Presence
			row.SEOScore = report.Scores.SEO
			row.AdsScore = report.Scores.AdsActivity
			row.EngagementScore = report.Scores.Engagement
			row.OpportunityScore = report.OpportunityScore
			row.Recommendations = report.Recommendations
		}
		rows = append(rows, row)
	}

	return export.WriteXLSX(w, rows)
}

// Pitch drafts an outreach email for a completed audit.
func (s *Service) Pitch(ctx context.Context, id uuid.UUID) (transport.PitchResponse, error) {
	if s.pitch == nil {
		return transport.PitchResponse{}, apperr.Unavailable("pitch generation is not configured")
	}
	audit, report, err := s.completedAudit(ctx, id)
	if err != nil {
		return transport.PitchResponse{}, err
	}

	text, err := s.pitch.Generate(ctx, pitch.Input{
		AuditID:          audit.ID.String(),
		BusinessName:     audit.BusinessName,
		Domain:           audit.Domain,
		Location:         audit.LocationName,
		LeadScore:        report.Scores.LeadScore,
		PresenceScore:    report.Scores.Presence,
		SEOScore:         report.Scores.SEO,
		AdsScore:         report.Scores.AdsActivity,
		EngagementScore:  report.Scores.Engagement,
		OpportunityScore: report.OpportunityScore,
		Recommendations:  report.Recommendations,
	})
	if err != nil {
		return transport.PitchResponse{}, apperr.Upstream("failed to generate pitch", err)
	}

	return transport.PitchResponse{AuditID: audit.ID.String(), Pitch: text}, nil
}

// Email sends the report summary of a completed audit.
func (s *Service) Email(ctx context.Context, id uuid.UUID, req transport.EmailAuditRequest) (transport.EmailAuditResponse, error) {
	audit, report, err := s.completedAudit(ctx, id)
	if err != nil {
		return transport.EmailAuditResponse{}, err
	}

	err = s.mailer.SendAuditReport(ctx, req.To, email.ReportEmail{
		BusinessName:     audit.BusinessName,
		Domain:           audit.Domain,
		Location:         audit.LocationName,
		LeadScore:        report.Scores.LeadScore,
		PresenceScore:    report.Scores.Presence,
		SEOScore:         report.Scores.SEO,
		AdsScore:         report.Scores.AdsActivity,
		EngagementScore:  report.Scores.Engagement,
		OpportunityScore: report.OpportunityScore,
		Recommendations:  report.Recommendations,
		Note:             strings.TrimSpace(req.Note),
	})
	if err != nil {
		return transport.EmailAuditResponse{}, apperr.Upstream("failed to send report email", err)
	}

	return transport.EmailAuditResponse{AuditID: audit.ID.String(), Sent: true}, nil
}

// Rescore re-evaluates a completed audit from its archived bundle with the
// current scoring formulas.
func (s *Service) Rescore(ctx context.Context, id uuid.UUID) (transport.AuditResponse, error) {
	audit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AuditResponse{}, err
	}
	if err := s.rescore(ctx, audit); err != nil {
		return transport.AuditResponse{}, err
	}
	return s.Get(ctx, id)
}

// RescoreArchived rescores up to limit archived audits, newest first.
func (s *Service) RescoreArchived(ctx context.Context, limit int) (transport.RescoreSummary, error) {
	audits, err := s.repo.ListArchived(ctx, limit)
	if err != nil {
		return transport.RescoreSummary{}, err
	}

	summary := transport.RescoreSummary{Failed: make([]string, 0)}
	for _, a := range audits {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := s.rescore(ctx, a); err != nil {
			s.log.Warn("audit rescore failed", "auditId", a.ID.String(), "error", err)
			summary.Failed = append(summary.Failed, a.ID.String())
			continue
		}
		summary.Rescored++
	}
	return summary, nil
}

func (s *Service) rescore(ctx context.Context, audit repository.Audit) error {
	if audit.Status != repository.StatusCompleted {
		return apperr.Conflict("only completed audits can be rescored")
	}
	if audit.BundleObjectKey == nil {
		return apperr.Conflict("audit has no archived data")
	}

	raw, err := s.store.Get(ctx, *audit.BundleObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return apperr.Unavailable("object storage is not configured")
		}
		return fmt.Errorf("load archived bundle: %w", err)
	}

	var bundle scoring.Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return fmt.Errorf("decode archived bundle: %w", err)
	}

	report := scoring.Evaluate(inputOf(audit), bundle, s.now())
	return s.complete(ctx, audit.ID, report, audit.FailedSources, nil)
}

// Evaluate scores caller-supplied payloads.
func (s *Service) Evaluate(req transport.EvaluateRequest) (scoring.Report, error) {
	in := scoring.Input{BusinessName: strings.TrimSpace(req.BusinessName), Domain: req.Domain, Location: req.Location}
	if err := scoring.ValidateInput(in); err != nil {
		return scoring.Report{}, err
	}
	now := s.now()
	if req.AsOf != nil {
		now = *req.AsOf
	}
	return scoring.Evaluate(in, req.Bundle, now), nil
}

// ResolveLocation maps free text to a location code.
func (s *Service) ResolveLocation(q string) transport.ResolveLocationResponse {
	m := s.resolver.Resolve(q)
	return transport.ResolveLocationResponse{Input: q, Code: m.Code, Name: m.Name, Score: m.Score}
}

func (s *Service) completedAudit(ctx context.Context, id uuid.UUID) (repository.Audit, *scoring.Report, error) {
	audit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Audit{}, nil, err
	}
	if audit.Status != repository.StatusCompleted {
		return repository.Audit{}, nil, apperr.Conflict("audit is not completed")
	}
	report := decodeReport(audit.Report)
	if report == nil {
		return repository.Audit{}, nil, apperr.Internal("audit report is unreadable")
	}
	return audit, report, nil
}

func (s *Service) archiveBundle(ctx context.Context, id uuid.UUID, b scoring.Bundle) *string {
	body, err := json.Marshal(b)
	if err != nil {
		s.log.Warn("failed to encode audit bundle", "auditId", id.String(), "error", err)
		return nil
	}
	key := bundleObjectKey(id)
	if err := s.store.PutJSON(ctx, key, body); err != nil {
		s.log.Warn("failed to archive audit bundle", "auditId", id.String(), "error", err)
		return nil
	}
	if _, ok := s.store.(storage.Noop); ok {
		return nil
	}
	return &key
}

func (s *Service) complete(ctx context.Context, id uuid.UUID, report scoring.Report, failed []string, objectKey *string) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.repo.Complete(ctx, repository.CompleteParams{
		ID:               id,
		LeadScore:        report.Scores.LeadScore,
		PresenceScore:    report.Scores.Presence,
		SEOScore:         report.Scores.SEO,
		AdsScore:         report.Scores.AdsActivity,
		EngagementScore:  report.Scores.Engagement,
		OpportunityScore: report.OpportunityScore,
		ScoreVersion:     report.ScoreVersion,
		Report:           body,
		FailedSources:    failed,
		BundleObjectKey:  objectKey,
	})
}

func bundleObjectKey(id uuid.UUID) string {
	return "audits/" + id.String() + "/bundle.json"
}

func inputOf(a repository.Audit) scoring.Input {
	in := scoring.Input{BusinessName: a.BusinessName, Domain: a.Domain, Location: a.LocationInput}
	if a.Keyword != "" {
		in.Keywords = []string{a.Keyword}
	}
	return in
}

func decodeReport(raw []byte) *scoring.Report {
	if len(raw) == 0 {
		return nil
	}
	var report scoring.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil
	}
	return &report
}

func toAuditResponse(a repository.Audit) transport.AuditResponse {
	failed := a.FailedSources
	if failed == nil {
		failed = []string{}
	}
	return transport.AuditResponse{
		ID:           a.ID.String(),
		Status:       a.Status,
		Error:        a.Error,
		BusinessName: a.BusinessName,
		Domain:       a.Domain,
		Location: transport.LocationResponse{
			Input: a.LocationInput,
			Code:  a.LocationCode,
			Name:  a.LocationName,
		},
		Keyword:       a.Keyword,
		Report:        decodeReport(a.Report),
		FailedSources: failed,
		Archived:      a.BundleObjectKey != nil,
		CreatedAt:     a.CreatedAt,
		CompletedAt:   a.CompletedAt,
	}
}
