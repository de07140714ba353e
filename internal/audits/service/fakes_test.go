package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"leadscout_backend/internal/audits/repository"
	"leadscout_backend/internal/dataforseo"
	"leadscout_backend/internal/email"
	"leadscout_backend/internal/location"
	"leadscout_backend/internal/pitch"
	"leadscout_backend/internal/scoring"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixtureNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func loadBundle(t *testing.T) scoring.Bundle {
	t.Helper()
	raw, err := os.ReadFile("../../scoring/testdata/bundle.json")
	require.NoError(t, err)
	var b scoring.Bundle
	require.NoError(t, json.Unmarshal(raw, &b))
	return b
}

type memRepo struct {
	mu      sync.Mutex
	audits  map[uuid.UUID]repository.Audit
	failErr error
}

func newMemRepo() *memRepo {
	return &memRepo{audits: make(map[uuid.UUID]repository.Audit)}
}

func (r *memRepo) Create(_ context.Context, p repository.CreateParams) (repository.Audit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := repository.Audit{
		ID:            p.ID,
		CreatedBy:     p.CreatedBy,
		Status:        repository.StatusPending,
		BusinessName:  p.BusinessName,
		Domain:        p.Domain,
		LocationInput: p.LocationInput,
		LocationCode:  p.LocationCode,
		LocationName:  p.LocationName,
		Keyword:       p.Keyword,
		FailedSources: []string{},
		CreatedAt:     fixtureNow,
	}
	r.audits[a.ID] = a
	return a, nil
}

func (r *memRepo) Complete(_ context.Context, p repository.CompleteParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	a, ok := r.audits[p.ID]
	if !ok {
		return apperr.NotFound("audit not found")
	}
	a.Status = repository.StatusCompleted
	a.Error = nil
	a.LeadScore = &p.LeadScore
	a.PresenceScore = &p.PresenceScore
	a.SEOScore = &p.SEOScore
	a.AdsScore = &p.AdsScore
	a.EngagementScore = &p.EngagementScore
	a.OpportunityScore = &p.OpportunityScore
	a.ScoreVersion = &p.ScoreVersion
	a.Report = p.Report
	a.FailedSources = p.FailedSources
	if p.BundleObjectKey != nil {
		a.BundleObjectKey = p.BundleObjectKey
	}
	completed := fixtureNow
	a.CompletedAt = &completed
	r.audits[p.ID] = a
	return nil
}

func (r *memRepo) Fail(_ context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.audits[id]
	if !ok {
		return apperr.NotFound("audit not found")
	}
	a.Status = repository.StatusFailed
	a.Error = &reason
	r.audits[id] = a
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Audit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.audits[id]
	if !ok {
		return repository.Audit{}, apperr.NotFound("audit not found")
	}
	return a, nil
}

func (r *memRepo) sorted() []repository.Audit {
	items := make([]repository.Audit, 0, len(r.audits))
	for _, a := range r.audits {
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return items
}

func (r *memRepo) List(_ context.Context, p repository.ListParams) ([]repository.Audit, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]repository.Audit, 0)
	for _, a := range r.sorted() {
		if p.Status != "" && a.Status != p.Status {
			continue
		}
		if p.MinLeadScore != nil && (a.LeadScore == nil || *a.LeadScore < *p.MinLeadScore) {
			continue
		}
		matched = append(matched, a)
	}
	total := len(matched)
	if p.Offset >= total {
		return []repository.Audit{}, total, nil
	}
	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	return matched[p.Offset:end], total, nil
}

func (r *memRepo) ListCompleted(_ context.Context, limit int) ([]repository.Audit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Audit, 0)
	for _, a := range r.sorted() {
		if a.Status == repository.StatusCompleted && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) ListArchived(_ context.Context, limit int) ([]repository.Audit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.Audit, 0)
	for _, a := range r.sorted() {
		if a.Status == repository.StatusCompleted && a.BundleObjectKey != nil && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) FailStalePending(_ context.Context, before time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.audits {
		if a.Status == repository.StatusPending && a.CreatedAt.Before(before) {
			a.Status = repository.StatusFailed
			a.Error = &reason
			r.audits[id] = a
			n++
		}
	}
	return n, nil
}

type stubFetcher struct {
	bundle scoring.Bundle
	failed []string
	calls  int
	last   dataforseo.Request
}

func (f *stubFetcher) FetchBundle(_ context.Context, req dataforseo.Request) (scoring.Bundle, dataforseo.FetchReport) {
	f.calls++
	f.last = req
	return f.bundle, dataforseo.FetchReport{Failed: f.failed}
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) PutJSON(_ context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return body, nil
}

type stubQueue struct {
	ids []uuid.UUID
	err error
}

func (q *stubQueue) EnqueueAudit(_ context.Context, id uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type stubPitch struct {
	in  pitch.Input
	out string
	err error
}

func (p *stubPitch) Generate(_ context.Context, in pitch.Input) (string, error) {
	p.in = in
	return p.out, p.err
}

type stubMailer struct {
	to     string
	report email.ReportEmail
	err    error
}

func (m *stubMailer) SendAuditReport(_ context.Context, to string, r email.ReportEmail) error {
	m.to = to
	m.report = r
	return m.err
}

type countingObserver struct {
	audits int
	lead   int
}

func (o *countingObserver) ObserveAudit(lead, _ int) {
	o.audits++
	o.lead = lead
}

type harness struct {
	svc     *Service
	repo    *memRepo
	fetcher *stubFetcher
	store   *memStore
	obs     *countingObserver
}

func newHarness(t *testing.T, opts ...Option) harness {
	t.Helper()
	h := harness{
		repo:    newMemRepo(),
		fetcher: &stubFetcher{bundle: loadBundle(t), failed: []string{"backlinks"}},
		store:   newMemStore(),
		obs:     &countingObserver{},
	}
	base := []Option{
		WithObjectStore(h.store),
		WithObserver(h.obs),
		WithClock(func() time.Time { return fixtureNow }),
	}
	h.svc = New(h.repo, h.fetcher, location.NewDefaultResolver(), logger.Nop(), append(base, opts...)...)
	return h
}
