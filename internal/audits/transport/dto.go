package transport

import (
	"time"

	"leadscout_backend/internal/scoring"
)

type CreateAuditRequest struct {
	BusinessName string `json:"businessName" validate:"required,max=200"`
	Domain       string `json:"domain" validate:"required,max=253"`
	Location     string `json:"location" validate:"max=200"`
	Keyword      string `json:"keyword" validate:"max=200"`
	Async        bool   `json:"async"`
}

type LocationResponse struct {
	Input string `json:"input"`
	Code  int    `json:"code"`
	Name  string `json:"name"`
}

type AuditResponse struct {
	ID            string           `json:"id"`
	Status        string           `json:"status"`
	Error         *string          `json:"error,omitempty"`
	BusinessName  string           `json:"businessName"`
	Domain        string           `json:"domain"`
	Location      LocationResponse `json:"location"`
	Keyword       string           `json:"keyword,omitempty"`
	Report        *scoring.Report  `json:"report,omitempty"`
	FailedSources []string         `json:"failedSources"`
	Archived      bool             `json:"archived"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
}

type ListAuditsRequest struct {
	Status       string `form:"status" validate:"omitempty,oneof=pending completed failed"`
	Domain       string `form:"domain" validate:"max=253"`
	MinLeadScore *int   `form:"minLeadScore" validate:"omitempty,min=0,max=100"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=createdAt leadScore opportunityScore domain"`
	SortOrder    string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type AuditSummary struct {
	ID               string    `json:"id"`
	Status           string    `json:"status"`
	BusinessName     string    `json:"businessName"`
	Domain           string    `json:"domain"`
	LocationName     string    `json:"locationName"`
	LeadScore        *int      `json:"leadScore"`
	OpportunityScore *int      `json:"opportunityScore"`
	CreatedAt        time.Time `json:"createdAt"`
}

type AuditListResponse struct {
	Items      []AuditSummary `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type ExportRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=5000"`
}

type PitchResponse struct {
	AuditID string `json:"auditId"`
	Pitch   string `json:"pitch"`
}

type EmailAuditRequest struct {
	To   string `json:"to" validate:"required,email"`
	Note string `json:"note" validate:"max=1000"`
}

type EmailAuditResponse struct {
	AuditID string `json:"auditId"`
	Sent    bool   `json:"sent"`
}

type RescoreSummary struct {
	Rescored int      `json:"rescored"`
	Failed   []string `json:"failed"`
}

// EvaluateRequest scores caller-supplied payloads without touching upstream
// providers or storage. AsOf pins the evaluation clock.
type EvaluateRequest struct {
	BusinessName string         `json:"businessName" validate:"required,max=200"`
	Domain       string         `json:"domain" validate:"required,max=253"`
	Location     string         `json:"location" validate:"max=200"`
	Bundle       scoring.Bundle `json:"bundle"`
	AsOf         *time.Time     `json:"asOf"`
}

type ResolveLocationRequest struct {
	Query string `form:"q" validate:"max=200"`
}

type ResolveLocationResponse struct {
	Input string `json:"input"`
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
