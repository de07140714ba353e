// Package email delivers audit reports by mail.
package email

import (
	"context"

	"leadscout_backend/platform/config"
)

// ReportEmail is the audit summary sent to a recipient.
type ReportEmail struct {
	BusinessName     string
	Domain           string
	Location         string
	LeadScore        int
	PresenceScore    int
	SEOScore         int
	AdsScore         int
	EngagementScore  int
	OpportunityScore int
	Recommendations  []string
	Note             string
}

// Sender delivers report emails.
type Sender interface {
	SendAuditReport(ctx context.Context, toEmail string, report ReportEmail) error
}

// NoopSender drops every message.
type NoopSender struct{}

func (NoopSender) SendAuditReport(ctx context.Context, toEmail string, report ReportEmail) error {
	return nil
}

// NewSender returns an SMTP sender, or NoopSender when SMTP is not configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg)
}
