package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() ReportEmail {
	return ReportEmail{
		BusinessName:     "Lakeview Dental",
		Domain:           "lakeviewdental.com",
		Location:         "Chicago,Illinois,United States",
		LeadScore:        63,
		PresenceScore:    83,
		SEOScore:         59,
		AdsScore:         49,
		EngagementScore:  51,
		OpportunityScore: 45,
		Recommendations:  []string{"Add FAQ schema", "Reply to <every> review"},
	}
}

func TestRenderAuditReport(t *testing.T) {
	html, err := renderEmailTemplate("audit_report.html", newAuditReportEmailData(sampleReport()))
	require.NoError(t, err)

	assert.Contains(t, html, "<h1 style=\"font-size: 22px; margin: 0 0 4px;\">Lakeview Dental</h1>")
	assert.Contains(t, html, "Lead score 63 / 100")
	assert.Contains(t, html, "<strong>59</strong>")
	assert.Contains(t, html, "<li>Add FAQ schema</li>")
	assert.Contains(t, html, "Reply to &lt;every&gt; review")
}

func TestSMTPMessageHeaders(t *testing.T) {
	s := NewSMTPSender(smtpConfig{host: "smtp.example.com"})

	msg, err := s.message("owner@lakeviewdental.com", "Marketing audit for Lakeview Dental", "<p>hi</p>")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Marketing audit for Lakeview Dental")
	assert.Contains(t, raw, "owner@lakeviewdental.com")
	assert.Contains(t, raw, "audits@example.com")
}

func TestSMTPMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender(smtpConfig{host: "smtp.example.com"})
	_, err := s.message("not an address", "x", "y")
	assert.Error(t, err)
}

type smtpConfig struct{ host string }

func (c smtpConfig) GetSMTPHost() string         { return c.host }
func (c smtpConfig) GetSMTPPort() int            { return 587 }
func (c smtpConfig) GetSMTPUsername() string     { return "" }
func (c smtpConfig) GetSMTPPassword() string     { return "" }
func (c smtpConfig) GetEmailFromName() string    { return "LeadScout" }
func (c smtpConfig) GetEmailFromAddress() string { return "audits@example.com" }
func (c smtpConfig) IsSMTPEnabled() bool         { return c.host != "" }

func TestNewSender(t *testing.T) {
	assert.IsType(t, NoopSender{}, NewSender(smtpConfig{}))
	assert.IsType(t, &SMTPSender{}, NewSender(smtpConfig{host: "smtp.example.com"}))

	assert.NoError(t, NoopSender{}.SendAuditReport(context.Background(), "a@b.c", sampleReport()))
}
