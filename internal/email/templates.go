package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type scoreLine struct {
	Label string
	Value int
}

type auditReportEmailData struct {
	baseEmailData
	Domain          string
	Location        string
	Scores          []scoreLine
	Recommendations []string
	Note            string
}

func newAuditReportEmailData(r ReportEmail) auditReportEmailData {
	return auditReportEmailData{
		baseEmailData: baseEmailData{
			Title:      fmt.Sprintf(subjectAuditReportFmt, r.BusinessName),
			Heading:    r.BusinessName,
			Subheading: fmt.Sprintf("Lead score %d / 100", r.LeadScore),
		},
		Domain:   r.Domain,
		Location: r.Location,
		Scores: []scoreLine{
			{Label: "Local presence", Value: r.PresenceScore},
			{Label: "SEO", Value: r.SEOScore},
			{Label: "Ads activity", Value: r.AdsScore},
			{Label: "Engagement", Value: r.EngagementScore},
			{Label: "Opportunity", Value: r.OpportunityScore},
		},
		Recommendations: r.Recommendations,
		Note:            r.Note,
	}
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
