package email

import (
	"context"
	"fmt"
	"time"

	"leadscout_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPSender delivers reports through a relay using go-mail. A new
// connection is dialled per message.
type SMTPSender struct {
	host     string
	opts     []gomail.Option
	fromName string
	fromAddr string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	opts := []gomail.Option{
		gomail.WithPort(cfg.GetSMTPPort()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
	}
	if user := cfg.GetSMTPUsername(); user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(cfg.GetSMTPPassword()),
		)
	}
	return &SMTPSender{
		host:     cfg.GetSMTPHost(),
		opts:     opts,
		fromName: cfg.GetEmailFromName(),
		fromAddr: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) SendAuditReport(ctx context.Context, toEmail string, report ReportEmail) error {
	html, err := renderEmailTemplate("audit_report.html", newAuditReportEmailData(report))
	if err != nil {
		return err
	}
	msg, err := s.message(toEmail, fmt.Sprintf(subjectAuditReportFmt, report.BusinessName), html)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", toEmail, err)
	}
	return nil
}

func (s *SMTPSender) message(to, subject, html string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddr); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)
	return msg, nil
}
