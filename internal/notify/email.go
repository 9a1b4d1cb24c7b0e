// Package notify tells operators about refreshes that went wrong.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"dividend-backend/internal/components/telemetry"
	"dividend-backend/internal/financeapi"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("dividend.internal.notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
	// Always sends a report after every refresh instead of only after failed ones.
	Always bool `json:"always"`
}

// Enabled reports whether enough of the config is set to send mail.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.Recipients) > 0
}

type EmailNotifier struct {
	config SmtpConfig
	send   func(mail *email.Email) error
}

func NewEmailNotifier(config SmtpConfig) EmailNotifier {
	n := EmailNotifier{config: config}
	n.send = n.sendSmtp
	return n
}

func (n EmailNotifier) sendSmtp(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

func (n EmailNotifier) compose(report financeapi.RefreshReport, refreshErr error) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Dividend Backend <%s>", n.config.EmailAddress)
	mail.To = n.config.Recipients

	if refreshErr != nil {
		mail.Subject = fmt.Sprintf("Dividend refresh: %d of %d companies failed", len(report.Failed), report.Companies)
	} else {
		mail.Subject = fmt.Sprintf("Dividend refresh: %d companies refreshed", report.Companies)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Refresh started at %s.\n\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&body, "Companies: %d\n", report.Companies)
	fmt.Fprintf(&body, "Changed dividends: %d\n", report.Changed)
	if len(report.Failed) > 0 {
		fmt.Fprintf(&body, "Failed: %s\n", strings.Join(report.Failed, ", "))
	}
	if refreshErr != nil {
		fmt.Fprintf(&body, "\nErrors:\n%s\n", refreshErr.Error())
	}
	mail.Text = []byte(body.String())

	return mail
}

func (n EmailNotifier) NotifyRefresh(ctx context.Context, report financeapi.RefreshReport, refreshErr error) error {
	_, span := tracer.Start(ctx, "NotifyRefresh")
	defer span.End()

	if refreshErr == nil && !n.config.Always {
		return nil
	}

	err := n.send(n.compose(report, refreshErr))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
