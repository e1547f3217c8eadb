package delivery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	applog "spendcraft/internal/log"
)

// Mailer sends generated reports as email attachments over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendReport delivers the rendered report to the destination address. A
// failed delivery is returned to the caller so the dispatch can be retried.
func (m *Mailer) SendReport(ctx context.Context, destination, subject, body, filename string, attachment []byte) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender %q: %w", m.from, err)
	}
	if err := msg.To(destination); err != nil {
		return fmt.Errorf("set recipient %q: %w", destination, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	if len(attachment) > 0 {
		if err := msg.AttachReader(filename, bytes.NewReader(attachment)); err != nil {
			return fmt.Errorf("attach %q: %w", filename, err)
		}
	}

	opts := []mail.Option{mail.WithPort(m.port)}
	if m.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.username),
			mail.WithPassword(m.password),
		)
	}

	client, err := mail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send report to %q: %w", destination, err)
	}

	slog.InfoContext(ctx, "Report mail sent",
		applog.FieldComponent, applog.ComponentDelivery,
		applog.FieldDestination, destination,
		"attachment", filename)
	return nil
}
