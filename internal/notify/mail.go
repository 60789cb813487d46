package notify

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
)

// Mail is one outgoing message. HTML is optional and sent as an
// alternative to Text.
type Mail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPMailer sends through an SMTP relay, with PLAIN auth when a user is set.
type SMTPMailer struct {
	host string
	from string
	opts []gomail.Option
}

func NewSMTPMailer(host, port, user, pass, from string) (*SMTPMailer, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", port, err)
	}
	opts := []gomail.Option{
		gomail.WithPort(p),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(pass),
		)
	}
	if _, err := gomail.NewClient(host, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	if err := gomail.NewMsg().From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	return &SMTPMailer{host: host, from: from, opts: opts}, nil
}

// Send dials a fresh connection per message; the queue workers call it
// concurrently.
func (m *SMTPMailer) Send(ctx context.Context, msg Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	built, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(m.host, m.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, built)
}

// buildMessage leaves header encoding to go-mail, which Q-encodes values
// carrying control or non-ASCII characters.
func buildMessage(from string, m Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("sender %q: %w", from, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	if m.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)
	}
	return msg, nil
}

// LogMailer only logs, used when no SMTP host is configured.
type LogMailer struct {
	logger log.FieldLogger
}

func NewLogMailer(logger log.FieldLogger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Mail) error {
	m.logger.WithFields(log.Fields{"to": msg.To, "subject": msg.Subject}).Info("📧 mail not sent, SMTP is not configured")
	return nil
}
