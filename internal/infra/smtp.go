package infra

import (
	"fmt"
	"net/smtp"

	"github.com/fullfullelectronic/pos-system-macos/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for operator notifications.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     from,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// Enviar sends a plain-text email.
func (m *Mailer) Enviar(to []string, subject, body string) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP_HOST no configurado")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
