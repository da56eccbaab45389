package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a single templated email
type Message struct {
	To       string
	Name     string
	Subject  string
	Template string // file name under templates/ without the .html suffix
	ResetURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	host      string
	port      string
	username  string
	password  string
	from      string
	templates *template.Template
	send      sendFunc
}

func New(cfg config.MailConfig) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	return &Mailer{
		host:      strings.TrimSpace(cfg.Host),
		port:      strings.TrimSpace(cfg.Port),
		username:  cfg.Username,
		password:  cfg.Password,
		from:      strings.TrimSpace(cfg.From),
		templates: tmpl,
		send:      smtp.SendMail,
	}, nil
}

// DevMode reports whether messages are logged instead of delivered
func (m *Mailer) DevMode() bool {
	return m.username == "" || m.password == ""
}

// Render executes the message's template
func (m *Mailer) Render(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, msg.Template+".html", msg); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// Send renders and delivers msg. It returns ctx.Err() if the context is already done.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := m.Render(msg)
	if err != nil {
		return err
	}

	if m.DevMode() {
		// the link carries a live reset token and is left out
		logger.Info("Mail dev mode: message not sent", map[string]interface{}{
			"to":       msg.To,
			"subject":  msg.Subject,
			"template": msg.Template,
		})
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", m.from)
	fmt.Fprintf(&body, "To: %s\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	body.WriteString(html)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := m.send(net.JoinHostPort(m.host, m.port), auth, m.from, []string{msg.To}, []byte(body.String())); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":       msg.To,
			"template": msg.Template,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"to":       msg.To,
		"template": msg.Template,
	})
	return nil
}
