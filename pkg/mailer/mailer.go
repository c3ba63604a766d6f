package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/symbohub-api/pkg/config"
)

// Template names understood by the renderer.
const (
	TemplateCollegeRegistration = "college-registration"
	TemplateCollegeApproval     = "college-approval"
	TemplateCollegeRejection    = "college-rejection"
	TemplateBrochure            = "brochure-notification"
	TemplatePendingDigest       = "pending-digest"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a single templated email.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer turns a Message into an HTML body.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template named by msg.
func (r *Renderer) Render(msg Message) (string, error) {
	data := make(map[string]interface{}, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["CurrentYear"] = time.Now().Year()

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, msg.Template+".html", data); err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return buf.String(), nil
}

// New returns an SMTP sender, or a logging sender when no host is configured.
func New(cfg config.SMTPConfig, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		return &LogSender{renderer: renderer, logger: logger}, nil
	}
	return &SMTPSender{cfg: cfg, renderer: renderer, logger: logger, dialer: &net.Dialer{Timeout: 10 * time.Second}}, nil
}

// LogSender renders messages and logs them instead of sending.
type LogSender struct {
	renderer *Renderer
	logger   *zap.Logger
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if _, err := s.renderer.Render(msg); err != nil {
		return err
	}
	s.logger.Warn("smtp not configured, email dropped",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
	)
	return nil
}

// SMTPSender delivers mail over SMTP, using implicit TLS when UseTLS is set
// and STARTTLS when the server offers it otherwise.
type SMTPSender struct {
	cfg      config.SMTPConfig
	renderer *Renderer
	logger   *zap.Logger
	dialer   *net.Dialer
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: empty recipient")
	}
	body, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("connect smtp %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close() //nolint:errcheck

	if !s.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(s.compose(msg, body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	if err := client.Quit(); err != nil {
		s.logger.Debug("smtp quit failed", zap.Error(err))
	}
	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}

func (s *SMTPSender) dial(ctx context.Context, addr string) (net.Conn, error) {
	if s.cfg.UseTLS {
		td := &tls.Dialer{NetDialer: s.dialer, Config: &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}}
		return td.DialContext(ctx, "tcp", addr)
	}
	return s.dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) compose(msg Message, body string) []byte {
	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.cfg.FromName), s.cfg.From)
	}
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
