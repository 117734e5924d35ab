package publisher

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/tshibata/link-digest/internal/summarizer"
)

// EmailPublisher sends the digest as a plain-text email via SMTP.
type EmailPublisher struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

func NewEmailPublisher(host string, port int, username, password, from string, to []string) *EmailPublisher {
	return &EmailPublisher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (p *EmailPublisher) Publish(_ context.Context, digest *summarizer.Digest) error {
	subject := fmt.Sprintf("Daily Link Digest — %s", digest.Date.Format("2006-01-02"))
	body := buildEmailBody(digest)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		p.from,
		strings.Join(p.to, ","),
		subject,
		body,
	)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	if err := smtp.SendMail(addr, auth, p.from, p.to, []byte(msg)); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}

	return nil
}

// buildEmailBody prefixes the markdown summary with the run counts,
// so an empty or thin digest is explainable from the mail alone.
func buildEmailBody(digest *summarizer.Digest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Links found: %d\nItems extracted: %d\n\n", digest.LinksFound, digest.Extracted))
	sb.WriteString(digest.Summary)
	sb.WriteString("\n")
	return sb.String()
}
