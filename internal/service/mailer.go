package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/community-hub/internal/config"
	"github.com/iliyamo/community-hub/internal/metrics"
)

// Recipients decodes either a single address or a list of addresses.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one = strings.TrimSpace(one); one != "" {
			*r = Recipients{one}
		} else {
			*r = nil
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be a string or an array of strings")
	}
	out := make(Recipients, 0, len(many))
	for _, m := range many {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	*r = out
	return nil
}

// EmailMessage is the dispatch request.
type EmailMessage struct {
	To               Recipients `json:"to"`
	Subject          string     `json:"subject"`
	Text             string     `json:"text,omitempty"`
	HTML             string     `json:"html,omitempty"`
	AttachmentBase64 string     `json:"attachmentBase64,omitempty"`
	Filename         string     `json:"filename,omitempty"`
}

// Validate checks for at least one recipient, a subject and a body.
func (m EmailMessage) Validate() error {
	if len(m.To) == 0 || strings.TrimSpace(m.Subject) == "" || (m.Text == "" && m.HTML == "") {
		return ErrInvalidEmail
	}
	return nil
}

// Attachment is a decoded file attached to an outgoing mail.
type Attachment struct {
	Filename string
	Content  []byte
}

// OutgoingMail is a validated message ready for the relay.
type OutgoingMail struct {
	From       string
	To         []string
	Subject    string
	Text       string
	HTML       string
	Attachment *Attachment
}

// MailSender delivers a message to a relay.
type MailSender interface {
	Send(ctx context.Context, m OutgoingMail) error
}

// SMTPSender delivers through an SMTP relay.  Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when the server offers it.
type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.SSL = cfg.Port == 465
	return &SMTPSender{dialer: d}
}

func (s *SMTPSender) Send(_ context.Context, out OutgoingMail) error {
	m := gomail.NewMessage()
	m.SetHeader("From", out.From)
	m.SetHeader("To", out.To...)
	m.SetHeader("Subject", out.Subject)
	switch {
	case out.Text != "" && out.HTML != "":
		m.SetBody("text/plain", out.Text)
		m.AddAlternative("text/html", out.HTML)
	case out.HTML != "":
		m.SetBody("text/html", out.HTML)
	default:
		m.SetBody("text/plain", out.Text)
	}
	if a := out.Attachment; a != nil {
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(a.Content)
			return err
		}))
	}
	return s.dialer.DialAndSend(m)
}

// Mailer validates dispatch requests and hands them to a sender.
type Mailer struct {
	sender  MailSender
	from    string
	metrics *metrics.Metrics
}

// NewMailer returns a mailer.  from defaults to the SMTP user.  A nil
// sender makes every dispatch fail with ErrNotConfigured.
func NewMailer(sender MailSender, cfg config.SMTPConfig, m *metrics.Metrics) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &Mailer{sender: sender, from: from, metrics: m}
}

// Dispatch validates msg and sends it.  Relay failures come back as
// *UpstreamError carrying the relay's message.
func (s *Mailer) Dispatch(ctx context.Context, msg EmailMessage) error {
	if err := msg.Validate(); err != nil {
		s.metrics.IncEmail("invalid")
		return err
	}
	out := OutgoingMail{From: s.from, To: msg.To, Subject: msg.Subject, Text: msg.Text, HTML: msg.HTML}
	if msg.AttachmentBase64 != "" && msg.Filename != "" {
		content, err := base64.StdEncoding.DecodeString(msg.AttachmentBase64)
		if err != nil {
			s.metrics.IncEmail("invalid")
			return fmt.Errorf("%w: attachment is not valid base64", ErrInvalidEmail)
		}
		out.Attachment = &Attachment{Filename: msg.Filename, Content: content}
	}
	if s.sender == nil {
		s.metrics.IncEmail("error")
		return ErrNotConfigured
	}
	if err := s.sender.Send(ctx, out); err != nil {
		s.metrics.IncEmail("error")
		return &UpstreamError{Service: "smtp", Err: err}
	}
	s.metrics.IncEmail("ok")
	return nil
}
