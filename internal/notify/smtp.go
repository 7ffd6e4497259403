package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"sgea/internal/platform/config"
)

// SMTPSender delivers mail over plain SMTP. Good enough for the campus relay
// this system runs behind; swap the Sender for anything fancier.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	return smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, []byte(b.String()))
}
