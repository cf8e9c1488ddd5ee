package mail

import (
	"context"
	"fmt"

	"marketplace/internal/config"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTP経由のメール送信。usecase.Mailerの実装。
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.Config) *SMTPMailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return &SMTPMailer{
		dialer: d,
		from:   cfg.MailFrom,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	//同期送信なのでctxが死んでいたら始めない
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@marketplace>", uuid.NewString()))
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
