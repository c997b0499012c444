package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// メール送信の約束。認証メールと注文確認メールで使う。
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type SMTPMailer struct {
	addr string // host:port
	from string
}

func NewSMTPMailer(addr string, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, to string, subject string, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

// 開発用：送らずログに出すだけ
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to string, subject string, body string) error {
	m.log.Info("mail (not sent, dev mode)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
