package mailer

import (
	"fmt"
	"time"

	"github.com/IamMattHenry/hris-sub000/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers a plaintext recovery code to an address. Failures are the
// caller's to log; the recovery flow never surfaces them.
type Sender interface {
	Send(to, code string, ttl time.Duration) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(to, code string, ttl time.Duration) error

func (f SenderFunc) Send(to, code string, ttl time.Duration) error {
	return f(to, code, ttl)
}

// Mailer sends recovery codes over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (m *Mailer) Send(to, code string, ttl time.Duration) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your password reset code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your password reset code is: %s\n\n"+
			"It expires in %d minutes. If you did not request a reset, you can ignore this email.",
		code, int(ttl.Minutes()),
	))

	return m.dialer.DialAndSend(msg)
}
