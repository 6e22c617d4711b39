package mail

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/gomail.v2"

	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
)

// Mailer sends a single HTML e-mail.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// LoadConfig reads the SMTP_* environment keys.
func LoadConfig() Config {
	cfg := Config{
		Enabled:  env.GetBool("SMTP_ENABLED", false),
		Host:     env.GetEnv("SMTP_HOST", "localhost"),
		Port:     env.GetInt("SMTP_PORT", 587),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   env.GetEnv("SMTP_SENDER", ""),
	}
	if cfg.Sender == "" {
		cfg.Sender = "no-reply@localhost"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", cfg.Sender)
	}
	return cfg
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	dialer *gomail.Dialer
	sender string
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender: cfg.Sender,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := NewMessage(m.sender, to, subject, htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Errorf("[Mail] SMTP send error: %v", err)
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	log.Infof("[Mail] Email sent to %s via %s:%d", to, m.dialer.Host, m.dialer.Port)
	return nil
}

// NewMessage builds the MIME message for an HTML e-mail.
func NewMessage(from, to, subject, htmlBody string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(from, "FreelanceFlow"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return m
}
