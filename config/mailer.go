package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"

	mail "github.com/go-mail/mail/v2"
)

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string // e.g. "Visa Consult <no-reply@your.org>"
	AdminEmail    string // operator address notified on every submission
	SkipTLSVerify bool
}

// LoadSMTPConfig reads the transport settings from the environment.
func LoadSMTPConfig() SMTPConfig {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return SMTPConfig{
		Host:          os.Getenv("SMTP_HOST"),
		Port:          port,
		User:          os.Getenv("SMTP_USER"),
		Pass:          os.Getenv("SMTP_PASS"),
		From:          os.Getenv("SMTP_FROM"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

// Configured reports whether the transport can actually send.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SendMail delivers one HTML message over STARTTLS.
func (c SMTPConfig) SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !c.Configured() {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(c.Host, c.Port, c.User, c.Pass)

	// Mandatory STARTTLS on port 587 (Gmail/Office365 style).
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         c.Host,
		InsecureSkipVerify: c.SkipTLSVerify, // dev only
	}

	return d.DialAndSend(m)
}
