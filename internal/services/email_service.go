package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// AdminNotifier carries best-effort operator notifications. Failures on this
// path are logged, never surfaced to end users.
type AdminNotifier interface {
	NotifyAdmin(subject, body string) error
}

// Mailer sends customer-facing HTML email.
type Mailer interface {
	SendHTML(to, subject, htmlBody string) error
}

// EmailService sends mail over SMTP. It backs both the admin fallback
// channel and customer quote delivery.
type EmailService struct {
	host       string
	port       int
	username   string
	password   string
	adminEmail string
}

// NewEmailService creates an EmailService.
func NewEmailService(host string, port int, username, password, adminEmail string) *EmailService {
	return &EmailService{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		adminEmail: adminEmail,
	}
}

// NotifyAdmin sends a plain-text message to the operator mailbox. When SMTP
// credentials are missing the message is skipped with a log line.
func (s *EmailService) NotifyAdmin(subject, body string) error {
	if s.username == "" || s.password == "" {
		log.Println("[Email] EMAIL_USER/EMAIL_PASS not configured, skipping")
		return nil
	}
	return s.send(s.adminEmail, subject, body, false)
}

// SendHTML sends an HTML message to an arbitrary recipient.
func (s *EmailService) SendHTML(to, subject, htmlBody string) error {
	if s.username == "" || s.password == "" {
		log.Println("[Email] EMAIL_USER/EMAIL_PASS not configured, skipping")
		return nil
	}
	return s.send(to, subject, htmlBody, true)
}

func (s *EmailService) send(to, subject, body string, html bool) error {
	contentType := "text/plain; charset=UTF-8"
	if html {
		contentType = "text/html; charset=UTF-8"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.username)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s\r\n", contentType)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	if err := smtp.SendMail(addr, auth, s.username, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
