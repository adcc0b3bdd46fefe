package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers one-time codes. purpose is "signup", "recovery" or "email".
type Mailer interface {
	SendOTP(to, code, purpose string) error
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func GetEmailConfig() *EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@storefront.local"
	}
	return &EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
	}
}

// EmailService sends mail over SMTP. Without SMTP_HOST it only logs, which
// is how codes are read during local development.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(config *EmailConfig) *EmailService {
	if config.Host == "" {
		log.Println("SMTP not configured - emails will be written to the log")
		return &EmailService{from: config.From}
	}
	return &EmailService{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

func (es *EmailService) SendOTP(to, code, purpose string) error {
	if es.dialer == nil {
		log.Printf("Email disabled. %s code for %s: %s", purpose, to, code)
		return nil
	}

	subject, intro := otpCopy(purpose)
	body := fmt.Sprintf(`<h2>%s</h2>
<p>%s</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">%s</p>
<p>This code expires in %d minutes. If you didn't request it, you can safely ignore this email.</p>`,
		subject, intro, code, int(OTPTTL.Minutes()))

	m := gomail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		log.Printf("Failed to send %s code to %s: %v", purpose, to, err)
		return err
	}
	return nil
}

func otpCopy(purpose string) (subject, intro string) {
	switch purpose {
	case "signup":
		return "Confirm your account", "Enter this code in the app to confirm your email address:"
	case "recovery":
		return "Reset your password", "Enter this code in the app to choose a new password:"
	default:
		return "Your sign-in code", "Enter this code in the app to sign in:"
	}
}
