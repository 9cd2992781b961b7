package services

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"bilah/internal/config"
	"bilah/internal/models"
)

// EmailService sends contact-form notifications over SMTP. When SMTP is not
// configured the service stays up but only logs, so the contact flow never
// depends on a mailer being present.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	to     string
	log    *zap.Logger
}

// NewEmailService builds the mailer from config.
func NewEmailService(cfg config.SMTP, log *zap.Logger) *EmailService {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" {
		log.Info("smtp not configured, contact notifications disabled")
		return &EmailService{log: log}
	}
	return &EmailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.User,
		to:     cfg.To,
		log:    log,
	}
}

// SendContactNotification forwards a stored contact message to the shop
// inbox address.
func (es *EmailService) SendContactNotification(msg models.Message) error {
	if es.dialer == nil {
		es.log.Info("contact notification skipped, smtp disabled",
			zap.String("message_id", msg.ID))
		return nil
	}

	body := fmt.Sprintf(`
		<h2>New contact message</h2>
		<p><strong>From:</strong> %s &lt;%s&gt;</p>
		<p><strong>Subject:</strong> %s</p>
		<p>%s</p>
	`, msg.Name, msg.Email, msg.Subject, msg.Body)

	m := gomail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", es.to)
	m.SetHeader("Subject", "Contact: "+msg.Subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.log.Error("contact notification failed", zap.Error(err))
		return err
	}
	es.log.Info("contact notification sent", zap.String("message_id", msg.ID))
	return nil
}
