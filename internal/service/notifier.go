package service

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/piteam/pi_api/internal/config"
	"github.com/piteam/pi_api/internal/models"
)

// Notifier delivers verification codes to subscribers. Implementations never
// fail the caller: delivery problems degrade to a logged fallback and the
// return value only reports whether real delivery happened.
type Notifier interface {
	SendVerificationCode(email, code string, subType models.SubscriptionType) bool
}

// subscriptionTypeNames maps subscription types to the display names used in
// email subjects.
var subscriptionTypeNames = map[models.SubscriptionType]string{
	models.TypeBroker:       "Broker",
	models.TypeCompany:      "Company",
	models.TypeProfessional: "Professional",
}

// EmailNotifier sends verification codes over SMTP. When SMTP is not
// configured, every send falls through to the console fallback.
type EmailNotifier struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
}

// NewEmailNotifier constructs an EmailNotifier. A nil dialer is used when the
// SMTP configuration is incomplete; the notifier still works as a log sink.
func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg}
	if cfg.Configured() {
		n.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	} else {
		log.Warn().Msg("SMTP not configured - verification codes will be logged instead of emailed")
	}
	return n
}

// SendVerificationCode emails the code to the subscriber. Returns true only
// when SMTP delivery succeeded; on any failure the code is logged so that
// development flows keep working.
func (n *EmailNotifier) SendVerificationCode(email, code string, subType models.SubscriptionType) bool {
	typeName := subscriptionTypeNames[subType]
	if typeName == "" {
		typeName = "Subscriber"
	}
	subject := fmt.Sprintf("Verification code - %s subscription", typeName)

	if n.dialer != nil {
		m := gomail.NewMessage()
		m.SetHeader("From", n.cfg.From)
		m.SetHeader("To", email)
		m.SetHeader("Subject", subject)
		m.SetBody("text/html", verificationBody(code, typeName))

		if err := n.dialer.DialAndSend(m); err == nil {
			log.Info().Str("email", email).Msg("verification email sent")
			return true
		} else {
			log.Error().Err(err).Str("email", email).Msg("failed to send verification email")
		}
	}

	// Fallback: log the code so development without SMTP still works.
	log.Info().
		Str("email", email).
		Str("subject", subject).
		Str("code", code).
		Msg("verification email fallback")
	return false
}

func verificationBody(code, typeName string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
  <h2>Hello,</h2>
  <p>Thank you for registering a %s subscription.</p>
  <p>Your verification code is:</p>
  <div style="background-color: #f0f0f0; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; margin: 20px 0; border-radius: 8px;">%s</div>
  <p>This code is valid for 15 minutes.</p>
  <p>If you did not request this code, please ignore this email.</p>
  <p>Regards,<br>The PI team</p>
</div>`, typeName, code)
}
