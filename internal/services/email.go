package services

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mantty/host-api/internal/config"
	"github.com/mantty/host-api/pkg/apperror"
	"github.com/mantty/host-api/pkg/entitlements"
	"github.com/rs/zerolog"
)

const (
	EmailModeHTTP      = "http"
	EmailModeSMTP      = "smtp"
	EmailModeSimulated = "simulated"
)

// EmailService delivers mail through the HTTP provider when an API key is set,
// otherwise through SMTP. With neither configured, sends are logged and
// reported as simulated.
type EmailService struct {
	smtp config.SMTPConfig
	from string
	api  *resty.Client
	log  zerolog.Logger
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailAPIError struct {
	Message string `json:"message"`
}

func NewEmailService(cfg config.EmailConfig, smtpCfg config.SMTPConfig, log zerolog.Logger) *EmailService {
	s := &EmailService{smtp: smtpCfg, from: cfg.From, log: log}
	if cfg.APIKey != "" {
		s.api = resty.New().
			SetBaseURL(cfg.APIURL).
			SetTimeout(10*time.Second).
			SetAuthToken(cfg.APIKey).
			SetHeader("Content-Type", "application/json")
	}
	return s
}

func (s *EmailService) IsConfigured() bool {
	return s.smtp.Host != "" && s.smtp.Username != "" && s.smtp.Password != "" && s.smtp.From != ""
}

func (s *EmailService) Mode() string {
	switch {
	case s.api != nil:
		return EmailModeHTTP
	case s.IsConfigured():
		return EmailModeSMTP
	default:
		return EmailModeSimulated
	}
}

// Send returns simulated=true when no delivery channel is configured.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) (simulated bool, err error) {
	switch s.Mode() {
	case EmailModeHTTP:
		return false, s.sendHTTP(ctx, to, subject, body)
	case EmailModeSMTP:
		return false, s.sendSMTP(to, subject, body)
	default:
		s.log.Info().Str("to", to).Str("subject", subject).Msg("email delivery simulated")
		return true, nil
	}
}

func (s *EmailService) sendHTTP(ctx context.Context, to, subject, body string) error {
	var apiErr emailAPIError
	resp, err := s.api.R().
		SetContext(ctx).
		SetBody(emailPayload{From: s.from, To: []string{to}, Subject: subject, HTML: body}).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return apperror.RemoteFailure("email provider unreachable", err)
	}
	if resp.IsError() {
		s.log.Error().Int("status", resp.StatusCode()).Str("error", apiErr.Message).Msg("email provider rejected message")
		return apperror.RemoteFailure(fmt.Sprintf("email provider returned %d", resp.StatusCode()), nil)
	}
	return nil
}

func (s *EmailService) sendSMTP(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.smtp.Host, s.smtp.Port)
	auth := smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.smtp.From, to, subject, body)

	if err := smtp.SendMail(addr, auth, s.smtp.From, []string{to}, []byte(msg)); err != nil {
		return apperror.RemoteFailure("smtp delivery failed", err)
	}
	return nil
}

func (s *EmailService) SendInvite(ctx context.Context, to, unitName, role, inviteLink string) (bool, error) {
	label := entitlements.Role(role).Description()
	if label == "" {
		label = role
	}

	subject := fmt.Sprintf("Invitación a %s en Mantty Host", unitName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Te invitaron a Mantty Host</h2>
			<p>Fuiste invitado a <strong>%s</strong> como <strong>%s</strong>.</p>
			<p><a href="%s">Acepta la invitación</a></p>
			<p>El enlace vence en 7 días.</p>
		</body>
		</html>
	`, html.EscapeString(unitName), html.EscapeString(label), html.EscapeString(inviteLink))

	return s.Send(ctx, to, subject, body)
}
