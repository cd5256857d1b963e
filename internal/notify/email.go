// Package notify sends patient-facing email notifications. Delivery is
// best effort; booking outcomes never depend on it.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/acmedental/booking-agent/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SMTP) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender. Returns nil when
// no API key is configured; callers treat a nil sender as email disabled.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Acme Dental"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	var message *mail.SGMailV3
	if msg.HTML != "" {
		message = mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.HTML)
	} else {
		message = mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// StubEmailSender is a no-op sender for testing or when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}

// BookingConfirmation builds the confirmation email for a completed
// booking.
func BookingConfirmation(name, email, date, timeStr string) EmailMessage {
	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your dental checkup at Acme Dental is confirmed.\n\n"+
			"Date: %s\n"+
			"Time: %s\n"+
			"Duration: 30 minutes\n"+
			"Cost: €60\n\n"+
			"Please bring a valid photo ID, any relevant medical information, "+
			"and your insurance details if you have them. Arrive 5-10 minutes early.\n\n"+
			"Free cancellation up to 24 hours before your appointment.\n\n"+
			"See you soon,\nAcme Dental",
		name, date, timeStr,
	)
	return EmailMessage{
		To:      email,
		ToName:  name,
		Subject: "Your Acme Dental checkup is confirmed",
		Body:    body,
	}
}

// CancellationNotice builds the email sent after an appointment is
// cancelled.
func CancellationNotice(email, date, timeStr string) EmailMessage {
	body := fmt.Sprintf(
		"Your Acme Dental appointment on %s at %s has been cancelled.\n\n"+
			"Cancellation within 24 hours of the appointment may incur a €20 fee.\n\n"+
			"You can book a new checkup through our assistant at any time.\n\n"+
			"Acme Dental",
		date, timeStr,
	)
	return EmailMessage{
		To:      email,
		Subject: "Your Acme Dental appointment has been cancelled",
		Body:    body,
	}
}
