package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zealsham/appointment-ai-agent/internal/schedule"
	"github.com/zealsham/appointment-ai-agent/pkg/logging"
)

// Service builds and sends appointment-change notifications.
type Service struct {
	email            EmailSender
	defaultRecipient string
	logger           *logging.Logger
}

// NewService creates a notification service. defaultRecipient is used when a
// session has no email on file.
func NewService(email EmailSender, defaultRecipient string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, defaultRecipient: defaultRecipient, logger: logger}
}

// AppointmentChanged sends the confirmation email for a booked, canceled, or
// updated appointment. action is the past-tense verb ("booked").
func (s *Service) AppointmentChanged(ctx context.Context, name, action, date, tm, reason, email string) error {
	if s == nil || s.email == nil {
		return nil
	}
	to := email
	if to == "" {
		to = s.defaultRecipient
	}
	if to == "" {
		s.logger.Debug("no notification recipient, skipping email", "action", action)
		return nil
	}
	if name == "" {
		name = "User"
	}
	if reason == "" {
		reason = "checkup"
	}

	msg := EmailMessage{
		To:      to,
		ToName:  name,
		Subject: "Appointment " + capitalize(action),
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour appointment has been successfully %s.\n\nDetails:\n- Date: %s\n- Time: %s\n- Reason: %s\n\nThank you for using our appointment system!\n\nBest regards,\nAppointment Assistant\n",
			name, action, date, schedule.Label(tm), reason,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: appointment %s email: %w", action, err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
