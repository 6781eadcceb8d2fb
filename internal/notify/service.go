package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/slotwise/bookingd/internal/scheduling"
	"github.com/slotwise/bookingd/pkg/logging"
)

// Service sends best-effort booking confirmation emails. Failures are logged
// and never surface to the booking flow.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails the client a booking confirmation.
func (s *Service) AppointmentBooked(ctx context.Context, toEmail string, appt *scheduling.Appointment, slot *scheduling.TimeSlot) {
	if s == nil || s.email == nil || toEmail == "" {
		return
	}
	body := fmt.Sprintf(
		"Your appointment on %s from %s to %s is confirmed.\nReference: %s",
		slot.Day.Format("Monday, 2 January 2006"),
		slot.StartTime.Format(time.Kitchen),
		slot.EndTime.Format(time.Kitchen),
		appt.ID,
	)
	s.send(ctx, EmailMessage{
		To:      toEmail,
		Subject: "Appointment confirmed",
		Body:    body,
	})
}

// AppointmentCancelled emails the client a cancellation notice.
func (s *Service) AppointmentCancelled(ctx context.Context, toEmail string, appt *scheduling.Appointment) {
	if s == nil || s.email == nil || toEmail == "" {
		return
	}
	s.send(ctx, EmailMessage{
		To:      toEmail,
		Subject: "Appointment cancelled",
		Body:    fmt.Sprintf("Your appointment %s has been cancelled. The slot is available again.", appt.ID),
	})
}

func (s *Service) send(ctx context.Context, msg EmailMessage) {
	// Detach from the request context so a finished request does not cancel
	// the send mid-flight.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.email.Send(sendCtx, msg); err != nil {
			s.logger.Warn("confirmation email failed", "to", msg.To, "error", err)
		}
	}()
}
