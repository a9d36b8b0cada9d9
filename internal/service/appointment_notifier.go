package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/gateway"
	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
)

// NotifierConfig carries the notification templates and timing knobs.
// Lead and follow-up delays are global defaults; an appointment can
// override both.
type NotifierConfig struct {
	ReminderLead   time.Duration
	FollowUpDelay  time.Duration
	GraceWindow    time.Duration
	SenderID       string
	RenderTimezone *time.Location

	ConfirmationTemplate string
	ReminderTemplate     string
	CancellationTemplate string
	FollowUpTemplate     string
}

// AppointmentNotifier runs four parallel at-most-once guards over the same
// appointment row, one per notification type. Each guard is a nullable
// sent-at timestamp: set only after a successful send, so a failed send is
// retried on a later tick.
type AppointmentNotifier struct {
	Appointments repository.AppointmentRepositoryInterface
	Messages     repository.MessageRepositoryInterface
	Gateway      gateway.Sender

	Config    NotifierConfig
	BatchSize int
	Log       *zap.Logger

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

func (n *AppointmentNotifier) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// SendConfirmationIfNeeded fires the booking confirmation once. Invoked
// synchronously right after booking; the poll tick also calls it so a
// missed synchronous send is caught later.
func (n *AppointmentNotifier) SendConfirmationIfNeeded(ctx context.Context, a *model.Appointment) error {
	if a.Status != model.AppointmentStatusBooked || a.ConfirmationSentAt != nil {
		return nil
	}
	return n.send(ctx, a, model.NotificationConfirmation, n.Config.ConfirmationTemplate)
}

// SendCancellationIfNeeded fires the cancellation notice once, invoked
// synchronously when an appointment is cancelled.
func (n *AppointmentNotifier) SendCancellationIfNeeded(ctx context.Context, a *model.Appointment) error {
	if a.Status != model.AppointmentStatusCancelled || a.CancellationSentAt != nil {
		return nil
	}
	return n.send(ctx, a, model.NotificationCancellation, n.Config.CancellationTemplate)
}

// ProcessDueNotificationsOnce runs one poll tick over notifiable
// appointments. Per-appointment failures are logged and do not halt the
// tick; the query error is returned for the scheduler to log.
func (n *AppointmentNotifier) ProcessDueNotificationsOnce(ctx context.Context) error {
	appointments, err := n.Appointments.ListNotifiable(n.BatchSize)
	if err != nil {
		return fmt.Errorf("scan notifiable appointments: %w", err)
	}

	now := n.now()
	for _, a := range appointments {
		switch a.Status {
		case model.AppointmentStatusBooked:
			if err := n.SendConfirmationIfNeeded(ctx, a); err != nil {
				n.Log.Warn("confirmation send failed", zap.Int("appointment_id", a.ID), zap.Error(err))
			}
			if a.ReminderSentAt == nil && n.withinWindow(now, a.ScheduledAt.Add(-n.reminderLead(a))) {
				if err := n.send(ctx, a, model.NotificationReminder, n.Config.ReminderTemplate); err != nil {
					n.Log.Warn("reminder send failed", zap.Int("appointment_id", a.ID), zap.Error(err))
				}
			}
		case model.AppointmentStatusCompleted:
			if a.FollowUpSentAt == nil && n.withinWindow(now, a.ScheduledAt.Add(n.followUpDelay(a))) {
				if err := n.send(ctx, a, model.NotificationFollowUp, n.Config.FollowUpTemplate); err != nil {
					n.Log.Warn("follow-up send failed", zap.Int("appointment_id", a.ID), zap.Error(err))
				}
			}
		}
	}
	return nil
}

// withinWindow reports whether now falls inside due ± grace. The grace
// window lets a late or early tick still catch the occurrence; the guard
// timestamp, not this arithmetic, provides at-most-once.
func (n *AppointmentNotifier) withinWindow(now, due time.Time) bool {
	diff := now.Sub(due)
	if diff < 0 {
		diff = -diff
	}
	return diff <= n.Config.GraceWindow
}

func (n *AppointmentNotifier) reminderLead(a *model.Appointment) time.Duration {
	if a.ReminderLeadMin != nil {
		return time.Duration(*a.ReminderLeadMin) * time.Minute
	}
	return n.Config.ReminderLead
}

func (n *AppointmentNotifier) followUpDelay(a *model.Appointment) time.Duration {
	if a.FollowUpMin != nil {
		return time.Duration(*a.FollowUpMin) * time.Minute
	}
	return n.Config.FollowUpDelay
}

func (n *AppointmentNotifier) send(ctx context.Context, a *model.Appointment, notificationType, template string) error {
	tz := n.Config.RenderTimezone
	if tz == nil {
		tz = time.UTC
	}
	body := RenderTemplate(template, map[string]string{
		"business_name": a.BusinessName,
		"customer_name": a.CustomerName,
		"service_name":  a.ServiceName,
		"datetime":      a.ScheduledAt.In(tz).Format("Mon, 2 Jan 2006 at 15:04"),
	})

	msg := &model.Message{
		AppointmentID:    &a.ID,
		Phone:            a.CustomerPhone,
		Body:             body,
		NotificationType: notificationType,
	}

	sendErr := gateway.ValidatePhone(a.CustomerPhone)
	var resp *gateway.ProviderResponse
	if sendErr == nil {
		var opts *gateway.SendOptions
		if n.Config.SenderID != "" {
			opts = &gateway.SendOptions{SenderID: n.Config.SenderID}
		}
		resp, sendErr = n.Gateway.Send(ctx, a.CustomerPhone, body, opts)
	}

	if sendErr != nil {
		msg.Status = model.MessageStatusFailed
		msg.ProviderResponse = fmt.Sprintf(`{"error":%q}`, sendErr.Error())
		if err := n.Messages.Create(msg); err != nil {
			n.Log.Error("ledger write failed", zap.Int("appointment_id", a.ID), zap.Error(err))
		}
		// Guard stays null so a later tick retries; the error is recorded on
		// the appointment for pull-based visibility.
		if err := n.Appointments.RecordNotificationError(a.ID, sendErr.Error()); err != nil {
			n.Log.Error("notification error bookkeeping failed", zap.Int("appointment_id", a.ID), zap.Error(err))
		}
		return fmt.Errorf("%s notification: %w", notificationType, sendErr)
	}

	sentAt := n.now()
	msg.Status = model.MessageStatusSent
	msg.ProviderResponse = resp.Raw
	msg.ClientRef = resp.ClientRef
	msg.SentAt = &sentAt
	if err := n.Messages.Create(msg); err != nil {
		n.Log.Error("ledger write failed", zap.Int("appointment_id", a.ID), zap.Error(err))
	}

	if err := n.Appointments.MarkNotified(a.ID, notificationType, sentAt); err != nil {
		return fmt.Errorf("set %s guard: %w", notificationType, err)
	}

	// Keep the in-memory row consistent for callers holding it.
	switch notificationType {
	case model.NotificationConfirmation:
		a.ConfirmationSentAt = &sentAt
	case model.NotificationReminder:
		a.ReminderSentAt = &sentAt
	case model.NotificationCancellation:
		a.CancellationSentAt = &sentAt
	case model.NotificationFollowUp:
		a.FollowUpSentAt = &sentAt
	}
	return nil
}
