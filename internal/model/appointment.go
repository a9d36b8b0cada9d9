// internal/model/appointment.go
package model

import "time"

// Appointment statuses
const (
	AppointmentStatusBooked    = "booked"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusNoShow    = "no_show"
)

// Notification types
const (
	NotificationConfirmation = "confirmation"
	NotificationReminder     = "reminder"
	NotificationCancellation = "cancellation"
	NotificationFollowUp     = "follow_up"
)

// Appointment carries four independent "already notified" timestamps, one
// per notification type. A nil timestamp means that notification has not
// been sent yet; it is set only after a successful send, so a failed send
// is retried on a later tick.
type Appointment struct {
	ID              int       `db:"id" json:"id"`
	BusinessName    string    `db:"business_name" json:"business_name"`
	CustomerName    string    `db:"customer_name" json:"customer_name"`
	CustomerPhone   string    `db:"customer_phone" json:"customer_phone"`
	ServiceName     string    `db:"service_name" json:"service_name"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status          string    `db:"status" json:"status"` // booked, cancelled, completed, no_show
	ReminderLeadMin *int      `db:"reminder_lead_min" json:"reminder_lead_min,omitempty"`
	FollowUpMin     *int      `db:"follow_up_min" json:"follow_up_min,omitempty"`

	ConfirmationSentAt *time.Time `db:"confirmation_sent_at" json:"confirmation_sent_at,omitempty"`
	ReminderSentAt     *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CancellationSentAt *time.Time `db:"cancellation_sent_at" json:"cancellation_sent_at,omitempty"`
	FollowUpSentAt     *time.Time `db:"follow_up_sent_at" json:"follow_up_sent_at,omitempty"`

	LastNotificationError string     `db:"last_notification_error" json:"last_notification_error,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// GuardTimestamp returns the sent-at guard for the given notification type.
func (a *Appointment) GuardTimestamp(notificationType string) *time.Time {
	switch notificationType {
	case NotificationConfirmation:
		return a.ConfirmationSentAt
	case NotificationReminder:
		return a.ReminderSentAt
	case NotificationCancellation:
		return a.CancellationSentAt
	case NotificationFollowUp:
		return a.FollowUpSentAt
	}
	return nil
}
