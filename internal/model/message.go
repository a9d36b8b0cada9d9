// internal/model/message.go
package model

import "time"

// Message statuses
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

// Message is one outbound attempt per recipient. Append-only: rows are
// created by the dispatcher or the appointment notifier and never mutated.
// Campaign and appointment references are soft; deleting the parent does
// not delete the log row.
type Message struct {
	ID               int        `db:"id" json:"id"`
	CampaignID       *int       `db:"campaign_id" json:"campaign_id,omitempty"`
	AppointmentID    *int       `db:"appointment_id" json:"appointment_id,omitempty"`
	RecipientKind    string     `db:"recipient_kind" json:"recipient_kind,omitempty"` // contact, user
	RecipientID      *int       `db:"recipient_id" json:"recipient_id,omitempty"`
	Phone            string     `db:"phone" json:"phone"`
	Body             string     `db:"body" json:"body"`
	Status           string     `db:"status" json:"status"` // pending, sent, failed
	ProviderResponse string     `db:"provider_response" json:"provider_response,omitempty"`
	ClientRef        string     `db:"client_ref" json:"client_ref,omitempty"`
	NotificationType string     `db:"notification_type" json:"notification_type,omitempty"`
	SentAt           *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}
