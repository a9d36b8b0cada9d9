// internal/model/campaign.go
package model

import "time"

// Campaign statuses
const (
	CampaignStatusPending = "pending"
	CampaignStatusSent    = "sent"
	CampaignStatusFailed  = "failed"
)

// Campaign types
const (
	CampaignTypeIndividual = "individual"
	CampaignTypeGroup      = "group"
	CampaignTypeBroadcast  = "broadcast"
)

// Recurrence intervals
const (
	IntervalDaily   = "daily"
	IntervalWeekly  = "weekly"
	IntervalMonthly = "monthly"
)

type Campaign struct {
	ID                int        `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Body              string     `db:"body" json:"body"`
	Type              string     `db:"type" json:"type"`     // individual, group, broadcast
	Status            string     `db:"status" json:"status"` // pending, sent, failed
	GroupID           *int       `db:"group_id" json:"group_id,omitempty"`
	Schedule          *time.Time `db:"schedule" json:"schedule,omitempty"` // nil means unscheduled/manual
	RecurringActive   bool       `db:"recurring_active" json:"recurring_active"`
	RecurringInterval string     `db:"recurring_interval" json:"recurring_interval,omitempty"` // daily, weekly, monthly
	SenderID          string     `db:"sender_id" json:"sender_id,omitempty"`
	OwnerID           int        `db:"owner_id" json:"owner_id"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
