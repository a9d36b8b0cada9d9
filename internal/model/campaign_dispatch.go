// internal/model/campaign_dispatch.go
package model

import "time"

// Dispatch statuses
const (
	DispatchStatusPending = "pending"
	DispatchStatusSent    = "sent"
	DispatchStatusFailed  = "failed"
)

// CampaignDispatch is the idempotency ledger: one row per due occurrence,
// unique on (campaign_id, scheduled_for). Rows are never deleted.
type CampaignDispatch struct {
	ID           int        `db:"id" json:"id"`
	CampaignID   int        `db:"campaign_id" json:"campaign_id"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Status       string     `db:"status" json:"status"` // pending, sent, failed
	SuccessCount int        `db:"success_count" json:"success_count"`
	FailCount    int        `db:"fail_count" json:"fail_count"`
	Total        int        `db:"total" json:"total"`
	LastError    string     `db:"last_error" json:"last_error,omitempty"`
	DispatchedAt *time.Time `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
