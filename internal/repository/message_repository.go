package repository

import (
	"database/sql"
	"time"

	"github.com/bulkwave/bulkwave-backend/internal/model"
)

type MessageRepositoryInterface interface {
	Create(msg *model.Message) error
	CountByCampaign(campaignID int) (map[string]int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

// Create appends one delivery-ledger row. Messages are never updated.
func (r *MessageRepository) Create(msg *model.Message) error {
	msg.CreatedAt = time.Now()
	query := `
        INSERT INTO messages
        (campaign_id, appointment_id, recipient_kind, recipient_id, phone, body, status, provider_response, client_ref, notification_type, sent_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		msg.CampaignID, msg.AppointmentID, msg.RecipientKind, msg.RecipientID,
		msg.Phone, msg.Body, msg.Status, msg.ProviderResponse, msg.ClientRef,
		msg.NotificationType, msg.SentAt, msg.CreatedAt,
	).Scan(&msg.ID)
}

// CountByCampaign aggregates ledger rows by status for one campaign
func (r *MessageRepository) CountByCampaign(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
