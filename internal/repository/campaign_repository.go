package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/bulkwave/bulkwave-backend/internal/errors"
	"github.com/bulkwave/bulkwave-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	UpdateStatus(campaignID int, status string) error

	// Scheduling
	ListDue(now time.Time, limit int, includeFailed bool) ([]*model.Campaign, error)
	AdvanceSchedule(campaignID int, next time.Time) error

	// Declared recipients
	ListRecipients(campaignID int) ([]model.CampaignRecipient, error)
	ReplaceRecipients(campaignID int, links []model.CampaignRecipient) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusPending
	}
	query := `
        INSERT INTO campaigns (name, body, type, status, group_id, schedule, recurring_active, recurring_interval, sender_id, owner_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Body, c.Type, c.Status, c.GroupID, c.Schedule,
		c.RecurringActive, c.RecurringInterval, c.SenderID, c.OwnerID, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, name, body, type, status, group_id, schedule, recurring_active, recurring_interval, sender_id, owner_id, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.Body, &c.Type, &c.Status, &c.GroupID, &c.Schedule,
		&c.RecurringActive, &c.RecurringInterval, &c.SenderID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

// ====================== Scheduling ======================

// ListDue returns campaigns whose schedule has arrived, earliest first.
// Failed campaigns are eligible only when the retry flag is on.
func (r *CampaignRepository) ListDue(now time.Time, limit int, includeFailed bool) ([]*model.Campaign, error) {
	statuses := []string{model.CampaignStatusPending}
	if includeFailed {
		statuses = append(statuses, model.CampaignStatusFailed)
	}

	query := `
        SELECT id, name, body, type, status, group_id, schedule, recurring_active, recurring_interval, sender_id, owner_id, created_at, updated_at
        FROM campaigns
        WHERE schedule IS NOT NULL AND schedule <= $1 AND status = ANY($2)
        ORDER BY schedule ASC
        LIMIT $3
    `
	rows, err := r.DB.Query(query, now, pq.Array(statuses), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Body, &c.Type, &c.Status, &c.GroupID, &c.Schedule,
			&c.RecurringActive, &c.RecurringInterval, &c.SenderID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// AdvanceSchedule moves a recurring campaign to its next occurrence and
// re-enters the pending state.
func (r *CampaignRepository) AdvanceSchedule(campaignID int, next time.Time) error {
	query := `UPDATE campaigns SET schedule=$1, status=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, next, model.CampaignStatusPending, campaignID)
	return err
}

// ====================== Declared recipients ======================

func (r *CampaignRepository) ListRecipients(campaignID int) ([]model.CampaignRecipient, error) {
	query := `
        SELECT id, campaign_id, kind, recipient_id
        FROM campaign_recipients
        WHERE campaign_id=$1
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.CampaignRecipient{}
	for rows.Next() {
		var l model.CampaignRecipient
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.Kind, &l.RecipientID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ReplaceRecipients swaps the declared recipient set in one transaction.
func (r *CampaignRepository) ReplaceRecipients(campaignID int, links []model.CampaignRecipient) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM campaign_recipients WHERE campaign_id=$1`, campaignID); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.Exec(
			`INSERT INTO campaign_recipients (campaign_id, kind, recipient_id) VALUES ($1, $2, $3)`,
			campaignID, l.Kind, l.RecipientID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
