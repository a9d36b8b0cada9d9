package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bulkwave/bulkwave-backend/internal/model"
)

type DispatchRepositoryInterface interface {
	Claim(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, bool, error)
	GetByKey(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, error)
	MarkResult(id int, status string, successCount, failCount, total int, lastError string) error
	ResetStalePending(olderThan time.Time) (int64, error)
}

type DispatchRepository struct {
	DB *sql.DB
}

// Claim performs the atomic find-or-create on (campaign_id, scheduled_for).
// The unique index makes the insert a single-statement claim: exactly one
// caller observes created=true for a given occurrence. When the row already
// exists it is fetched and returned with created=false.
func (r *DispatchRepository) Claim(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, bool, error) {
	query := `
        INSERT INTO campaign_dispatches (campaign_id, scheduled_for, status, created_at)
        VALUES ($1, $2, 'pending', NOW())
        ON CONFLICT (campaign_id, scheduled_for) DO NOTHING
        RETURNING id, created_at
    `
	d := &model.CampaignDispatch{
		CampaignID:   campaignID,
		ScheduledFor: scheduledFor,
		Status:       model.DispatchStatusPending,
	}
	err := r.DB.QueryRow(query, campaignID, scheduledFor).Scan(&d.ID, &d.CreatedAt)
	if err == nil {
		return d, true, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	existing, err := r.GetByKey(campaignID, scheduledFor)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Conflicting row deleted between the insert and the fetch, e.g. by
		// a campaign cascade. Surface it instead of handing back nil.
		return nil, false, fmt.Errorf("dispatch row for campaign %d at %s vanished during claim", campaignID, scheduledFor)
	}
	return existing, false, nil
}

func (r *DispatchRepository) GetByKey(campaignID int, scheduledFor time.Time) (*model.CampaignDispatch, error) {
	query := `
        SELECT id, campaign_id, scheduled_for, status, success_count, fail_count, total, last_error, dispatched_at, created_at
        FROM campaign_dispatches
        WHERE campaign_id=$1 AND scheduled_for=$2
    `
	var d model.CampaignDispatch
	err := r.DB.QueryRow(query, campaignID, scheduledFor).Scan(
		&d.ID, &d.CampaignID, &d.ScheduledFor, &d.Status,
		&d.SuccessCount, &d.FailCount, &d.Total, &d.LastError, &d.DispatchedAt, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// MarkResult moves a claimed row to its terminal state together with the
// aggregate counts. Rows are never deleted; the ledger is the audit trail.
func (r *DispatchRepository) MarkResult(id int, status string, successCount, failCount, total int, lastError string) error {
	query := `
        UPDATE campaign_dispatches
        SET status=$1, success_count=$2, fail_count=$3, total=$4, last_error=$5, dispatched_at=NOW()
        WHERE id=$6
    `
	_, err := r.DB.Exec(query, status, successCount, failCount, total, lastError, id)
	return err
}

// ResetStalePending flips pending rows older than the cutoff back to failed
// so a retry-enabled deployment can pick them up again. Operator tool; the
// poller never calls this.
func (r *DispatchRepository) ResetStalePending(olderThan time.Time) (int64, error) {
	query := `
        UPDATE campaign_dispatches
        SET status='failed', last_error='reset: stale pending claim'
        WHERE status='pending' AND created_at < $1
    `
	res, err := r.DB.Exec(query, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ DispatchRepositoryInterface = (*DispatchRepository)(nil)
