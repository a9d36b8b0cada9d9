package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/events"
	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
)

// CampaignPoller scans for due campaigns and runs the claim → resolve →
// dispatch → finalize → advance-recurrence state machine for each one.
// Single-poller by design: the dispatch ledger's unique key is the only
// concurrency guard, which is best-effort rather than a distributed lock.
type CampaignPoller struct {
	Campaigns  repository.CampaignRepositoryInterface
	Dispatches repository.DispatchRepositoryInterface
	Resolver   *RecipientResolver
	Dispatcher *Dispatcher
	Events     events.Publisher

	BatchSize       int
	RetryFailed     bool
	DefaultSenderID string
	Log             *zap.Logger

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

func (p *CampaignPoller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ProcessDueCampaignsOnce runs a single poll tick. One campaign's failure
// never halts the tick; a failure of the due query itself is returned so
// the scheduler can log it and retry on the next firing.
func (p *CampaignPoller) ProcessDueCampaignsOnce(ctx context.Context) error {
	now := p.now()
	due, err := p.Campaigns.ListDue(now, p.BatchSize, p.RetryFailed)
	if err != nil {
		return fmt.Errorf("scan due campaigns: %w", err)
	}

	for _, c := range due {
		if c.Schedule == nil {
			continue
		}
		p.processDueCampaign(ctx, c, *c.Schedule)
	}
	return nil
}

// DispatchCampaignOnce is the manual "send now" path. It shares the ledger
// claim with the poller, so re-posting the same occurrence cannot
// double-send. Unscheduled campaigns claim the current minute, so an
// accidental double-POST lands on the same ledger row.
func (p *CampaignPoller) DispatchCampaignOnce(ctx context.Context, campaignID int) (*model.CampaignDispatch, error) {
	c, err := p.Campaigns.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	scheduledFor := p.now().Truncate(time.Minute)
	if c.Schedule != nil {
		scheduledFor = *c.Schedule
	}

	p.processDueCampaign(ctx, c, scheduledFor)

	d, err := p.Dispatches.GetByKey(c.ID, scheduledFor)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("no dispatch record for campaign %d at %s", c.ID, scheduledFor)
	}
	return d, nil
}

func (p *CampaignPoller) processDueCampaign(ctx context.Context, c *model.Campaign, scheduledFor time.Time) {
	log := p.Log.With(zap.Int("campaign_id", c.ID), zap.Time("scheduled_for", scheduledFor))

	claim, created, err := p.Dispatches.Claim(c.ID, scheduledFor)
	if err != nil {
		log.Error("dispatch claim failed", zap.Error(err))
		return
	}
	if claim == nil {
		log.Error("dispatch claim returned no row")
		return
	}
	if !created {
		if p.RetryFailed && claim.Status == model.DispatchStatusFailed {
			log.Info("retrying failed occurrence", zap.Int("dispatch_id", claim.ID))
		} else {
			// sent: occurrence already handled. pending: claimed by another
			// tick or a crashed run; skipped until manually reset.
			log.Debug("occurrence already claimed", zap.String("status", claim.Status))
			return
		}
	}

	recipients, err := p.Resolver.Resolve(c)
	if err != nil {
		p.failOccurrence(c, claim, err)
		return
	}

	senderID := c.SenderID
	if senderID == "" {
		senderID = p.DefaultSenderID
	}

	result, err := p.Dispatcher.Dispatch(ctx, c, recipients, senderID)
	if err != nil {
		p.failOccurrence(c, claim, err)
		return
	}

	status := model.DispatchStatusSent
	if result.SuccessCount == 0 && result.FailCount > 0 {
		status = model.DispatchStatusFailed
	}
	if err := p.Dispatches.MarkResult(claim.ID, status, result.SuccessCount, result.FailCount, result.Total, ""); err != nil {
		p.failOccurrence(c, claim, err)
		return
	}

	if err := p.Events.PublishDispatch(events.DispatchEvent{
		DispatchID:   claim.ID,
		CampaignID:   c.ID,
		ScheduledFor: scheduledFor,
		Status:       status,
		SuccessCount: result.SuccessCount,
		FailCount:    result.FailCount,
		Total:        result.Total,
	}); err != nil {
		log.Warn("dispatch event publish failed", zap.Error(err))
	}

	p.advance(c, scheduledFor, log)

	log.Info("campaign occurrence dispatched",
		zap.String("status", status),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailCount),
		zap.Int("total", result.Total))
}

// advance re-enters pending at the next occurrence for recurring campaigns,
// or finalizes the campaign as sent. A recurrence computation failure
// (unknown interval) finalizes rather than looping forever.
func (p *CampaignPoller) advance(c *model.Campaign, scheduledFor time.Time, log *zap.Logger) {
	if c.RecurringActive {
		next, err := NextOccurrence(scheduledFor, c.RecurringInterval)
		if err == nil {
			if err := p.Campaigns.AdvanceSchedule(c.ID, next); err != nil {
				log.Error("schedule advance failed", zap.Error(err))
			}
			return
		}
		log.Warn("cannot compute next occurrence, finalizing campaign", zap.Error(err))
	}
	if err := p.Campaigns.UpdateStatus(c.ID, model.CampaignStatusSent); err != nil {
		log.Error("campaign status update failed", zap.Error(err))
	}
}

// failOccurrence records an infrastructure failure: the ledger row and the
// campaign both go to failed, and recurrence is not advanced.
func (p *CampaignPoller) failOccurrence(c *model.Campaign, claim *model.CampaignDispatch, cause error) {
	p.Log.Error("campaign dispatch failed",
		zap.Int("campaign_id", c.ID), zap.Int("dispatch_id", claim.ID), zap.Error(cause))

	if err := p.Dispatches.MarkResult(claim.ID, model.DispatchStatusFailed, 0, 0, 0, cause.Error()); err != nil {
		p.Log.Error("dispatch failure bookkeeping failed", zap.Int("dispatch_id", claim.ID), zap.Error(err))
	}
	if err := p.Campaigns.UpdateStatus(c.ID, model.CampaignStatusFailed); err != nil {
		p.Log.Error("campaign status update failed", zap.Int("campaign_id", c.ID), zap.Error(err))
	}
}
