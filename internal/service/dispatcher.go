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

// DispatchResult aggregates one dispatch run.
type DispatchResult struct {
	SuccessCount int `json:"success_count"`
	FailCount    int `json:"fail_count"`
	Total        int `json:"total"`
}

// Dispatcher sends one message per recipient and logs each outcome to the
// delivery ledger. It never decides the campaign's terminal status; that
// stays with the caller so the same executor serves "send now", group
// blasts and scheduled dispatch.
type Dispatcher struct {
	Gateway  gateway.Sender
	Messages repository.MessageRepositoryInterface
	Log      *zap.Logger
}

// Dispatch iterates recipients one at a time. Sequential on purpose: it
// bounds outbound load on the gateway and keeps each recipient's outcome
// independently attributable. A gateway failure for one recipient never
// aborts the batch; a ledger write failure does, and surfaces to the
// caller as a batch error.
func (d *Dispatcher) Dispatch(ctx context.Context, campaign *model.Campaign, recipients []Recipient, senderID string) (*DispatchResult, error) {
	result := &DispatchResult{Total: len(recipients)}

	var opts *gateway.SendOptions
	if senderID != "" {
		opts = &gateway.SendOptions{SenderID: senderID}
	}

	for _, rec := range recipients {
		if rec.Phone == "" {
			d.Log.Warn("recipient has no phone number",
				zap.Int("campaign_id", campaign.ID),
				zap.String("kind", rec.Kind), zap.Int("recipient_id", rec.ID))
			result.FailCount++
			continue
		}

		body := RenderTemplate(campaign.Body, map[string]string{
			"first_name": rec.FirstName,
			"last_name":  rec.LastName,
			"phone":      rec.Phone,
		})

		recID := rec.ID
		msg := &model.Message{
			CampaignID:    &campaign.ID,
			RecipientKind: rec.Kind,
			RecipientID:   &recID,
			Phone:         rec.Phone,
			Body:          body,
		}

		resp, err := d.Gateway.Send(ctx, rec.Phone, body, opts)
		if err != nil {
			msg.Status = model.MessageStatusFailed
			msg.ProviderResponse = fmt.Sprintf(`{"error":%q}`, err.Error())
			result.FailCount++
		} else {
			now := time.Now()
			msg.Status = model.MessageStatusSent
			msg.ProviderResponse = resp.Raw
			msg.ClientRef = resp.ClientRef
			msg.SentAt = &now
			result.SuccessCount++
		}

		if err := d.Messages.Create(msg); err != nil {
			return result, fmt.Errorf("append delivery ledger row: %w", err)
		}
	}

	return result, nil
}
