// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/bulkwave/bulkwave-backend/internal/errors"
	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
	"github.com/bulkwave/bulkwave-backend/internal/service"
)

type CampaignController struct {
	Campaigns repository.CampaignRepositoryInterface
	Resolver  *service.RecipientResolver
	Poller    *service.CampaignPoller
	Log       *zap.Logger
}

// recipientInput is the tagged form declared recipients arrive in: exactly
// one of contact_id or user_id.
type recipientInput struct {
	ContactID *int `json:"contact_id,omitempty"`
	UserID    *int `json:"user_id,omitempty"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name              string           `json:"name"`
		Body              string           `json:"body"`
		Type              string           `json:"type"`
		GroupID           *int             `json:"group_id"`
		Schedule          *time.Time       `json:"schedule"`
		RecurringActive   bool             `json:"recurring_active"`
		RecurringInterval string           `json:"recurring_interval"`
		SenderID          string           `json:"sender_id"`
		OwnerID           int              `json:"owner_id"`
		Recipients        []recipientInput `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if body.RecurringActive && body.Schedule == nil {
		http.Error(w, "recurring campaign requires a schedule", http.StatusBadRequest)
		return
	}

	campaign := &model.Campaign{
		Name:              body.Name,
		Body:              body.Body,
		Type:              body.Type,
		Status:            model.CampaignStatusPending,
		GroupID:           body.GroupID,
		Schedule:          body.Schedule,
		RecurringActive:   body.RecurringActive,
		RecurringInterval: body.RecurringInterval,
		SenderID:          body.SenderID,
		OwnerID:           body.OwnerID,
	}
	if err := c.Campaigns.Create(campaign); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	links := []model.CampaignRecipient{}
	for _, in := range body.Recipients {
		switch {
		case in.ContactID != nil:
			links = append(links, model.CampaignRecipient{CampaignID: campaign.ID, Kind: model.RecipientKindContact, RecipientID: *in.ContactID})
		case in.UserID != nil:
			links = append(links, model.CampaignRecipient{CampaignID: campaign.ID, Kind: model.RecipientKindUser, RecipientID: *in.UserID})
		default:
			http.Error(w, "recipient needs contact_id or user_id", http.StatusBadRequest)
			return
		}
	}
	if len(links) > 0 {
		if err := c.Campaigns.ReplaceRecipients(campaign.ID, links); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

// DispatchCampaign triggers the manual "send now" path. It goes through
// the same dispatch-ledger claim as the poller, so repeating the call for
// the same occurrence reports the existing ledger row instead of
// re-sending.
func (c *CampaignController) DispatchCampaign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	dispatch, err := c.Poller.DispatchCampaignOnce(r.Context(), id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrCampaignNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dispatch)
}

// ResolveRecipients previews the deduplicated recipient list.
func (c *CampaignController) ResolveRecipients(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	campaign, err := c.Campaigns.GetByID(id)
	if err != nil {
		if _, ok := err.(*appErrors.ErrCampaignNotFound); ok {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	recipients, err := c.Resolver.Resolve(campaign)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign_id": id,
		"total":       len(recipients),
		"recipients":  recipients,
	})
}

// RunTick triggers one poll pass outside the timer, for operators.
func (c *CampaignController) RunTick(w http.ResponseWriter, r *http.Request) {
	if err := c.Poller.ProcessDueCampaignsOnce(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
