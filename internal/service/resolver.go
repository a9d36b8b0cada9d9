package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/model"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
)

// Recipient is one concrete deliverable target. Phone may be empty: the
// dispatcher counts those as failures instead of the resolver silently
// dropping them.
type Recipient struct {
	ID        int
	Kind      string // contact, user
	FirstName string
	LastName  string
	Phone     string
}

// RecipientResolver expands a campaign's declared recipient links and
// optional group into a deduplicated contact list.
type RecipientResolver struct {
	Campaigns repository.CampaignRepositoryInterface
	Contacts  repository.ContactRepositoryInterface
	Users     repository.UserRepositoryInterface
	Log       *zap.Logger
}

// Resolve returns the deduplicated recipient list for a campaign. A failed
// lookup of one source (contacts, users, group members) contributes zero
// recipients from that source and is not fatal; only failure to read the
// declared links themselves is an error. Zero recipients is not an error.
func (r *RecipientResolver) Resolve(campaign *model.Campaign) ([]Recipient, error) {
	links, err := r.Campaigns.ListRecipients(campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("list declared recipients: %w", err)
	}

	contactIDs := []int{}
	userIDs := []int{}
	for _, l := range links {
		switch l.Kind {
		case model.RecipientKindContact:
			contactIDs = append(contactIDs, l.RecipientID)
		case model.RecipientKindUser:
			userIDs = append(userIDs, l.RecipientID)
		}
	}

	out := []Recipient{}
	seen := map[string]bool{}
	add := func(rec Recipient) {
		key := fmt.Sprintf("%s:%d", rec.Kind, rec.ID)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, rec)
	}

	contacts, err := r.Contacts.GetByIDs(contactIDs)
	if err != nil {
		r.Log.Warn("contact lookup failed, skipping source",
			zap.Int("campaign_id", campaign.ID), zap.Error(err))
	} else {
		for _, c := range contacts {
			add(Recipient{ID: c.ID, Kind: model.RecipientKindContact, FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone})
		}
	}

	users, err := r.Users.GetByIDs(userIDs)
	if err != nil {
		r.Log.Warn("user lookup failed, skipping source",
			zap.Int("campaign_id", campaign.ID), zap.Error(err))
	} else {
		for _, u := range users {
			add(Recipient{ID: u.ID, Kind: model.RecipientKindUser, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone})
		}
	}

	if campaign.GroupID != nil {
		members, err := r.Contacts.ListGroupMembers(*campaign.GroupID)
		if err != nil {
			r.Log.Warn("group member lookup failed, skipping source",
				zap.Int("campaign_id", campaign.ID), zap.Int("group_id", *campaign.GroupID), zap.Error(err))
		} else {
			for _, c := range members {
				add(Recipient{ID: c.ID, Kind: model.RecipientKindContact, FirstName: c.FirstName, LastName: c.LastName, Phone: c.Phone})
			}
		}
	}

	return out, nil
}
