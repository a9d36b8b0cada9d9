// internal/model/campaign_recipient.go
package model

// Recipient kinds
const (
	RecipientKindContact = "contact"
	RecipientKindUser    = "user"
)

// CampaignRecipient is a declared recipient link. It references a contact
// or a user by id; resolution into phone numbers happens at dispatch time.
type CampaignRecipient struct {
	ID          int    `db:"id" json:"id"`
	CampaignID  int    `db:"campaign_id" json:"campaign_id"`
	Kind        string `db:"kind" json:"kind"` // contact, user
	RecipientID int    `db:"recipient_id" json:"recipient_id"`
}
