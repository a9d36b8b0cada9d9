// internal/model/group.go
package model

import "time"

type Group struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   int       `db:"owner_id" json:"owner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupMember links a contact into a group.
type GroupMember struct {
	ID        int `db:"id" json:"id"`
	GroupID   int `db:"group_id" json:"group_id"`
	ContactID int `db:"contact_id" json:"contact_id"`
}
