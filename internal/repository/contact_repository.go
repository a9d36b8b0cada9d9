package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/bulkwave/bulkwave-backend/internal/model"
)

// ContactRepositoryInterface defines methods used by the resolver
type ContactRepositoryInterface interface {
	GetByIDs(ids []int) ([]model.Contact, error)
	ListGroupMembers(groupID int) ([]model.Contact, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// GetByIDs fetches contacts by id set in one query
func (r *ContactRepository) GetByIDs(ids []int) ([]model.Contact, error) {
	if len(ids) == 0 {
		return []model.Contact{}, nil
	}
	query := `
        SELECT id, phone, first_name, last_name, email, owner_id
        FROM contacts
        WHERE id = ANY($1)
    `
	rows, err := r.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ListGroupMembers fetches the member contacts of a group
func (r *ContactRepository) ListGroupMembers(groupID int) ([]model.Contact, error) {
	query := `
        SELECT c.id, c.phone, c.first_name, c.last_name, c.email, c.owner_id
        FROM contacts c
        JOIN group_members gm ON gm.contact_id = c.id
        WHERE gm.group_id = $1
    `
	rows, err := r.DB.Query(query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]model.Contact, error) {
	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Phone, &c.FirstName, &c.LastName, &c.Email, &c.OwnerID); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
