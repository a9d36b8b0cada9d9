package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/bulkwave/bulkwave-backend/internal/model"
)

type UserRepositoryInterface interface {
	GetByIDs(ids []int) ([]model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

// GetByIDs fetches users by id set. Credential columns are never selected.
func (r *UserRepository) GetByIDs(ids []int) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	query := `
        SELECT id, phone, first_name, last_name, email
        FROM users
        WHERE id = ANY($1)
    `
	rows, err := r.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Phone, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
