// internal/model/user.go
package model

// User is an operator account that can also be a message recipient.
// Credential fields live in the users table but are never selected by the
// recipient queries.
type User struct {
	ID        int    `db:"id" json:"id"`
	Phone     string `db:"phone" json:"phone"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}
