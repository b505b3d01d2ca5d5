package models

import "time"

// AdminRole controls what an administrator account may do.
type AdminRole string

const (
	RoleSuperadmin AdminRole = "superadmin"
	RoleAdmin      AdminRole = "admin"
	RoleValidador  AdminRole = "validador"
	RoleConsulta   AdminRole = "consulta"
)

// Valid reports whether the role is one of the allowed values.
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleValidador, RoleConsulta:
		return true
	default:
		return false
	}
}

// Admin is a staff identity record.
type Admin struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	LastName       string    `db:"last_name" json:"last_name"`
	SecondLastName string    `db:"second_last_name" json:"second_last_name"`
	Phone          string    `db:"phone" json:"phone"`
	Role           AdminRole `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
