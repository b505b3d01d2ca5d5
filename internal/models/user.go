package models

import "time"

// Sede identifies the campus a student belongs to.
type Sede string

const (
	SedeSalamanca Sede = "SALAMANCA"
	SedeYuriria   Sede = "YURIRIA"
)

// Valid reports whether the sede is one of the two campuses.
func (s Sede) Valid() bool {
	return s == SedeSalamanca || s == SedeYuriria
}

// careerNames maps career codes to their degree display names.
var careerNames = map[string]string{
	"IS75LI0103": "LICENCIATURA EN INGENIERÍA MECÁNICA",
	"IS75LI0203": "LICENCIATURA EN INGENIERÍA ELÉCTRICA",
	"IS75LI0303": "LICENCIATURA EN INGENIERÍA EN COMUNICACIONES Y ELECTRÓNICA",
	"IS75LI03Y3": "LICENCIATURA EN INGENIERÍA EN COMUNICACIONES Y ELECTRÓNICA (YURIRIA)",
	"IS75LI0403": "LICENCIATURA EN INGENIERÍA EN MECATRÓNICA",
	"IS75LI0502": "LICENCIATURA EN INGENIERÍA EN SISTEMAS COMPUTACIONALES",
	"IS75LI05Y2": "LICENCIATURA EN INGENIERÍA EN SISTEMAS COMPUTACIONALES (YURIRIA)",
	"IS75LI0602": "LICENCIATURA EN GESTIÓN EMPRESARIAL",
	"IS75LI06Y2": "LICENCIATURA EN GESTIÓN EMPRESARIAL (YURIRIA)",
	"IS75LI0702": "LICENCIATURA EN ARTES DIGITALES",
	"IS75LI0801": "LICENCIATURA EN INGENIERÍA DE DATOS E INTELIGENCIA ARTIFICIAL",
	"IS75LI08Y2": "LICENCIATURA EN ENSEÑANZA DEL INGLÉS (YURIRIA)",
}

// ValidCareer reports whether the code exists in the career catalogue.
func ValidCareer(code string) bool {
	_, ok := careerNames[code]
	return ok
}

// CareerFullName returns "CODE - NAME", falling back to the bare code for
// unknown entries so reports still render.
func CareerFullName(code string) string {
	name, ok := careerNames[code]
	if !ok {
		return code
	}
	return code + " - " + name
}

// User is a student identity record.
type User struct {
	ID             string    `db:"id" json:"id"`
	NUA            string    `db:"nua" json:"nua"`
	Name           string    `db:"name" json:"name"`
	LastName       string    `db:"last_name" json:"last_name"`
	SecondLastName string    `db:"second_last_name" json:"second_last_name"`
	Career         string    `db:"career" json:"career"`
	Sede           Sede      `db:"sede" json:"sede"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	ProfilePicture *string   `db:"profile_picture" json:"profile_picture,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts, skipping a missing second last name.
func (u User) FullName() string {
	full := u.Name + " " + u.LastName
	if u.SecondLastName != "" {
		full += " " + u.SecondLastName
	}
	return full
}

// UserFilter narrows user listings.
type UserFilter struct {
	Career   string
	Sede     Sede
	Search   string
	Page     int
	PageSize int
}
