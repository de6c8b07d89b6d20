package models

import "time"

// ValidationCode maps a claimed identity tuple to an opaque emailed token.
// One logical row exists per (firstname, lastname, email); re-requesting
// refreshes the timestamp instead of duplicating.
type ValidationCode struct {
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"firstname" json:"firstname"`
	LastName  string    `db:"lastname" json:"lastname"`
	Email     string    `db:"email" json:"email"`
	Code      string    `db:"code" json:"-"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
}

// ValidationCookie is the tuple encoded into the public validation cookie.
// The payload is integrity-protected, not confidential.
type ValidationCookie struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}
