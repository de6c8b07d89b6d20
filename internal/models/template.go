package models

import "time"

// EmailType identifies which lifecycle email a template serves.
type EmailType string

const (
	EmailTypeConfirmation EmailType = "confirmation"
	EmailTypeReminder1    EmailType = "reminder1"
	EmailTypeReminder2    EmailType = "reminder2"
	EmailTypeClear        EmailType = "clear"
	EmailTypeReschedule   EmailType = "reschedule"
)

// ValidEmailType reports whether the value is a known email type.
func (t EmailType) ValidEmailType() bool {
	switch t {
	case EmailTypeConfirmation, EmailTypeReminder1, EmailTypeReminder2, EmailTypeClear, EmailTypeReschedule:
		return true
	}
	return false
}

// EmailTemplate is a reusable subject/body tuple, optionally the system
// default for one email type.
type EmailTemplate struct {
	ID        int64     `db:"id" json:"id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	EmailType EmailType `db:"email_type" json:"email_type"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	FromName  string    `db:"from_name" json:"from_name"`
	FromEmail string    `db:"from_email" json:"from_email"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TemplateFilter narrows down template listings.
type TemplateFilter struct {
	EmailType    *EmailType
	AuthorID     *int64
	DefaultsOnly bool
	Page         int
	PageSize     int
}
