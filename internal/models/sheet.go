package models

import "time"

// SheetType determines how dates are assigned to a sheet's tasks.
type SheetType string

const (
	SheetTypeSingle    SheetType = "SINGLE"
	SheetTypeRecurring SheetType = "RECURRING"
	SheetTypeMultiDay  SheetType = "MULTI_DAY"
	SheetTypeOngoing   SheetType = "ONGOING"
)

// ClearUnit is the unit the clear lead time is expressed in.
type ClearUnit string

const (
	ClearUnitDays  ClearUnit = "days"
	ClearUnitHours ClearUnit = "hours"
)

// DateSentinel is the "no date" placeholder used by ongoing tasks.
const DateSentinel = "0000-00-00"

// Sheet represents an event listing containing one or more tasks.
type Sheet struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Details    string    `db:"details" json:"details"`
	FirstDate  *string   `db:"first_date" json:"first_date,omitempty"`
	LastDate   *string   `db:"last_date" json:"last_date,omitempty"`
	Type       SheetType `db:"type" json:"type"`
	ChairName  string    `db:"chair_name" json:"chair_name"`
	ChairEmail string    `db:"chair_email" json:"chair_email"`
	SheetGroup string    `db:"sheet_group" json:"sheet_group"`

	Reminder1Days *int `db:"reminder1_days" json:"reminder1_days,omitempty"`
	Reminder2Days *int `db:"reminder2_days" json:"reminder2_days,omitempty"`

	Clear     bool      `db:"clear" json:"clear"`
	ClearType ClearUnit `db:"clear_type" json:"clear_type"`
	ClearDays int       `db:"clear_days" json:"clear_days"`

	NoSignups      bool `db:"no_signups" json:"no_signups"`
	DuplicateTimes bool `db:"duplicate_times" json:"duplicate_times"`
	Visible        bool `db:"visible" json:"visible"`
	Trash          bool `db:"trash" json:"trash"`

	// Template overrides per email type, 0 = inherit the system default.
	ConfirmationTemplateID int64 `db:"confirmation_template_id" json:"confirmation_template_id"`
	Reminder1TemplateID    int64 `db:"reminder1_template_id" json:"reminder1_template_id"`
	Reminder2TemplateID    int64 `db:"reminder2_template_id" json:"reminder2_template_id"`
	ClearTemplateID        int64 `db:"clear_template_id" json:"clear_template_id"`
	RescheduleTemplateID   int64 `db:"reschedule_template_id" json:"reschedule_template_id"`

	Extra ExtraFields `db:"extra" json:"extra,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SheetFilter narrows down sheet listings.
type SheetFilter struct {
	IncludeTrashed bool
	TrashedOnly    bool
	VisibleOnly    bool
	Group          string
	Search         string
	Page           int
	PageSize       int
}

// ValidType reports whether the sheet type is one of the known values.
func (t SheetType) ValidType() bool {
	switch t {
	case SheetTypeSingle, SheetTypeRecurring, SheetTypeMultiDay, SheetTypeOngoing:
		return true
	}
	return false
}
