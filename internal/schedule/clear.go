package schedule

import (
	"strings"
	"time"

	"github.com/noah-isme/signup-sheets-api/internal/models"
)

// ClearPolicy decides whether self-service removal of a signup is allowed.
type ClearPolicy struct {
	Enabled bool
	Unit    models.ClearUnit
	Lead    int
}

// PolicyFor extracts the clear policy from a sheet.
func PolicyFor(sheet *models.Sheet) ClearPolicy {
	return ClearPolicy{Enabled: sheet.Clear, Unit: sheet.ClearType, Lead: sheet.ClearDays}
}

// CanClear reports whether the signup may be removed now. A privileged
// caller may always clear. Otherwise clearing is allowed while the clear
// flag is on and the lead-time window has not been entered: lead of zero
// means always, the no-date sentinel is never time-bound, and the remaining
// time until the task's date (plus start time when present) must exceed the
// lead converted to seconds.
//
// A stored date that fails to parse fails open: clearing stays allowed,
// since trapping a volunteer behind bad data is worse than an early clear.
func (p ClearPolicy) CanClear(taskDate string, taskTime *string, privileged bool, now time.Time) bool {
	if privileged {
		return true
	}
	if !p.Enabled {
		return false
	}
	if p.Lead == 0 {
		return true
	}
	if taskDate == models.DateSentinel || strings.TrimSpace(taskDate) == "" {
		return true
	}

	occurs, ok := occurrenceTime(taskDate, taskTime, now.Location())
	if !ok {
		return true
	}

	leadSeconds := int64(p.Lead) * 86400
	if p.Unit == models.ClearUnitHours {
		leadSeconds = int64(p.Lead) * 3600
	}
	return occurs.Sub(now) > time.Duration(leadSeconds)*time.Second
}

// occurrenceTime resolves the task occurrence instant. With a parseable
// start time the comparison is date+time; without one, or when the stored
// time fails to parse, it falls back to the bare date. Both use the same
// clock/location as the caller.
func occurrenceTime(date string, timeStart *string, loc *time.Location) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, false
	}
	if timeStart == nil || strings.TrimSpace(*timeStart) == "" {
		return day, true
	}
	if clock, ok := parseClock(strings.TrimSpace(*timeStart)); ok {
		return day.Add(clock), true
	}
	return day, true
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3 PM", "3PM"}

func parseClock(raw string) (time.Duration, bool) {
	upper := strings.ToUpper(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
		}
	}
	return 0, false
}
