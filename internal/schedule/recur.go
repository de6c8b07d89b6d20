package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrences caps RRULE expansion so an unbounded rule cannot generate
// an endless sheet.
const maxOccurrences = 100

// ExpandRecurrence turns an RFC 5545 recurrence rule plus a start date into
// the concrete YYYY-MM-DD occurrence list for a recurring sheet.
func ExpandRecurrence(rule string, start string, count int) ([]string, error) {
	if count <= 0 || count > maxOccurrences {
		count = maxOccurrences
	}
	dtstart, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence start date %q", start)
	}
	opts, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}
	opts.Dtstart = dtstart
	if opts.Count == 0 || opts.Count > count {
		opts.Count = count
	}
	r, err := rrule.NewRRule(*opts)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}
	occurrences := r.All()
	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.Format("2006-01-02"))
		if len(dates) >= count {
			break
		}
	}
	return dates, nil
}
