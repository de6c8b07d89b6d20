// Package schedule holds the date policy for sheets and tasks: which dates
// are valid per sheet type, how bulk date edits rewrite tasks, and when a
// signup may still be cleared.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
)

// NormalizeDates sanitizes, dedupes and sorts a proposed date set, keeping
// the sentinel. Invalid members are reported, not silently dropped, since a
// bulk sheet edit should fail loudly on a typo.
func NormalizeDates(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		d := sanitize.Date(r)
		if d == "" {
			return nil, fmt.Errorf("invalid date %q", strings.TrimSpace(r))
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ValidateForType checks a normalized date set against the sheet type rules.
func ValidateForType(t models.SheetType, dates []string) error {
	switch t {
	case models.SheetTypeSingle:
		if len(dates) != 1 || dates[0] == models.DateSentinel {
			return fmt.Errorf("a single-date sheet requires exactly one real date")
		}
	case models.SheetTypeRecurring:
		distinct := 0
		for _, d := range dates {
			if d != models.DateSentinel {
				distinct++
			}
		}
		if distinct < 2 {
			return fmt.Errorf("a recurring sheet requires at least two distinct dates")
		}
	case models.SheetTypeMultiDay:
		if len(dates) == 0 {
			return fmt.Errorf("a multi-day sheet task requires a date")
		}
	case models.SheetTypeOngoing:
		for _, d := range dates {
			if d != models.DateSentinel {
				return fmt.Errorf("an ongoing sheet does not take dates")
			}
		}
	default:
		return fmt.Errorf("unknown sheet type %q", t)
	}
	return nil
}

// TaskDates returns the dates value a task of the given sheet should store.
// Single and recurring sheets share one list across all tasks; multi-day
// tasks keep their own date; ongoing tasks hold the sentinel.
func TaskDates(t models.SheetType, sheetDates []string, taskOwn string) string {
	switch t {
	case models.SheetTypeSingle, models.SheetTypeRecurring:
		return strings.Join(sheetDates, ",")
	case models.SheetTypeOngoing:
		return models.DateSentinel
	default:
		if d := sanitize.Date(taskOwn); d != "" {
			return d
		}
		return models.DateSentinel
	}
}

// Bounds derives the first/last real dates of a set, nil when only the
// sentinel is present.
func Bounds(dates []string) (first *string, last *string) {
	real := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != models.DateSentinel && d != "" {
			real = append(real, d)
		}
	}
	if len(real) == 0 {
		return nil, nil
	}
	sort.Strings(real)
	lo, hi := real[0], real[len(real)-1]
	return &lo, &hi
}
