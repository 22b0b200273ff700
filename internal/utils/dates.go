package utils

import (
	"time"

	"github.com/Hecoloko/shulgenius-api/internal/models"
)

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// NextBillingDate advances a billing anchor by one period. The new date
// is derived from the previous anchor, never from "now", so a late run
// does not drift the schedule.
//
// monthly_hebrew currently advances like monthly; Hebrew-calendar date
// math has not been implemented.
func NextBillingDate(anchor time.Time, frequency models.BillingFrequency) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return anchor.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7)
	case models.FrequencyMonthly, models.FrequencyMonthlyHebrew:
		return anchor.AddDate(0, 1, 0)
	case models.FrequencyQuarterly:
		return anchor.AddDate(0, 3, 0)
	case models.FrequencyAnnual:
		return anchor.AddDate(1, 0, 0)
	default:
		return anchor.AddDate(0, 1, 0)
	}
}
