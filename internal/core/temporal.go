package core

import (
	"time"
)

const day = 24 * time.Hour

// DaysBetween returns the whole number of days separating a and b, regardless of order.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d / day)
}

// DaysInStage reports how long lead has been in its current stage at time now.
func DaysInStage(lead Lead, now time.Time) int {
	if lead.StageEnteredDate.IsZero() {
		return 0
	}
	return DaysBetween(lead.StageEnteredDate, now)
}

// IsOverdue reports whether lead's next follow-up lies before now.
func IsOverdue(lead Lead, now time.Time) bool {
	if lead.NextFollowUpDate == nil {
		return false
	}
	return lead.NextFollowUpDate.Before(now)
}

// IsDueToday reports whether lead's next follow-up falls on now's UTC calendar date.
func IsDueToday(lead Lead, now time.Time) bool {
	if lead.NextFollowUpDate == nil {
		return false
	}
	return lead.NextFollowUpDate.UTC().Format(DateLayout) == now.UTC().Format(DateLayout)
}

// IsStale reports whether an open lead has sat in its stage for at least thresholdDays.
func IsStale(lead Lead, now time.Time, thresholdDays int) bool {
	if lead.PipelineStage.Closed() || thresholdDays <= 0 {
		return false
	}
	return DaysInStage(lead, now) >= thresholdDays
}
