package core

import (
	"strings"
	"time"
)

// MaxScore caps every lead score.
const MaxScore = 100

var (
	seniorTitles = []string{"ceo", "owner", "founder", "president", "director", "vp"}
	middleTitles = []string{"manager", "head"}
)

// Score computes a 0..100 quality estimate for lead.
//
// The timeline component depends on now, so a score can drift as days pass
// even when no field of the lead changes.
func Score(lead Lead, now time.Time) int {
	score := 0

	switch {
	case lead.DealValue >= 5000:
		score += 25
	case lead.DealValue >= 2000:
		score += 15
	case lead.DealValue > 0:
		score += 5
	}

	title := strings.ToLower(lead.Title)
	switch {
	case containsAny(title, seniorTitles):
		score += 25
	case containsAny(title, middleTitles):
		score += 15
	case title != "":
		score += 5
	}

	if lead.Industry != "" && lead.Industry != "Other" {
		score += 15
	}
	if lead.CompanySize != "" {
		score += 10
	}

	if lead.ExpectedCloseDate != nil {
		days := DaysBetween(now, *lead.ExpectedCloseDate)
		switch {
		case days <= 30:
			score += 25
		case days <= 90:
			score += 15
		default:
			score += 5
		}
	}

	if score > MaxScore {
		return MaxScore
	}
	return score
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// ScoreBand buckets a score for display: hot, warm or cold.
func ScoreBand(score int) string {
	switch {
	case score >= 70:
		return "hot"
	case score >= 40:
		return "warm"
	default:
		return "cold"
	}
}
