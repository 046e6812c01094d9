package core

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the fixed-width UTC timestamp form used wherever timestamps are
// compared as text. Fixed width keeps lexicographic and chronological order equal.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is the calendar-date form used for scheduling fields.
const DateLayout = "2006-01-02"

// CreatedLeadDescription is the description of every lead's first activity.
const CreatedLeadDescription = "Lead created"

// IDFunc returns a fresh unique identifier.
type IDFunc func() string

// FormatISO renders t in ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// Draft carries the caller-supplied fields of a lead being created.
// Zero values mean "use the default".
type Draft struct {
	CompanyName             string
	ContactName             string
	Title                   string
	Email                   string
	Phone                   string
	Website                 string
	Industry                string
	CompanySize             string
	EstimatedMonthlyRevenue string
	City                    string
	LeadSource              string
	PipelineStage           Stage
	DealValue               float64
	ExpectedCloseDate       *time.Time
	AssignedTo              string
	LastContactDate         *time.Time
	NextFollowUpDate        *time.Time
	Notes                   []string
	Tags                    []string
	Status                  Status
	LostReason              string
}

// NewLead builds a lead from the defaults overlaid with d. It never fails:
// unknown stages, statuses and invalid deal values fall back to defaults.
func NewLead(d Draft, newID IDFunc, now time.Time, actor Actor) Lead {
	now = now.UTC()
	lead := Lead{
		ID:                      newID(),
		CompanyName:             strings.TrimSpace(d.CompanyName),
		ContactName:             strings.TrimSpace(d.ContactName),
		Title:                   strings.TrimSpace(d.Title),
		Email:                   strings.TrimSpace(d.Email),
		Phone:                   strings.TrimSpace(d.Phone),
		Website:                 strings.TrimSpace(d.Website),
		Industry:                strings.TrimSpace(d.Industry),
		CompanySize:             strings.TrimSpace(d.CompanySize),
		EstimatedMonthlyRevenue: strings.TrimSpace(d.EstimatedMonthlyRevenue),
		City:                    strings.TrimSpace(d.City),
		LeadSource:              strings.TrimSpace(d.LeadSource),
		PipelineStage:           StageNewLead,
		DealValue:               SanitizeDealValue(d.DealValue),
		ExpectedCloseDate:       cloneTime(d.ExpectedCloseDate),
		AssignedTo:              strings.TrimSpace(d.AssignedTo),
		LastContactDate:         cloneTime(d.LastContactDate),
		NextFollowUpDate:        cloneTime(d.NextFollowUpDate),
		Notes:                   []Note{},
		Tags:                    NormalizeTags(d.Tags),
		CreatedDate:             now,
		Status:                  StatusActive,
		LostReason:              strings.TrimSpace(d.LostReason),
		StageEnteredDate:        now,
	}
	if d.PipelineStage.Valid() {
		lead.PipelineStage = d.PipelineStage
	}
	if s, ok := ParseStatus(string(d.Status)); ok {
		lead.Status = s
	}

	for _, content := range d.Notes {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		lead.Notes = append(lead.Notes, Note{
			ID:        newID(),
			Content:   content,
			CreatedAt: now,
			UserID:    actor.ID,
			UserName:  actor.Name,
		})
	}

	lead.Activities = []Activity{{
		ID:          newID(),
		LeadID:      lead.ID,
		Type:        ActivityNote,
		Description: CreatedLeadDescription,
		Timestamp:   now,
		UserID:      actor.ID,
		UserName:    actor.Name,
	}}
	if actor.Name != "" {
		lead.LastEditedBy = actor.Name
		lead.LastEditedAt = &now
	}

	lead.LeadScore = Score(lead, now)
	return lead
}

// SanitizeDealValue coerces v into a non-negative finite amount.
func SanitizeDealValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// ParseDealValue strips everything but digits and '.' from s and parses the rest.
// Unparsable input yields 0.
func ParseDealValue(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		v = parseLeadingFloat(b.String())
	}
	return SanitizeDealValue(v)
}

// parseLeadingFloat parses the longest valid numeric prefix, so "1.2.3" reads as 1.2.
func parseLeadingFloat(s string) float64 {
	dot := false
	end := 0
	for i, r := range s {
		if r == '.' {
			if dot {
				break
			}
			dot = true
		}
		end = i + 1
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeTags trims tags, drops blanks and removes duplicates, keeping first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseDate reads a calendar date or full timestamp. Blank or invalid input returns nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339Nano, ISOLayout, "01/02/2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FormatDate renders an optional date in DateLayout, or "" when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
