package core

import (
	"strings"
)

// Filter selects a subset of leads. Every non-empty field is a predicate and
// all predicates must hold; empty fields impose no constraint.
type Filter struct {
	Search     string   `json:"search"`
	Stage      Stage    `json:"stage"`
	Industry   string   `json:"industry"`
	City       string   `json:"city"`
	LeadSource string   `json:"leadSource"`
	AssignedTo string   `json:"assignedTo"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags"`
	DateFrom   string   `json:"dateFrom"`
	DateTo     string   `json:"dateTo"`
}

// Normalize trims every predicate and drops blank tags.
func (f Filter) Normalize() Filter {
	f.Search = strings.TrimSpace(f.Search)
	f.Stage = Stage(strings.TrimSpace(string(f.Stage)))
	f.Industry = strings.TrimSpace(f.Industry)
	f.City = strings.TrimSpace(f.City)
	f.LeadSource = strings.TrimSpace(f.LeadSource)
	f.AssignedTo = strings.TrimSpace(f.AssignedTo)
	f.Status = strings.TrimSpace(f.Status)
	f.Tags = NormalizeTags(f.Tags)
	f.DateFrom = strings.TrimSpace(f.DateFrom)
	f.DateTo = strings.TrimSpace(f.DateTo)
	return f
}

// IsEmpty reports whether f constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.Search == "" && f.Stage == "" && f.Industry == "" && f.City == "" &&
		f.LeadSource == "" && f.AssignedTo == "" && f.Status == "" &&
		len(f.Tags) == 0 && f.DateFrom == "" && f.DateTo == ""
}

// Match reports whether lead passes every active predicate of f.
func (f Filter) Match(lead Lead) bool {
	if f.Search != "" && !strings.Contains(searchText(lead), strings.ToLower(f.Search)) {
		return false
	}
	if f.Stage != "" && lead.PipelineStage != f.Stage {
		return false
	}
	if f.Industry != "" && lead.Industry != f.Industry {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(lead.City), strings.ToLower(f.City)) {
		return false
	}
	if f.LeadSource != "" && lead.LeadSource != f.LeadSource {
		return false
	}
	if f.AssignedTo != "" && lead.AssignedTo != f.AssignedTo {
		return false
	}
	if f.Status != "" && string(lead.Status) != f.Status {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(lead, f.Tags) {
		return false
	}
	if f.DateFrom != "" || f.DateTo != "" {
		created := FormatISO(lead.CreatedDate)
		if f.DateFrom != "" && created < f.DateFrom {
			return false
		}
		if f.DateTo != "" && created > f.DateTo {
			return false
		}
	}
	return true
}

// FilterLeads returns the leads matching f, in input order.
func FilterLeads(leads []Lead, f Filter) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

func hasAnyTag(lead Lead, tags []string) bool {
	for _, t := range tags {
		if lead.HasTag(t) {
			return true
		}
	}
	return false
}

func searchText(lead Lead) string {
	parts := []string{
		lead.CompanyName, lead.ContactName, lead.Email, lead.Phone,
		lead.City, lead.Industry, lead.Title, lead.Website,
	}
	parts = append(parts, lead.Tags...)
	for _, n := range lead.Notes {
		parts = append(parts, n.Content)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
