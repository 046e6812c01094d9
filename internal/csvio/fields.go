// Package csvio maps CSV rows to lead drafts and leads back to CSV.
package csvio

import (
	"strings"

	"github.com/divijg19/clawtrack/internal/core"
)

type field int

const (
	fieldCompany field = iota + 1
	fieldContact
	fieldTitle
	fieldEmail
	fieldPhone
	fieldWebsite
	fieldIndustry
	fieldCity
	fieldNotes
	fieldDealValue
	fieldLeadSource
	fieldAssignedTo
	fieldCompanySize
	fieldStatus
	fieldTags
	fieldStage
	fieldExpectedClose
	fieldNextFollowUp
	fieldLastContact
	fieldLostReason
	fieldMonthlyRevenue
)

// synonyms maps normalized column headers to lead fields.
var synonyms = map[string]field{
	"company_name":              fieldCompany,
	"companyname":               fieldCompany,
	"company":                   fieldCompany,
	"business":                  fieldCompany,
	"contact_name":              fieldContact,
	"contactname":               fieldContact,
	"contact":                   fieldContact,
	"name":                      fieldContact,
	"title":                     fieldTitle,
	"role":                      fieldTitle,
	"email":                     fieldEmail,
	"phone":                     fieldPhone,
	"telephone":                 fieldPhone,
	"website":                   fieldWebsite,
	"url":                       fieldWebsite,
	"industry":                  fieldIndustry,
	"city":                      fieldCity,
	"location":                  fieldCity,
	"notes":                     fieldNotes,
	"deal_value":                fieldDealValue,
	"dealvalue":                 fieldDealValue,
	"lead_source":               fieldLeadSource,
	"leadsource":                fieldLeadSource,
	"source":                    fieldLeadSource,
	"assigned_to":               fieldAssignedTo,
	"assignedto":                fieldAssignedTo,
	"company_size":              fieldCompanySize,
	"companysize":               fieldCompanySize,
	"status":                    fieldStatus,
	"tags":                      fieldTags,
	"pipeline_stage":            fieldStage,
	"stage":                     fieldStage,
	"expected_close_date":       fieldExpectedClose,
	"next_follow_up":            fieldNextFollowUp,
	"next_follow_up_date":       fieldNextFollowUp,
	"last_contact_date":         fieldLastContact,
	"lost_reason":               fieldLostReason,
	"estimated_monthly_revenue": fieldMonthlyRevenue,
}

// NormalizeHeader lowercases and trims col and joins internal whitespace with '_'.
func NormalizeHeader(col string) string {
	return strings.Join(strings.Fields(strings.ToLower(col)), "_")
}

// MapRow converts one record into a draft, pairing values with header by
// position. Columns apply left to right, so when two headers map to the same
// field the rightmost one wins. Unknown columns and values past the header are
// ignored. The boolean is false when the row names neither a company nor a
// contact and must be discarded.
func MapRow(header, record []string) (core.Draft, bool) {
	var d core.Draft
	for i, col := range header {
		if i >= len(record) {
			break
		}
		f, ok := synonyms[NormalizeHeader(col)]
		if !ok {
			continue
		}
		apply(&d, f, record[i])
	}

	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.ContactName = strings.TrimSpace(d.ContactName)
	if d.CompanyName == "" && d.ContactName == "" {
		return core.Draft{}, false
	}
	return d, true
}

func apply(d *core.Draft, f field, value string) {
	switch f {
	case fieldCompany:
		d.CompanyName = value
	case fieldContact:
		d.ContactName = value
	case fieldTitle:
		d.Title = value
	case fieldEmail:
		d.Email = value
	case fieldPhone:
		d.Phone = value
	case fieldWebsite:
		d.Website = value
	case fieldIndustry:
		d.Industry = value
	case fieldCity:
		d.City = value
	case fieldNotes:
		if strings.TrimSpace(value) != "" {
			d.Notes = []string{value}
		}
	case fieldDealValue:
		d.DealValue = core.ParseDealValue(value)
	case fieldLeadSource:
		d.LeadSource = value
	case fieldAssignedTo:
		d.AssignedTo = value
	case fieldCompanySize:
		d.CompanySize = value
	case fieldStatus:
		d.Status = core.Status(value)
	case fieldTags:
		if strings.TrimSpace(value) != "" {
			d.Tags = core.NormalizeTags(strings.Split(value, ","))
		}
	case fieldStage:
		if s, ok := core.ParseStage(value); ok {
			d.PipelineStage = s
		}
	case fieldExpectedClose:
		d.ExpectedCloseDate = core.ParseDate(value)
	case fieldNextFollowUp:
		d.NextFollowUpDate = core.ParseDate(value)
	case fieldLastContact:
		d.LastContactDate = core.ParseDate(value)
	case fieldLostReason:
		d.LostReason = value
	case fieldMonthlyRevenue:
		d.EstimatedMonthlyRevenue = value
	}
}
