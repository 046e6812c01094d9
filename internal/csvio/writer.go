package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/divijg19/clawtrack/internal/core"
)

// Columns is the fixed export column order.
var Columns = []string{
	"company_name", "contact_name", "title", "email", "phone", "website",
	"industry", "company_size", "city", "lead_source", "pipeline_stage",
	"deal_value", "status", "assigned_to", "lead_score", "expected_close_date",
	"next_follow_up", "tags", "notes", "created_date",
}

// Write renders leads as CSV in Columns order. Activities are not exported.
func Write(w io.Writer, leads []core.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, l := range leads {
		if err := cw.Write(record(l)); err != nil {
			return fmt.Errorf("write lead %s: %w", l.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// FormatDealValue renders v as the shortest decimal that parses back to v.
func FormatDealValue(v float64) string {
	return strconv.FormatFloat(core.SanitizeDealValue(v), 'f', -1, 64)
}

func record(l core.Lead) []string {
	notes := make([]string, 0, len(l.Notes))
	for _, n := range l.Notes {
		notes = append(notes, n.Content)
	}
	return []string{
		l.CompanyName,
		l.ContactName,
		l.Title,
		l.Email,
		l.Phone,
		l.Website,
		l.Industry,
		l.CompanySize,
		l.City,
		l.LeadSource,
		string(l.PipelineStage),
		FormatDealValue(l.DealValue),
		string(l.Status),
		l.AssignedTo,
		strconv.Itoa(l.LeadScore),
		core.FormatDate(l.ExpectedCloseDate),
		core.FormatDate(l.NextFollowUpDate),
		strings.Join(l.Tags, ", "),
		strings.Join(notes, " | "),
		core.FormatISO(l.CreatedDate),
	}
}
