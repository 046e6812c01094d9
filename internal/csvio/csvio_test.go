package csvio

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divijg19/clawtrack/internal/core"
)

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Company Name":     "company_name",
		"  DEAL   VALUE  ": "deal_value",
		"email":            "email",
		"Lead\tSource":     "lead_source",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestMapRow_Synonyms(t *testing.T) {
	header := []string{"Business", "Name", "Role", "Telephone", "URL", "Location", "Deal Value", "Source", "Tags", "Notes", "Stage", "Favourite"}
	record := []string{"Acme", "Jane Roe", "VP Sales", "555-0100", "acme.test", "Austin", "$12,500.75", "Referral", "vip, q3 ,,vip", "met at expo", "Proposal Sent", "ignored"}
	d, ok := MapRow(header, record)
	require.True(t, ok)
	assert.Equal(t, "Acme", d.CompanyName)
	assert.Equal(t, "Jane Roe", d.ContactName)
	assert.Equal(t, "VP Sales", d.Title)
	assert.Equal(t, "555-0100", d.Phone)
	assert.Equal(t, "acme.test", d.Website)
	assert.Equal(t, "Austin", d.City)
	assert.Equal(t, 12500.75, d.DealValue)
	assert.Equal(t, "Referral", d.LeadSource)
	assert.Equal(t, []string{"vip", "q3"}, d.Tags)
	assert.Equal(t, []string{"met at expo"}, d.Notes)
	assert.Equal(t, core.StageProposalSent, d.PipelineStage)
}

func TestMapRow_RightmostDuplicateWins(t *testing.T) {
	d, ok := MapRow([]string{"name", "contact_name"}, []string{"Short", "Jane Roe"})
	require.True(t, ok)
	assert.Equal(t, "Jane Roe", d.ContactName)

	d, ok = MapRow([]string{"contact_name", "name"}, []string{"Jane Roe", "Short"})
	require.True(t, ok)
	assert.Equal(t, "Short", d.ContactName)

	d, ok = MapRow([]string{"company", "Company Name", "city"}, []string{"Acme", "Acme Corp"})
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", d.CompanyName)
	assert.Empty(t, d.City)
}

func TestMapRow_DiscardsNamelessRows(t *testing.T) {
	_, ok := MapRow([]string{"company_name", "name", "email"}, []string{"", "", "x@y.com"})
	assert.False(t, ok)

	_, ok = MapRow([]string{"company_name", "email"}, []string{"  ", "x@y.com"})
	assert.False(t, ok)

	_, ok = MapRow([]string{"contact"}, []string{"Jane"})
	assert.True(t, ok)
}

func TestRead(t *testing.T) {
	input := "\ufeffCompany Name,Contact Name,Email,Deal Value,Extra\n" +
		"Acme,Jane,jane@acme.test,\"1,500\",x\n" +
		"\n" +
		",,nobody@y.com,10,\n" +
		"Globex,,,abc,\n" +
		"Short row\n"

	drafts, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, "Acme", drafts[0].CompanyName)
	assert.Equal(t, "jane@acme.test", drafts[0].Email)
	assert.Equal(t, 1500.0, drafts[0].DealValue)
	assert.Equal(t, "Globex", drafts[1].CompanyName)
	assert.Equal(t, 0.0, drafts[1].DealValue)
	assert.Equal(t, "Short row", drafts[2].CompanyName)
}

func TestRead_HeaderOrder(t *testing.T) {
	drafts, err := Read(strings.NewReader("name,contact_name,business\nJ,Jane Roe,Acme\n"))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Jane Roe", drafts[0].ContactName)
	assert.Equal(t, "Acme", drafts[0].CompanyName)
}

func TestRead_Empty(t *testing.T) {
	drafts, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestRead_MalformedCSV(t *testing.T) {
	_, err := Read(strings.NewReader("company\nac\"me\n"))
	assert.Error(t, err)
}

func sampleLead() core.Lead {
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return core.Lead{
		ID:                "l1",
		CompanyName:       "Acme",
		ContactName:       "Jane",
		Title:             "CEO",
		Email:             "jane@acme.test",
		Industry:          "Real Estate",
		City:              "Austin",
		PipelineStage:     core.StageNegotiation,
		DealValue:         1500.5,
		Status:            core.StatusActive,
		LeadScore:         70,
		ExpectedCloseDate: core.ParseDate("2025-04-01"),
		Tags:              []string{"vip", "q3"},
		Notes:             []core.Note{{ID: "n1", Content: "second"}, {ID: "n2", Content: "first"}},
		Activities:        []core.Activity{{ID: "a1", Description: "Lead created"}},
		CreatedDate:       created,
	}
}

func TestWrite_ColumnsAndValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []core.Lead{sampleLead()}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns, rows[0])

	got := make(map[string]string, len(Columns))
	for i, col := range rows[0] {
		got[col] = rows[1][i]
	}
	assert.Equal(t, "negotiation", got["pipeline_stage"])
	assert.Equal(t, "1500.5", got["deal_value"])
	assert.Equal(t, "70", got["lead_score"])
	assert.Equal(t, "2025-04-01", got["expected_close_date"])
	assert.Equal(t, "", got["next_follow_up"])
	assert.Equal(t, "vip, q3", got["tags"])
	assert.Equal(t, "second | first", got["notes"])
	assert.Equal(t, "2025-03-10T12:00:00.000Z", got["created_date"])
	assert.NotContains(t, buf.String(), "Lead created")
}

func TestExportImport_DealValueFidelity(t *testing.T) {
	for _, v := range []float64{1500.5, 0, 12, 99999.99, 0.1} {
		lead := sampleLead()
		lead.DealValue = v

		var buf bytes.Buffer
		require.NoError(t, Write(&buf, []core.Lead{lead}))

		drafts, err := Read(&buf)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, v, drafts[0].DealValue)
	}
}

func TestExportImport_FieldsSurvive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []core.Lead{sampleLead()}))

	drafts, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "Acme", d.CompanyName)
	assert.Equal(t, "Jane", d.ContactName)
	assert.Equal(t, core.StageNegotiation, d.PipelineStage)
	assert.Equal(t, []string{"vip", "q3"}, d.Tags)
	assert.Equal(t, []string{"second | first"}, d.Notes)
	require.NotNil(t, d.ExpectedCloseDate)
	assert.Equal(t, "2025-04-01", core.FormatDate(d.ExpectedCloseDate))
}
