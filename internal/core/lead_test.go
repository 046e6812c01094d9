package core

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestNewLead_Defaults(t *testing.T) {
	lead := NewLead(Draft{}, sequentialIDs(), fixedNow, Actor{})

	assert.Equal(t, "id-1", lead.ID)
	assert.Equal(t, StageNewLead, lead.PipelineStage)
	assert.Equal(t, StatusActive, lead.Status)
	assert.Zero(t, lead.DealValue)
	assert.Empty(t, lead.CompanyName)
	assert.NotNil(t, lead.Notes)
	assert.NotNil(t, lead.Tags)
	assert.True(t, lead.CreatedDate.Equal(fixedNow))
	assert.True(t, lead.StageEnteredDate.Equal(fixedNow))
	assert.Empty(t, lead.LastEditedBy)
	assert.Nil(t, lead.LastEditedAt)

	require.Len(t, lead.Activities, 1)
	first := lead.Activities[0]
	assert.Equal(t, ActivityNote, first.Type)
	assert.Equal(t, CreatedLeadDescription, first.Description)
	assert.Equal(t, lead.ID, first.LeadID)
	assert.True(t, first.Timestamp.Equal(fixedNow))
}

func TestNewLead_OverlaysDraft(t *testing.T) {
	actor := Actor{ID: "u1", Name: "Pablo"}
	draft := Draft{
		CompanyName:   "  Acme  ",
		Title:         "CEO",
		PipelineStage: StageProposalSent,
		Status:        "on hold",
		DealValue:     6000,
		Tags:          []string{"vip", " vip ", ""},
		Notes:         []string{"met at expo", "  "},
	}
	lead := NewLead(draft, sequentialIDs(), fixedNow, actor)

	assert.Equal(t, "Acme", lead.CompanyName)
	assert.Equal(t, StageProposalSent, lead.PipelineStage)
	assert.Equal(t, StatusOnHold, lead.Status)
	assert.Equal(t, []string{"vip"}, lead.Tags)
	require.Len(t, lead.Notes, 1)
	assert.Equal(t, "met at expo", lead.Notes[0].Content)
	assert.Equal(t, "Pablo", lead.Notes[0].UserName)
	assert.Equal(t, "Pablo", lead.Activities[0].UserName)
	assert.Equal(t, "Pablo", lead.LastEditedBy)
	assert.Equal(t, 50, lead.LeadScore)
}

func TestNewLead_InvalidInputDegrades(t *testing.T) {
	lead := NewLead(Draft{PipelineStage: "won-ish", Status: "Maybe", DealValue: -40}, sequentialIDs(), fixedNow, Actor{})
	assert.Equal(t, StageNewLead, lead.PipelineStage)
	assert.Equal(t, StatusActive, lead.Status)
	assert.Zero(t, lead.DealValue)

	assert.Zero(t, NewLead(Draft{DealValue: math.NaN()}, sequentialIDs(), fixedNow, Actor{}).DealValue)
	assert.Zero(t, NewLead(Draft{DealValue: math.Inf(1)}, sequentialIDs(), fixedNow, Actor{}).DealValue)
}

func TestParseDealValue(t *testing.T) {
	tests := map[string]float64{
		"":          0,
		"abc":       0,
		"1500.5":    1500.5,
		"$12,500":   12500,
		"USD 99.99": 99.99,
		"-300":      300,
		"1.2.3":     1.2,
		".5":        0.5,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDealValue(in), in)
	}
}

func TestParseStage(t *testing.T) {
	for _, in := range []string{"closed_won", "Closed Won", "closed won", "CLOSED_WON"} {
		s, ok := ParseStage(in)
		assert.True(t, ok, in)
		assert.Equal(t, StageClosedWon, s, in)
	}
	_, ok := ParseStage("won")
	assert.False(t, ok)

	assert.Equal(t, "Discovery Scheduled", StageDiscoveryScheduled.Label())
	assert.Equal(t, 0, StageNewLead.Index())
	assert.Equal(t, 7, StageClosedLost.Index())
	assert.True(t, StageClosedLost.Closed())
}

func TestLeadClone_DoesNotAlias(t *testing.T) {
	closeAt := fixedNow
	orig := Lead{
		Tags:              []string{"a"},
		Notes:             []Note{{ID: "n"}},
		Activities:        []Activity{{ID: "x", Metadata: map[string]string{"from": "new_lead"}}},
		ExpectedCloseDate: &closeAt,
	}
	c := orig.Clone()
	c.Tags[0] = "b"
	c.Notes[0].ID = "m"
	c.Activities[0].Metadata["from"] = "contacted"
	*c.ExpectedCloseDate = fixedNow.Add(time.Hour)

	assert.Equal(t, "a", orig.Tags[0])
	assert.Equal(t, "n", orig.Notes[0].ID)
	assert.Equal(t, "new_lead", orig.Activities[0].Metadata["from"])
	assert.True(t, orig.ExpectedCloseDate.Equal(fixedNow))
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2025-04-01")
	require.NotNil(t, d)
	assert.Equal(t, "2025-04-01", FormatDate(d))
	assert.Nil(t, ParseDate("someday"))
	assert.Nil(t, ParseDate(" "))
	assert.Equal(t, "", FormatDate(nil))
}
