package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func daysFromNow(n int) *time.Time {
	t := fixedNow.Add(time.Duration(n) * 24 * time.Hour)
	return &t
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		lead Lead
		want int
	}{
		{name: "empty lead", lead: Lead{}, want: 0},
		{name: "small deal", lead: Lead{DealValue: 10}, want: 5},
		{name: "mid deal", lead: Lead{DealValue: 2000}, want: 15},
		{name: "large deal", lead: Lead{DealValue: 5000}, want: 25},
		{name: "senior title is case-insensitive", lead: Lead{Title: "Co-Founder & CEO"}, want: 25},
		{name: "vp substring", lead: Lead{Title: "VP Sales"}, want: 25},
		{name: "middle title", lead: Lead{Title: "Office Manager"}, want: 15},
		{name: "head of", lead: Lead{Title: "Head of Ops"}, want: 15},
		{name: "other title", lead: Lead{Title: "Receptionist"}, want: 5},
		{name: "industry other earns nothing", lead: Lead{Industry: "Other"}, want: 0},
		{name: "industry and size", lead: Lead{Industry: "Law Firm", CompanySize: "6-15"}, want: 25},
		{name: "close within 30 days", lead: Lead{ExpectedCloseDate: daysFromNow(30)}, want: 25},
		{name: "close in the past counts by distance", lead: Lead{ExpectedCloseDate: daysFromNow(-10)}, want: 25},
		{name: "close within 90 days", lead: Lead{ExpectedCloseDate: daysFromNow(31)}, want: 15},
		{name: "close far away", lead: Lead{ExpectedCloseDate: daysFromNow(91)}, want: 5},
		{
			name: "everything maxed is capped",
			lead: Lead{
				DealValue:         9000,
				Title:             "Owner",
				Industry:          "Real Estate",
				CompanySize:       "1-5",
				ExpectedCloseDate: daysFromNow(3),
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.lead, fixedNow))
		})
	}
}

func TestScore_Bounded(t *testing.T) {
	titles := []string{"", "ceo", "manager", "intern"}
	values := []float64{0, 1, 1999, 2000, 4999, 5000, 1e9}
	industries := []string{"", "Other", "Construction"}
	closes := []*time.Time{nil, daysFromNow(0), daysFromNow(60), daysFromNow(-400)}

	for _, title := range titles {
		for _, v := range values {
			for _, ind := range industries {
				for _, c := range closes {
					lead := Lead{Title: title, DealValue: v, Industry: ind, CompanySize: "200+", ExpectedCloseDate: c}
					s := Score(lead, fixedNow)
					assert.GreaterOrEqual(t, s, 0)
					assert.LessOrEqual(t, s, MaxScore)
				}
			}
		}
	}
}

func TestScore_MonotonicInDealValue(t *testing.T) {
	base := Lead{Title: "Director", Industry: "B2B Sales"}

	high, mid, low := base, base, base
	high.DealValue = 5000
	mid.DealValue = 3500
	low.DealValue = 100

	assert.GreaterOrEqual(t, Score(high, fixedNow), Score(mid, fixedNow))
	assert.GreaterOrEqual(t, Score(mid, fixedNow), Score(low, fixedNow))
}

func TestScoreBand(t *testing.T) {
	assert.Equal(t, "hot", ScoreBand(70))
	assert.Equal(t, "warm", ScoreBand(40))
	assert.Equal(t, "cold", ScoreBand(39))
}
