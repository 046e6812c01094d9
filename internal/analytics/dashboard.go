// Package analytics derives dashboard figures from lead snapshots.
// Every function is pure; the current time is always passed in.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/divijg19/clawtrack/internal/core"
)

const day = 24 * time.Hour

// Count is a labelled tally.
type Count struct {
	Name  string
	Value int
}

// StageCount is the number of leads sitting in one stage.
type StageCount struct {
	Stage core.Stage
	Label string
	Count int
}

// Conversion is the share of leads that progressed beyond a stage.
type Conversion struct {
	From core.Stage
	Rate int
}

// MemberStats summarizes one team member's book of business.
type MemberStats struct {
	Name           string
	AvatarColor    string
	Assigned       int
	Won            int
	Pipeline       float64
	CallsWeek      int
	CallsMonth     int
	Activities     int
	ConversionRate int
}

// Dashboard is the full set of headline figures.
type Dashboard struct {
	Total          int
	Active         int
	ClosedWon      int
	ClosedLost     int
	WinRate        int
	PipelineValue  float64
	RevenueWon     float64
	Overdue        []core.Lead
	DueToday       []core.Lead
	AddedWeek      int
	AddedMonth     int
	AvgDaysToClose int
	Stages         []StageCount
	Industries     []Count
	Sources        []Count
	Conversions    []Conversion
	Team           []MemberStats
}

func isActive(l core.Lead) bool {
	return l.Status == core.StatusActive || l.Status == core.StatusOnHold
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// Summarize computes the dashboard over leads at time now. Team figures are
// produced for the active members only.
func Summarize(leads []core.Lead, members []core.User, now time.Time) Dashboard {
	now = now.UTC()
	weekAgo := now.Add(-7 * day)
	monthAgo := now.Add(-30 * day)

	d := Dashboard{Total: len(leads)}
	industries := map[string]int{}
	sources := map[string]int{}
	stageCounts := make(map[core.Stage]int, len(core.Stages))
	closeDays := 0

	for _, l := range leads {
		if isActive(l) {
			d.Active++
			d.PipelineValue += l.DealValue
		}
		switch l.PipelineStage {
		case core.StageClosedWon:
			d.ClosedWon++
			d.RevenueWon += l.DealValue
			closeDays += core.DaysBetween(l.CreatedDate, l.StageEnteredDate)
		case core.StageClosedLost:
			d.ClosedLost++
		}
		if l.Status == core.StatusActive {
			if core.IsOverdue(l, now) {
				d.Overdue = append(d.Overdue, l)
			}
			if core.IsDueToday(l, now) {
				d.DueToday = append(d.DueToday, l)
			}
		}
		if !l.CreatedDate.Before(weekAgo) {
			d.AddedWeek++
		}
		if !l.CreatedDate.Before(monthAgo) {
			d.AddedMonth++
		}
		stageCounts[l.PipelineStage]++
		if l.Industry != "" {
			industries[l.Industry]++
		}
		if l.LeadSource != "" {
			sources[l.LeadSource]++
		}
	}

	d.WinRate = percent(d.ClosedWon, d.ClosedWon+d.ClosedLost)
	if d.ClosedWon > 0 {
		d.AvgDaysToClose = int(math.Round(float64(closeDays) / float64(d.ClosedWon)))
	}

	for i, s := range core.Stages {
		d.Stages = append(d.Stages, StageCount{Stage: s.Key, Label: s.Label, Count: stageCounts[s.Key]})
		if i == len(core.Stages)-1 {
			continue
		}
		forward := 0
		for _, later := range core.Stages[i+1:] {
			forward += stageCounts[later.Key]
		}
		d.Conversions = append(d.Conversions, Conversion{
			From: s.Key,
			Rate: percent(forward, stageCounts[s.Key]+forward),
		})
	}

	d.Industries = sortedCounts(industries)
	d.Sources = sortedCounts(sources)
	d.Team = teamStats(leads, members, weekAgo, monthAgo)
	return d
}

// sortedCounts orders tallies by descending value, then name.
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, v := range m {
		out = append(out, Count{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func teamStats(leads []core.Lead, members []core.User, weekAgo, monthAgo time.Time) []MemberStats {
	out := make([]MemberStats, 0, len(members))
	for _, m := range members {
		if !m.Active {
			continue
		}
		s := MemberStats{Name: m.Name, AvatarColor: m.AvatarColor}
		lost := 0
		for _, l := range leads {
			if l.AssignedTo != m.Name {
				continue
			}
			s.Assigned++
			switch l.PipelineStage {
			case core.StageClosedWon:
				s.Won++
			case core.StageClosedLost:
				lost++
			}
			if l.Status == core.StatusActive {
				s.Pipeline += l.DealValue
			}
			s.Activities += len(l.Activities)
			for _, a := range l.Activities {
				if a.Type != core.ActivityCall {
					continue
				}
				if !a.Timestamp.Before(weekAgo) {
					s.CallsWeek++
				}
				if !a.Timestamp.Before(monthAgo) {
					s.CallsMonth++
				}
			}
		}
		s.ConversionRate = percent(s.Won, s.Won+lost)
		out = append(out, s)
	}
	return out
}
