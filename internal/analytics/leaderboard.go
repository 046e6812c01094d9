package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/divijg19/clawtrack/internal/core"
)

// Window is the period a leaderboard covers.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowAll   Window = "all"
)

// ParseWindow resolves a window name. Empty selects the current month.
func ParseWindow(s string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case "", WindowMonth:
		return WindowMonth, nil
	case WindowWeek:
		return WindowWeek, nil
	case WindowAll:
		return WindowAll, nil
	}
	return "", fmt.Errorf("unknown window %q (want week, month or all)", s)
}

// Start returns the first instant counted by w at time now.
// A week is the trailing seven days; a month starts on the first of the calendar month.
func (w Window) Start(now time.Time) time.Time {
	now = now.UTC()
	switch w {
	case WindowWeek:
		return now.Add(-7 * day)
	case WindowAll:
		return time.Time{}
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// Standing is one member's leaderboard row.
type Standing struct {
	Name          string
	AvatarColor   string
	Calls         int
	Deals         int
	Tasks         int
	PipelineValue float64
	Score         int
}

// Leaderboard ranks active members by deals*100 + calls*10 + tasks*20 within w.
// Calls are Call activities logged by the member; deals are the member's leads
// that entered closed_won inside the window; tasks are the member's tasks
// completed inside the window.
func Leaderboard(leads []core.Lead, tasks []core.Task, members []core.User, w Window, now time.Time) []Standing {
	start := w.Start(now)
	out := make([]Standing, 0, len(members))
	for _, m := range members {
		if !m.Active {
			continue
		}
		s := Standing{Name: m.Name, AvatarColor: m.AvatarColor}
		for _, l := range leads {
			for _, a := range l.Activities {
				if a.Type == core.ActivityCall && a.UserName == m.Name && !a.Timestamp.Before(start) {
					s.Calls++
				}
			}
			if l.AssignedTo != m.Name {
				continue
			}
			if l.PipelineStage == core.StageClosedWon {
				if !l.StageEnteredDate.Before(start) {
					s.Deals++
				}
				continue
			}
			s.PipelineValue += l.DealValue
		}
		for _, t := range tasks {
			if t.Status == core.TaskDone && t.AssignedTo == m.Name && t.CompletedAt != nil && !t.CompletedAt.Before(start) {
				s.Tasks++
			}
		}
		s.Score = s.Deals*100 + s.Calls*10 + s.Tasks*20
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
