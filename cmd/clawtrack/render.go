package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/divijg19/clawtrack/internal/analytics"
	"github.com/divijg19/clawtrack/internal/core"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	coldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(26)
)

// bandStyle colors a score by its band.
func bandStyle(score int) lipgloss.Style {
	switch core.ScoreBand(score) {
	case "hot":
		return hotStyle
	case "warm":
		return warmStyle
	}
	return coldStyle
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render(title))
}

func stat(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), value)
}

// boardCard is one lead inside a board column.
func boardCard(l core.Lead, now time.Time, staleDays int) string {
	score := core.Score(l, now)
	var b strings.Builder
	b.WriteString(truncate(l.DisplayName(), 22))
	b.WriteString("\n")
	b.WriteString(bandStyle(score).Render(fmt.Sprintf("%3d", score)))
	b.WriteString(" " + shortMoney(l.DealValue))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" %dd", core.DaysInStage(l, now))))
	switch {
	case core.IsOverdue(l, now) && !core.IsDueToday(l, now):
		b.WriteString(alertStyle.Render(" overdue"))
	case core.IsStale(l, now, staleDays):
		b.WriteString(dimStyle.Render(" stale"))
	}
	return b.String()
}

// renderBoard lays out one column per stage, wrapping rows to fit width.
func renderBoard(w io.Writer, leads []core.Lead, settings core.Settings, now time.Time, perColumn, width int) {
	byStage := make(map[core.Stage][]core.Lead, len(core.Stages))
	for _, l := range leads {
		byStage[l.PipelineStage] = append(byStage[l.PipelineStage], l)
	}

	columns := make([]string, 0, len(core.Stages))
	for _, info := range core.Stages {
		stageLeads := byStage[info.Key]
		var total float64
		for _, l := range stageLeads {
			total += l.DealValue
		}
		var b strings.Builder
		b.WriteString(sectionStyle.Render(info.Label))
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d · %s", len(stageLeads), shortMoney(total))))
		for i, l := range stageLeads {
			if perColumn > 0 && i == perColumn {
				b.WriteString(dimStyle.Render(fmt.Sprintf("\n\n+%d more", len(stageLeads)-perColumn)))
				break
			}
			b.WriteString("\n\n" + boardCard(l, now, settings.StaleThresholdDays))
		}
		columns = append(columns, columnStyle.Render(b.String()))
	}

	perRow := 1
	if colWidth := lipgloss.Width(columns[0]); colWidth > 0 && width > colWidth {
		perRow = width / colWidth
	}
	for start := 0; start < len(columns); start += perRow {
		end := start + perRow
		if end > len(columns) {
			end = len(columns)
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, columns[start:end]...))
	}
}

func renderDashboard(w io.Writer, d analytics.Dashboard, now time.Time) {
	fmt.Fprintln(w, headerStyle.Render("Pipeline dashboard · "+now.Format("Mon Jan 2 2006")))

	section(w, "OVERVIEW")
	stat(w, "Total leads", d.Total)
	stat(w, "Active", d.Active)
	stat(w, "Pipeline value", money(d.PipelineValue))
	stat(w, "Revenue won", money(d.RevenueWon))
	stat(w, "Won / lost", fmt.Sprintf("%d / %d (win rate %d%%)", d.ClosedWon, d.ClosedLost, d.WinRate))
	stat(w, "Added this week", d.AddedWeek)
	stat(w, "Added this month", d.AddedMonth)
	stat(w, "Avg days to close", d.AvgDaysToClose)

	if len(d.Overdue) > 0 || len(d.DueToday) > 0 {
		section(w, "FOLLOW-UPS")
		for _, l := range d.Overdue {
			fmt.Fprintf(w, "  %s %-8s %s (%s)\n", alertStyle.Render("overdue"), shortID(l.ID), l.DisplayName(), core.FormatDate(l.NextFollowUpDate))
		}
		for _, l := range d.DueToday {
			fmt.Fprintf(w, "  %s   %-8s %s\n", warmStyle.Render("today"), shortID(l.ID), l.DisplayName())
		}
	}

	section(w, "STAGES")
	for i, s := range d.Stages {
		line := fmt.Sprintf("  %-20s %4d", s.Label, s.Count)
		if i < len(d.Conversions) {
			line += dimStyle.Render(fmt.Sprintf("   %3d%% move on", d.Conversions[i].Rate))
		}
		fmt.Fprintln(w, line)
	}

	if len(d.Industries) > 0 {
		section(w, "INDUSTRIES")
		for _, c := range d.Industries {
			fmt.Fprintf(w, "  %-20s %4d\n", c.Name, c.Value)
		}
	}
	if len(d.Sources) > 0 {
		section(w, "SOURCES")
		for _, c := range d.Sources {
			fmt.Fprintf(w, "  %-20s %4d\n", c.Name, c.Value)
		}
	}

	if len(d.Team) > 0 {
		section(w, "TEAM")
		fmt.Fprintf(w, "  %-16s %8s %5s %14s %10s %10s %6s\n", "NAME", "ASSIGNED", "WON", "PIPELINE", "CALLS 7D", "CALLS 30D", "CONV")
		for _, m := range d.Team {
			fmt.Fprintf(w, "  %-16s %8d %5d %14s %10d %10d %5d%%\n",
				truncate(m.Name, 16), m.Assigned, m.Won, money(m.Pipeline), m.CallsWeek, m.CallsMonth, m.ConversionRate)
		}
	}
}

func renderLeaderboard(w io.Writer, rows []analytics.Standing, window analytics.Window) {
	fmt.Fprintln(w, headerStyle.Render("Leaderboard · "+string(window)))
	if len(rows) == 0 {
		fmt.Fprintln(w, "No active team members.")
		return
	}
	fmt.Fprintf(w, "%-4s %-18s %6s %6s %6s %14s %7s\n", "#", "NAME", "DEALS", "CALLS", "TASKS", "PIPELINE", "SCORE")
	for i, r := range rows {
		fmt.Fprintf(w, "%-4d %-18s %6d %6d %6d %14s %7d\n", i+1, truncate(r.Name, 18), r.Deals, r.Calls, r.Tasks, money(r.PipelineValue), r.Score)
	}
}

func renderFeed(w io.Writer, items []analytics.FeedItem, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No activity yet.")
		return
	}
	for _, it := range items {
		who := it.UserName
		if who == "" {
			who = "-"
		}
		fmt.Fprintf(w, "%s %-12s %-20s %s %s\n",
			dimStyle.Render(fmt.Sprintf("%-16s", relative(it.Timestamp, now))),
			it.Type, truncate(it.CompanyName, 20), truncate(it.Description, 60), dimStyle.Render("· "+who))
	}
}

func renderStale(w io.Writer, leads []core.Lead, threshold int, now time.Time) {
	if len(leads) == 0 {
		fmt.Fprintf(w, "No open leads older than %d days in their stage.\n", threshold)
		return
	}
	fmt.Fprintf(w, "%-8s  %-24s %-20s %5s  %s\n", "ID", "COMPANY", "STAGE", "DAYS", "ASSIGNED")
	for _, l := range leads {
		fmt.Fprintf(w, "%-8s  %-24s %-20s %5d  %s\n",
			shortID(l.ID), truncate(l.DisplayName(), 24), l.PipelineStage.Label(), core.DaysInStage(l, now), orDash(l.AssignedTo))
	}
}
