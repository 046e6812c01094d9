package main

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/divijg19/clawtrack/internal/core"
)

// money renders a deal amount with thousands separators.
func money(v float64) string {
	return "$" + humanize.Commaf(math.Round(v*100)/100)
}

// shortMoney renders large amounts compactly, e.g. $12.5k.
func shortMoney(v float64) string {
	if v >= 1000 {
		return "$" + humanize.FtoaWithDigits(v/1000, 1) + "k"
	}
	return money(v)
}

func formatShortUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04Z")
}

// relative describes t relative to now, e.g. "3 days ago".
func relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func dateOrDash(t *time.Time) string {
	return orDash(core.FormatDate(t))
}
