package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/divijg19/clawtrack/internal/core"
)

// FeedItem is an activity annotated with its lead.
type FeedItem struct {
	core.Activity
	CompanyName string
}

// Feed merges every lead's activities, newest first. A non-empty userName keeps
// only that user's entries; limit <= 0 means no limit.
func Feed(leads []core.Lead, userName string, limit int) []FeedItem {
	userName = strings.TrimSpace(userName)
	items := make([]FeedItem, 0)
	for _, l := range leads {
		for _, a := range l.Activities {
			if userName != "" && a.UserName != userName {
				continue
			}
			items = append(items, FeedItem{Activity: a, CompanyName: l.DisplayName()})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Stale lists open leads that have sat in their stage for at least the
// configured threshold, longest first.
func Stale(leads []core.Lead, settings core.Settings, now time.Time) []core.Lead {
	threshold := settings.Normalize().StaleThresholdDays
	out := make([]core.Lead, 0)
	for _, l := range leads {
		if core.IsStale(l, now, threshold) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StageEnteredDate.Before(out[j].StageEnteredDate)
	})
	return out
}
