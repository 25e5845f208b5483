// Package buckets converts normalized events into fixed-shape activity
// histograms. Every function is pure: the caller supplies the reference time,
// and every grid carries its full key set zero-filled regardless of input.
package buckets

import (
	"fmt"
	"time"

	"medialens/models"
)

const (
	dayMillis     = 86400000
	monthlyDays   = 30
	weeklyBlocks  = 8
	blockHours    = 3
	DefaultDaily  = 30
	maxDailyRange = 90
)

// Week starts on Monday; time.Weekday starts on Sunday, hence the remap.
var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// NewWeeklyGrid returns all 56 day/block keys pre-zeroed.
func NewWeeklyGrid() models.WeeklyGrid {
	g := make(models.WeeklyGrid, len(dayNames)*weeklyBlocks)
	for _, day := range dayNames {
		for block := 0; block < weeklyBlocks; block++ {
			g[fmt.Sprintf("%s_%d", day, block)] = 0
		}
	}
	return g
}

// NewMonthlyGrid returns day_1..day_30 pre-zeroed.
func NewMonthlyGrid() models.MonthlyGrid {
	g := make(models.MonthlyGrid, monthlyDays)
	for i := 1; i <= monthlyDays; i++ {
		g[fmt.Sprintf("day_%d", i)] = 0
	}
	return g
}

// WeeklyGrid counts events per local day-of-week and 3-hour block. It does not
// re-filter by recency; callers wanting a trailing window filter beforehand.
func WeeklyGrid(events []models.Event) models.WeeklyGrid {
	g := NewWeeklyGrid()
	for _, ev := range events {
		if ev.TimestampMs <= 0 {
			continue
		}
		t := time.UnixMilli(ev.TimestampMs)
		day := (int(t.Weekday()) + 6) % 7
		block := t.Hour() / blockHours
		g[fmt.Sprintf("%s_%d", dayNames[day], block)]++
	}
	return g
}

// MonthlyGrid counts events per day offset over the trailing 30 days.
// Convention: day_30 is today (daysAgo 0) and day_1 is 29 days ago; events 30
// or more days old, in the future, or without a timestamp are dropped.
func MonthlyGrid(events []models.Event, refMs int64) models.MonthlyGrid {
	g := NewMonthlyGrid()
	for _, ev := range events {
		if ev.TimestampMs <= 0 {
			continue
		}
		daysAgo := (refMs - ev.TimestampMs) / dayMillis
		if daysAgo < 0 || daysAgo >= monthlyDays {
			continue
		}
		g[fmt.Sprintf("day_%d", monthlyDays-daysAgo)]++
	}
	return g
}

// DailySeries returns per-calendar-day counts for the trailing days window,
// oldest first, with dates formatted YYYY-MM-DD in local time.
func DailySeries(events []models.Event, refMs int64, days int) ([]string, []int) {
	if days <= 0 {
		days = DefaultDaily
	}
	if days > maxDailyRange {
		days = maxDailyRange
	}

	ref := time.UnixMilli(refMs)
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	labels := make([]string, 0, days)
	index := make(map[string]int, days)
	for i := days - 1; i >= 0; i-- {
		label := refDay.AddDate(0, 0, -i).Format("2006-01-02")
		index[label] = len(labels)
		labels = append(labels, label)
	}

	counts := make([]int, days)
	for _, ev := range events {
		if ev.TimestampMs <= 0 {
			continue
		}
		label := time.UnixMilli(ev.TimestampMs).Format("2006-01-02")
		if i, ok := index[label]; ok {
			counts[i]++
		}
	}
	return labels, counts
}
