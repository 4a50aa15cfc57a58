// Package metrics fetches daily campaign metrics from the reporting service and
// folds them into daily, weekly or monthly buckets.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	labelLayout = "Jan 2, 2006"

	// InvalidDate collects records whose date cannot be parsed.
	InvalidDate = "Invalid Date"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly:
		return p, nil
	case "":
		return Daily, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// DailyMetric is one day of campaign activity with cost in currency units.
type DailyMetric struct {
	Date        string  `json:"date"`
	Cost        float64 `json:"cost"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Leads       int64   `json:"leads"`
}

// Totals are summed counters with rates derived from the sums.
type Totals struct {
	Cost        float64 `json:"cost"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Leads       int64   `json:"leads"`
	CPC         float64 `json:"cpc"`
	CPL         float64 `json:"cpl"`
}

func (t *Totals) add(m DailyMetric) {
	t.Cost += m.Cost
	t.Impressions += m.Impressions
	t.Clicks += m.Clicks
	t.Leads += m.Leads
}

// derive computes the rates from the summed cost, then rounds the cost to paise.
func (t *Totals) derive() {
	t.CPC = Rate(t.Cost, t.Clicks)
	t.CPL = Rate(t.Cost, t.Leads)
	t.Cost = math.Round(t.Cost*100) / 100
}

type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Days  int    `json:"days"`
	Totals
	start time.Time
}

// Rate is cost per unit rounded to two decimals, or 0 when there are no units.
func Rate(cost float64, units int64) float64 {
	if units == 0 {
		return 0
	}
	return math.Round(cost/float64(units)*100) / 100
}

// Summarize totals the whole series.
func Summarize(records []DailyMetric) Totals {
	var t Totals
	for _, m := range records {
		t.add(m)
	}
	t.derive()
	return t
}

// Aggregate groups records by period. The daily series keeps the input order;
// weekly and monthly buckets are chronological with the invalid-date bucket last.
func Aggregate(records []DailyMetric, period Period) []Bucket {
	if period == Daily {
		out := make([]Bucket, 0, len(records))
		for _, m := range records {
			b := Bucket{Key: m.Date, Label: m.Date, Start: m.Date, End: m.Date, Days: 1}
			b.add(m)
			b.derive()
			out = append(out, b)
		}
		return out
	}

	keyOf := weekBucket
	if period == Monthly {
		keyOf = monthBucket
	}

	byKey := map[string]*Bucket{}
	var order []*Bucket
	for _, m := range records {
		proto := Bucket{Key: InvalidDate, Label: InvalidDate}
		if day, err := time.Parse(dateLayout, m.Date); err == nil {
			proto = keyOf(day)
		}
		b, ok := byKey[proto.Key]
		if !ok {
			b = &proto
			byKey[proto.Key] = b
			order = append(order, b)
		}
		b.add(m)
		b.Days++
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.start.IsZero() != b.start.IsZero() {
			return !a.start.IsZero()
		}
		return a.start.Before(b.start)
	})

	out := make([]Bucket, 0, len(order))
	for _, b := range order {
		b.derive()
		out = append(out, *b)
	}
	return out
}

// weekBucket keys a day by the Monday starting its week.
func weekBucket(day time.Time) Bucket {
	monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	sunday := monday.AddDate(0, 0, 6)
	year, week := monday.ISOWeek()
	return Bucket{
		Key:   fmt.Sprintf("Week %d - %d", week, year),
		Label: monday.Format(labelLayout) + " - " + sunday.Format(labelLayout),
		Start: monday.Format(dateLayout),
		End:   sunday.Format(dateLayout),
		start: monday,
	}
}

func monthBucket(day time.Time) Bucket {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return Bucket{
		Key:   first.Format("January 2006"),
		Label: first.Format("January 2006"),
		Start: first.Format(dateLayout),
		End:   last.Format(dateLayout),
		start: first,
	}
}
