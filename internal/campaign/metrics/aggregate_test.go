package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(1000, 0))
	assert.Equal(t, 333.33, Rate(1000, 3))
	assert.Equal(t, 0.67, Rate(2, 3))
}

func TestAggregateMonthly(t *testing.T) {
	records := []DailyMetric{
		{Date: "2024-01-25", Cost: 300, Impressions: 2000, Clicks: 30, Leads: 2},
		{Date: "2024-02-02", Cost: 50, Impressions: 100, Clicks: 5, Leads: 0},
		{Date: "2024-01-05", Cost: 700, Impressions: 8000, Clicks: 70, Leads: 3},
	}

	buckets := Aggregate(records, Monthly)
	require.Len(t, buckets, 2)

	jan := buckets[0]
	assert.Equal(t, "January 2024", jan.Key)
	assert.Equal(t, 1000.0, jan.Cost)
	assert.Equal(t, int64(100), jan.Clicks)
	assert.Equal(t, int64(5), jan.Leads)
	assert.Equal(t, int64(10000), jan.Impressions)
	assert.Equal(t, 10.0, jan.CPC)
	assert.Equal(t, 200.0, jan.CPL)
	assert.Equal(t, 2, jan.Days)
	assert.Equal(t, "2024-01-01", jan.Start)
	assert.Equal(t, "2024-01-31", jan.End)

	assert.Equal(t, "February 2024", buckets[1].Key)
	assert.Equal(t, 0.0, buckets[1].CPL)
}

func TestAggregateWeeklyMidweekStart(t *testing.T) {
	// Wednesday 2024-01-10 through Sunday 2024-01-14.
	var records []DailyMetric
	for _, d := range []string{"2024-01-10", "2024-01-11", "2024-01-12", "2024-01-13", "2024-01-14"} {
		records = append(records, DailyMetric{Date: d, Cost: 10, Clicks: 1})
	}

	buckets := Aggregate(records, Weekly)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Week 2 - 2024", buckets[0].Key)
	assert.Equal(t, "Jan 8, 2024 - Jan 14, 2024", buckets[0].Label)
	assert.Equal(t, 50.0, buckets[0].Cost)
	assert.Equal(t, 10.0, buckets[0].CPC)
	assert.Equal(t, 5, buckets[0].Days)
}

func TestAggregateWeeklyAcrossYearEnd(t *testing.T) {
	records := []DailyMetric{
		{Date: "2025-01-02", Cost: 5},
		{Date: "2024-12-29", Cost: 1}, // Sunday, week of Monday Dec 23
		{Date: "2024-12-30", Cost: 2}, // Monday, ISO week 1 of 2025
	}

	buckets := Aggregate(records, Weekly)
	require.Len(t, buckets, 2)
	assert.Equal(t, "Week 52 - 2024", buckets[0].Key)
	assert.Equal(t, "Week 1 - 2025", buckets[1].Key)
	assert.Equal(t, 7.0, buckets[1].Cost)
	assert.Equal(t, "Dec 30, 2024 - Jan 5, 2025", buckets[1].Label)
}

func TestAggregateInvalidDatesGoLast(t *testing.T) {
	records := []DailyMetric{
		{Date: "not-a-date", Cost: 1, Clicks: 1},
		{Date: "2024-03-04", Cost: 2, Clicks: 1},
		{Date: "", Cost: 3, Clicks: 1},
	}

	buckets := Aggregate(records, Monthly)
	require.Len(t, buckets, 2)
	assert.Equal(t, "March 2024", buckets[0].Key)
	assert.Equal(t, InvalidDate, buckets[1].Key)
	assert.Equal(t, 4.0, buckets[1].Cost)
	assert.Equal(t, 2.0, buckets[1].CPC)
}

func TestAggregateDailyKeepsSeries(t *testing.T) {
	records := []DailyMetric{
		{Date: "2024-01-02", Cost: 1000, Clicks: 0, Leads: 4},
		{Date: "2024-01-01", Cost: 10, Clicks: 4, Leads: 1},
	}

	buckets := Aggregate(records, Daily)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01-02", buckets[0].Key)
	assert.Equal(t, 0.0, buckets[0].CPC)
	assert.Equal(t, 250.0, buckets[0].CPL)
	assert.Equal(t, 2.5, buckets[1].CPC)
}

func TestSummarize(t *testing.T) {
	total := Summarize([]DailyMetric{{Cost: 0.1, Clicks: 1}, {Cost: 0.2, Clicks: 2, Leads: 1}})
	assert.Equal(t, 0.3, total.Cost)
	assert.Equal(t, 0.1, total.CPC)
	assert.Equal(t, 0.3, total.CPL)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Daily, p)

	p, err = ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, Weekly, p)

	_, err = ParsePeriod("yearly")
	assert.Error(t, err)
}
