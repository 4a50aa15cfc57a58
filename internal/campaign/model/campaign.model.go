package model

import (
	"time"

	"propdesk/internal/campaign/metrics"
	"propdesk/pkg/apperror"
)

const Collection = "campaigns"

const dateLayout = "2006-01-02"

type Campaign struct {
	ID             string    `json:"id"`
	CampaignID     string    `json:"campaignId"`
	Name           string    `json:"name"`
	ProjectID      string    `json:"projectId,omitempty"`
	Platform       string    `json:"platform,omitempty"`
	Status         string    `json:"status,omitempty"`
	Budget         float64   `json:"budget,omitempty"`
	StartDate      string    `json:"startDate,omitempty"`
	EndDate        string    `json:"endDate,omitempty"`
	IsPaused       bool      `json:"isPaused"`
	LastActiveDate string    `json:"lastActiveDate,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (c *Campaign) Validate() error {
	if c.CampaignID == "" {
		return apperror.Invalid("campaignId is required")
	}
	if c.Name == "" {
		return apperror.Invalid("name is required")
	}
	if c.Budget < 0 {
		return apperror.Invalid("budget must not be negative")
	}
	dates := []struct{ field, value string }{
		{"startDate", c.StartDate},
		{"endDate", c.EndDate},
		{"lastActiveDate", c.LastActiveDate},
	}
	for _, d := range dates {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d.value); err != nil {
			return apperror.Invalid("%s must be a YYYY-MM-DD date", d.field)
		}
	}
	if c.StartDate != "" && c.EndDate != "" && c.EndDate < c.StartDate {
		return apperror.Invalid("endDate is before startDate")
	}
	return nil
}

// ReportWindow returns the date range to report on when the caller gives none.
// A paused campaign stops at its last active day; an open-ended one at today.
func (c *Campaign) ReportWindow(today time.Time) (start, end string) {
	start = c.StartDate
	end = c.EndDate
	if c.IsPaused && c.LastActiveDate != "" {
		end = c.LastActiveDate
	}
	if end == "" {
		end = today.Format(dateLayout)
	}
	if start == "" {
		start = end
	}
	return start, end
}

// Protected lists the fields an update may not change.
var Protected = []string{"id", "campaignId", "createdAt"}

type Report struct {
	Campaign  *Campaign        `json:"campaign"`
	Period    metrics.Period   `json:"period"`
	StartDate string           `json:"startDate"`
	EndDate   string           `json:"endDate"`
	Buckets   []metrics.Bucket `json:"buckets"`
	Totals    metrics.Totals   `json:"totals"`
}
