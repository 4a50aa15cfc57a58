package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propdesk/internal/campaign/metrics"
	"propdesk/internal/campaign/model"
	"propdesk/internal/campaign/repository"
	"propdesk/pkg/apperror"
	"propdesk/pkg/docstore"
	"propdesk/pkg/logger"
	"propdesk/socket"

	"github.com/google/uuid"
)

const listLink = "/api/campaigns"

// MetricsSource returns daily metrics for a campaign window.
type MetricsSource interface {
	Fetch(ctx context.Context, req metrics.Request) ([]metrics.DailyMetric, error)
}

type CampaignService struct {
	Repo    *repository.CampaignRepository
	Metrics MetricsSource
	Hub     socket.Publisher
	Now     func() time.Time
}

func NewCampaignService(repo *repository.CampaignRepository, source MetricsSource, hub socket.Publisher) *CampaignService {
	return &CampaignService{Repo: repo, Metrics: source, Hub: hub, Now: time.Now}
}

func (s *CampaignService) List(ctx context.Context) ([]model.Campaign, error) {
	return s.Repo.List(ctx)
}

func (s *CampaignService) Get(ctx context.Context, campaignID string) (*model.Campaign, error) {
	c, err := s.Repo.FindByCampaignID(ctx, campaignID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperror.NotFound(fmt.Sprintf("campaign %s not found", campaignID), listLink)
	}
	return c, err
}

func (s *CampaignService) Create(ctx context.Context, userID string, c model.Campaign) (*model.Campaign, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Repo.FindByCampaignID(ctx, c.CampaignID); err == nil {
		return nil, apperror.Invalid("campaign %s already exists", c.CampaignID)
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	now := s.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.Repo.Create(ctx, &c); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return nil, apperror.Invalid("campaign %s already exists", c.CampaignID)
		}
		return nil, err
	}

	s.publishUpsert(userID, c.ID, c)
	return &c, nil
}

// Update shallow-merges patch into the campaign found by campaignID.
func (s *CampaignService) Update(ctx context.Context, userID, campaignID string, patch map[string]any) (*model.Campaign, error) {
	for _, field := range model.Protected {
		delete(patch, field)
	}
	if len(patch) == 0 {
		return nil, apperror.Invalid("nothing to update")
	}

	current, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	patch["updatedAt"] = s.Now().UTC()
	merged, err := applyPatch(current, patch)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Merge(ctx, current.ID, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("campaign %s not found", campaignID), listLink)
		}
		return nil, err
	}

	s.publishUpsert(userID, current.ID, patch)
	return merged, nil
}

func (s *CampaignService) Delete(ctx context.Context, userID, campaignID string) error {
	current, err := s.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, current.ID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperror.NotFound(fmt.Sprintf("campaign %s not found", campaignID), listLink)
		}
		return err
	}
	if s.Hub != nil {
		s.Hub.Publish(socket.RemoveEvent(model.Collection, userID, current.ID))
	}
	return nil
}

// Report fetches the campaign's metrics for [start, end] and buckets them by
// period. Empty dates default to the campaign's own window.
func (s *CampaignService) Report(ctx context.Context, campaignID string, period metrics.Period, start, end string) (*model.Report, error) {
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	defStart, defEnd := c.ReportWindow(s.Now())
	if start == "" {
		start = defStart
	}
	if end == "" {
		end = defEnd
	}
	for _, d := range []string{start, end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, apperror.Invalid("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	if end < start {
		return nil, apperror.Invalid("endDate is before startDate")
	}

	daily, err := s.Metrics.Fetch(ctx, metrics.Request{
		CampaignID:     c.CampaignID,
		StartDate:      start,
		EndDate:        end,
		IsPaused:       c.IsPaused,
		LastActiveDate: c.LastActiveDate,
	})
	if err != nil {
		return nil, err
	}

	return &model.Report{
		Campaign:  c,
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Buckets:   metrics.Aggregate(daily, period),
		Totals:    metrics.Summarize(daily),
	}, nil
}

func (s *CampaignService) publishUpsert(userID, id string, v any) {
	if s.Hub == nil {
		return
	}
	event, err := socket.UpsertEvent(model.Collection, userID, id, v)
	if err != nil {
		logger.Sugar.Errorf("Failed to build change event for campaign %s: %v", id, err)
		return
	}
	s.Hub.Publish(event)
}

func applyPatch(current *model.Campaign, patch map[string]any) (*model.Campaign, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, apperror.Invalid("field %s: %v", k, err)
		}
		fields[k] = raw
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var merged model.Campaign
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, apperror.Invalid("invalid update: %v", err)
	}
	return &merged, nil
}
