package repository

import (
	"context"

	"propdesk/internal/campaign/model"
	"propdesk/pkg/docstore"
	"propdesk/pkg/logger"
)

type CampaignRepository struct {
	Docs *docstore.Store
}

func NewCampaignRepository(docs *docstore.Store) *CampaignRepository {
	return &CampaignRepository{Docs: docs}
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	return r.Docs.Create(ctx, model.Collection, c.ID, c)
}

// FindByCampaignID looks a campaign up by its external identifier. It returns
// docstore.ErrNotFound when there is none; if several match, the most recently
// updated wins.
func (r *CampaignRepository) FindByCampaignID(ctx context.Context, campaignID string) (*model.Campaign, error) {
	docs, err := r.Docs.FindBy(ctx, model.Collection, "campaignId", campaignID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	if len(docs) > 1 {
		logger.Sugar.Warnf("%d campaigns share campaignId %s", len(docs), campaignID)
	}

	var c model.Campaign
	if err := docs[0].Decode(&c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = docs[0].ID
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]model.Campaign, error) {
	docs, err := r.Docs.List(ctx, model.Collection)
	if err != nil {
		return nil, err
	}
	out := make([]model.Campaign, 0, len(docs))
	for _, doc := range docs {
		var c model.Campaign
		if err := doc.Decode(&c); err != nil {
			logger.Sugar.Warnf("Skipping campaign %s: %v", doc.ID, err)
			continue
		}
		if c.ID == "" {
			c.ID = doc.ID
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CampaignRepository) Merge(ctx context.Context, id string, patch map[string]any) error {
	return r.Docs.Merge(ctx, model.Collection, id, patch)
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	return r.Docs.Delete(ctx, model.Collection, id)
}
