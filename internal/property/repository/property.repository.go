package repository

import (
	"context"
	"fmt"

	"propdesk/internal/property/model"
	"propdesk/pkg/docstore"
	"propdesk/pkg/logger"
)

type PropertyRepository struct {
	Docs *docstore.Store
}

func NewPropertyRepository(docs *docstore.Store) *PropertyRepository {
	return &PropertyRepository{Docs: docs}
}

func (r *PropertyRepository) Create(ctx context.Context, kind model.Kind, p model.Listing) error {
	return r.Docs.Create(ctx, kind.Collection(), p.GetID(), p)
}

// Get returns docstore.ErrNotFound when the listing does not exist.
func (r *PropertyRepository) Get(ctx context.Context, kind model.Kind, id string) (model.Listing, error) {
	p, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	if err := r.Docs.Get(ctx, kind.Collection(), id, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the listings of a kind, most recently updated first. Rows that
// no longer match the record type are skipped.
func (r *PropertyRepository) List(ctx context.Context, kind model.Kind) ([]model.Listing, error) {
	docs, err := r.Docs.List(ctx, kind.Collection())
	if err != nil {
		return nil, err
	}

	listings := make([]model.Listing, 0, len(docs))
	for _, doc := range docs {
		p, err := model.New(kind)
		if err != nil {
			return nil, err
		}
		if err := doc.Decode(p); err != nil {
			logger.Sugar.Warnf("Skipping %s listing %s: %v", kind, doc.ID, err)
			continue
		}
		if p.GetID() == "" {
			p.SetID(doc.ID)
		}
		listings = append(listings, p)
	}
	return listings, nil
}

func (r *PropertyRepository) Merge(ctx context.Context, kind model.Kind, id string, patch map[string]any) error {
	if err := r.Docs.Merge(ctx, kind.Collection(), id, patch); err != nil {
		return fmt.Errorf("merge %s listing: %w", kind, err)
	}
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, kind model.Kind, id string) error {
	return r.Docs.Delete(ctx, kind.Collection(), id)
}
