package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propdesk/internal/property/model"
	"propdesk/internal/property/repository"
	"propdesk/pkg/apperror"
	"propdesk/pkg/docstore"
	"propdesk/pkg/logger"
	"propdesk/socket"

	"github.com/google/uuid"
)

type PropertyService struct {
	Repo *repository.PropertyRepository
	Hub  socket.Publisher
	Now  func() time.Time
}

func NewPropertyService(repo *repository.PropertyRepository, hub socket.Publisher) *PropertyService {
	return &PropertyService{Repo: repo, Hub: hub, Now: time.Now}
}

func (s *PropertyService) List(ctx context.Context, kind model.Kind) ([]model.Listing, error) {
	return s.Repo.List(ctx, kind)
}

func (s *PropertyService) Get(ctx context.Context, kind model.Kind, id string) (model.Listing, error) {
	p, err := s.Repo.Get(ctx, kind, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, notFound(kind, id)
	}
	return p, err
}

func (s *PropertyService) Create(ctx context.Context, userID string, kind model.Kind, body []byte) (model.Listing, error) {
	p, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, p); err != nil {
		return nil, apperror.Invalid("invalid request body: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.SetID(uuid.NewString())
	p.Created(s.Now().UTC())
	if err := s.Repo.Create(ctx, kind, p); err != nil {
		return nil, err
	}

	s.publishUpsert(kind, userID, p.GetID(), p)
	return p, nil
}

// Update shallow-merges patch into the stored listing. The merged result must
// still validate; the id and creation time cannot be changed.
func (s *PropertyService) Update(ctx context.Context, userID string, kind model.Kind, id string, patch map[string]any) (model.Listing, error) {
	for _, field := range model.Protected {
		delete(patch, field)
	}
	if len(patch) == 0 {
		return nil, apperror.Invalid("nothing to update")
	}

	current, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	patch["updatedAt"] = s.Now().UTC()
	merged, err := applyPatch(kind, current, patch)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Merge(ctx, kind, id, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, notFound(kind, id)
		}
		return nil, err
	}

	s.publishUpsert(kind, userID, id, patch)
	return merged, nil
}

func (s *PropertyService) Delete(ctx context.Context, userID string, kind model.Kind, id string) error {
	if err := s.Repo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return notFound(kind, id)
		}
		return err
	}
	if s.Hub != nil {
		s.Hub.Publish(socket.RemoveEvent(kind.Collection(), userID, id))
	}
	return nil
}

func (s *PropertyService) publishUpsert(kind model.Kind, userID, id string, v any) {
	if s.Hub == nil {
		return
	}
	event, err := socket.UpsertEvent(kind.Collection(), userID, id, v)
	if err != nil {
		logger.Sugar.Errorf("Failed to build change event for %s/%s: %v", kind, id, err)
		return
	}
	s.Hub.Publish(event)
}

// applyPatch overlays the top-level patch members onto current, the same way
// the document store merges them.
func applyPatch(kind model.Kind, current model.Listing, patch map[string]any) (model.Listing, error) {
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

	merged, err := model.New(kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, merged); err != nil {
		return nil, apperror.Invalid("invalid update: %v", err)
	}
	return merged, nil
}

func notFound(kind model.Kind, id string) error {
	return apperror.NotFound(fmt.Sprintf("%s listing %s not found", kind, id), "/api/properties?kind="+string(kind))
}
