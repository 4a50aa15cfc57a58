// Package dashboard serves the landing page summary of the back office.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"propdesk/pkg/httpx"
	"propdesk/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const summaryTimeout = 5 * time.Second

// Counter counts the documents in a collection.
type Counter interface {
	Count(ctx context.Context, collection string) (int, error)
}

type Summary struct {
	Counts      map[string]int `json:"counts"`
	Total       int            `json:"total"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type Handler struct {
	Counter     Counter
	Collections []string
}

func NewHandler(counter Counter, collections []string) *Handler {
	return &Handler{Counter: counter, Collections: collections}
}

// Summarize counts every collection concurrently. The first failure cancels the rest.
func (h *Handler) Summarize(ctx context.Context) (Summary, error) {
	counts := make([]int, len(h.Collections))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, collection := range h.Collections {
		i, collection := i, collection
		eg.Go(func() error {
			n, err := h.Counter.Count(egCtx, collection)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Counts: make(map[string]int, len(counts)), GeneratedAt: time.Now().UTC()}
	for i, collection := range h.Collections {
		summary.Counts[collection] = counts[i]
		summary.Total += counts[i]
	}
	return summary, nil
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), summaryTimeout)
	defer cancel()

	summary, err := h.Summarize(ctx)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to build dashboard summary: %v", err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
