package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"propdesk/internal/property/model"
	"propdesk/internal/property/service"
	"propdesk/internal/property/view"
	"propdesk/internal/table"
	"propdesk/middleware"
	"propdesk/pkg/apperror"
	"propdesk/pkg/httpx"
	"propdesk/pkg/logger"
	"propdesk/pkg/pagination"
)

const maxBodyBytes = 1 << 20

type PropertyHandler struct {
	Service *service.PropertyService
}

func NewPropertyHandler(service *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{Service: service}
}

type ListResponse struct {
	Items []model.Listing `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

func (h *PropertyHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	kind, err := model.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		httpx.Error(w, err)
		return
	}

	listings, err := h.Service.List(r.Context(), kind)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list %s listings: %v", kind, err)
		httpx.Error(w, err)
		return
	}

	page, size, isMobile := pagination.Params(r.URL.Query().Get)
	items, meta := pagination.Paginate(listings, page, size, isMobile)
	httpx.JSON(w, http.StatusOK, ListResponse{Items: items, Meta: meta})
}

func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), kind, id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodPost) {
		return
	}
	kind, err := model.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		httpx.Error(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httpx.Error(w, apperror.Invalid("invalid request body"))
		return
	}

	p, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), kind, body)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create %s listing: %v", kind, err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodPut) {
		return
	}
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&patch); err != nil {
		httpx.Error(w, apperror.Invalid("invalid request body"))
		return
	}

	p, err := h.Service.Update(r.Context(), middleware.UserID(r.Context()), kind, id, patch)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update %s listing %s: %v", kind, id, err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodDelete) {
		return
	}
	kind, id, ok := kindAndID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), middleware.UserID(r.Context()), kind, id); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete %s listing %s: %v", kind, id, err)
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Listing deleted successfully"))
}

type TableResponse struct {
	Table table.View      `json:"table"`
	Meta  pagination.Meta `json:"meta"`
}

// GetPropertyTable renders one page of listings as a table, as JSON (default)
// or as an HTML fragment with format=html. Selected rows come from the
// comma-separated "selected" parameter.
func (h *PropertyHandler) GetPropertyTable(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	kind, err := model.ParseKind(q.Get("kind"))
	if err != nil {
		httpx.Error(w, err)
		return
	}

	listings, err := h.Service.List(r.Context(), kind)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list %s listings: %v", kind, err)
		httpx.Error(w, err)
		return
	}

	page, size, isMobile := pagination.Params(q.Get)
	items, meta := pagination.Paginate(listings, page, size, isMobile)

	selected := map[string]bool{}
	for _, id := range strings.Split(q.Get("selected"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			selected[id] = true
		}
	}

	tv, err := view.Table(kind, items, view.Options{Selected: selected, Compact: isMobile})
	if err != nil {
		httpx.Error(w, apperror.Internal("failed to build table", err))
		return
	}

	if q.Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := table.WriteHTML(w, tv); err != nil {
			logger.Sugar.Errorf("Handler: Failed to write %s table: %v", kind, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, TableResponse{Table: tv, Meta: meta})
}

func kindAndID(w http.ResponseWriter, r *http.Request) (model.Kind, string, bool) {
	kind, err := model.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		httpx.Error(w, err)
		return "", "", false
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.Error(w, apperror.Invalid("missing id parameter"))
		return "", "", false
	}
	return kind, id, true
}
