package handler

import (
	"encoding/json"
	"net/http"

	"propdesk/internal/campaign/metrics"
	"propdesk/internal/campaign/model"
	"propdesk/internal/campaign/service"
	"propdesk/middleware"
	"propdesk/pkg/apperror"
	"propdesk/pkg/httpx"
	"propdesk/pkg/logger"
	"propdesk/pkg/pagination"
)

const maxBodyBytes = 1 << 20

type CampaignHandler struct {
	Service *service.CampaignService
}

func NewCampaignHandler(service *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{Service: service}
}

type ListResponse struct {
	Items []model.Campaign `json:"items"`
	Meta  pagination.Meta  `json:"meta"`
}

func (h *CampaignHandler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}

	campaigns, err := h.Service.List(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list campaigns: %v", err)
		httpx.Error(w, err)
		return
	}

	page, size, isMobile := pagination.Params(r.URL.Query().Get)
	items, meta := pagination.Paginate(campaigns, page, size, isMobile)
	httpx.JSON(w, http.StatusOK, ListResponse{Items: items, Meta: meta})
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), campaignID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req model.Campaign
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.Error(w, apperror.Invalid("invalid request body"))
		return
	}

	c, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create campaign: %v", err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodPut) {
		return
	}
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&patch); err != nil {
		httpx.Error(w, apperror.Invalid("invalid request body"))
		return
	}

	c, err := h.Service.Update(r.Context(), middleware.UserID(r.Context()), campaignID, patch)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to update campaign %s: %v", campaignID, err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodDelete) {
		return
	}
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), middleware.UserID(r.Context()), campaignID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete campaign %s: %v", campaignID, err)
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Campaign deleted successfully"))
}

// GetReport serves the bucketed metrics of one campaign.
func (h *CampaignHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if httpx.MethodNotAllowed(w, r, http.MethodGet) {
		return
	}
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	period, err := metrics.ParsePeriod(q.Get("period"))
	if err != nil {
		httpx.Error(w, apperror.Invalid("%v", err))
		return
	}

	report, err := h.Service.Report(r.Context(), campaignID, period, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to build report for campaign %s: %v", campaignID, err)
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	campaignID := r.URL.Query().Get("campaignId")
	if campaignID == "" {
		httpx.Error(w, apperror.Invalid("missing campaignId parameter"))
		return "", false
	}
	return campaignID, true
}
