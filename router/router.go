package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	campaignHandler "propdesk/internal/campaign"
	campaignModel "propdesk/internal/campaign/model"
	campaignRepository "propdesk/internal/campaign/repository"
	campaignService "propdesk/internal/campaign/service"
	"propdesk/internal/dashboard"
	"propdesk/internal/media"
	propertyHandler "propdesk/internal/property"
	propertyModel "propdesk/internal/property/model"
	propertyRepository "propdesk/internal/property/repository"
	propertyService "propdesk/internal/property/service"
	"propdesk/middleware"
	"propdesk/pkg/docstore"
	"propdesk/pkg/httpx"
	"propdesk/socket"
)

type Deps struct {
	DB            *sql.DB
	Docs          *docstore.Store
	Hub           *socket.Hub
	Metrics       *middleware.Metrics
	MetricsSource campaignService.MetricsSource
	Storage       media.Storage
	MediaDir      string
	JWTSecret     string
	CORS          func(http.Handler) http.Handler
}

// Collections lists every collection the dashboard can browse and subscribe to.
func Collections() []string {
	out := []string{}
	for _, k := range propertyModel.Kinds() {
		out = append(out, k.Collection())
	}
	return append(out, campaignModel.Collection)
}

func Setup(d Deps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(d.JWTSecret)

	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, d.Metrics.Instrument(pattern, h))
	}
	secured := func(pattern string, h http.HandlerFunc) {
		handle(pattern, auth(h))
	}

	// WebSocket
	secured("/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(d.Hub, w, r, middleware.UserID(r.Context()))
	})

	// Properties
	propRepo := propertyRepository.NewPropertyRepository(d.Docs)
	propHandler := propertyHandler.NewPropertyHandler(propertyService.NewPropertyService(propRepo, d.Hub))
	secured("/api/properties", propHandler.GetProperties)
	secured("/api/properties/get", propHandler.GetProperty)
	secured("/api/properties/create", propHandler.CreateProperty)
	secured("/api/properties/update", propHandler.UpdateProperty)
	secured("/api/properties/delete", propHandler.DeleteProperty)
	secured("/api/properties/table", propHandler.GetPropertyTable)

	// Campaigns
	campRepo := campaignRepository.NewCampaignRepository(d.Docs)
	campHandler := campaignHandler.NewCampaignHandler(campaignService.NewCampaignService(campRepo, d.MetricsSource, d.Hub))
	secured("/api/campaigns", campHandler.GetCampaigns)
	secured("/api/campaigns/get", campHandler.GetCampaign)
	secured("/api/campaigns/create", campHandler.CreateCampaign)
	secured("/api/campaigns/update", campHandler.UpdateCampaign)
	secured("/api/campaigns/delete", campHandler.DeleteCampaign)
	secured("/api/campaigns/report", campHandler.GetReport)

	// Media
	mediaHandler := media.NewMediaHandler(d.Storage)
	secured("/api/media", mediaHandler.List)
	secured("/api/media/upload", mediaHandler.Upload)
	secured("/api/media/delete", mediaHandler.Delete)
	handle("/files/", http.StripPrefix("/files/", media.FileServer(d.MediaDir)))

	// Dashboard
	dash := dashboard.NewHandler(d.Docs, Collections())
	secured("/api/dashboard/summary", dash.GetSummary)

	// Operations
	handle("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	mux.Handle("/metrics", d.Metrics.Handler())

	if d.CORS == nil {
		return mux
	}
	return d.CORS(mux)
}
