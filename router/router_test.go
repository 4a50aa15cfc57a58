package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"propdesk/config"
	"propdesk/internal/campaign/metrics"
	"propdesk/internal/media"
	"propdesk/middleware"
	"propdesk/pkg/docstore"
	"propdesk/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	docs := docstore.NewStore(db, nil)
	storage, err := media.NewLocalStorage(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	h := Setup(Deps{
		DB:            db,
		Docs:          docs,
		Hub:           socket.NewHub(socket.DocstoreLoader{Docs: docs}, nil),
		Metrics:       middleware.NewMetrics(),
		MetricsSource: metrics.NewClient("", 0, nil, 0),
		Storage:       storage,
		MediaDir:      storage.Root,
		JWTSecret:     "secret",
		CORS:          middleware.CORS(config.CORSConfig{Origin: "*"}),
	})
	return h, mock
}

func TestCollections(t *testing.T) {
	assert.Equal(t, []string{"primary_properties", "prerera_properties", "resale_properties", "campaigns"}, Collections())
}

func TestAPIRequiresToken(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, path := range []string{"/api/properties?kind=primary", "/api/campaigns", "/api/media?projectId=p&kind=images", "/api/dashboard/summary", "/ws?collection=campaigns"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, mock := newTestRouter(t)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `propdesk_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
