package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"propdesk/pkg/docstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCounter struct{}

func (failingCounter) Count(ctx context.Context, collection string) (int, error) {
	if collection == "campaigns" {
		return 0, errors.New("connection reset")
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestGetSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	counts := map[string]int{"primary_properties": 4, "resale_properties": 7, "campaigns": 2}
	for collection, n := range counts {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE collection = $1")).
			WithArgs(collection).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
	}

	h := NewHandler(docstore.NewStore(db, nil), []string{"primary_properties", "resale_properties", "campaigns"})
	rec := httptest.NewRecorder()
	h.GetSummary(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, counts, summary.Counts)
	assert.Equal(t, 13, summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarizeCancelsOnFirstError(t *testing.T) {
	h := NewHandler(failingCounter{}, []string{"primary_properties", "campaigns", "resale_properties"})
	_, err := h.Summarize(context.Background())
	assert.EqualError(t, err, "connection reset")
}
