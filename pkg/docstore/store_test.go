package docstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, KeyShapeCodec{}), mock
}

func TestStoreCreateEncodesFlattened(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data, created_at, updated_at)")).
		WithArgs("primary_properties", "p1", `{"amenities":{"0":"pool"},"projectName":"Skyline"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Create(context.Background(), "primary_properties", "p1", map[string]any{
		"projectName": "Skyline",
		"amenities":   []string{"pool"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCreateConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := store.Create(context.Background(), "campaigns", "c2", map[string]any{"campaignId": "cmp-1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetDecodes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("primary_properties", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"projectName":"Skyline","amenities":{"0":"pool","1":"gym"}}`)))

	var out struct {
		ProjectName string   `json:"projectName"`
		Amenities   []string `json:"amenities"`
	}
	require.NoError(t, store.Get(context.Background(), "primary_properties", "p1", &out))
	assert.Equal(t, "Skyline", out.ProjectName)
	assert.Equal(t, []string{"pool", "gym"}, out.Amenities)
}

func TestStoreGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents")).
		WithArgs("campaigns", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	var out map[string]any
	err := store.Get(context.Background(), "campaigns", "missing", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListDecodesEachRow(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 ORDER BY updated_at DESC")).
		WithArgs("resale_properties").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at", "updated_at"}).
			AddRow("r1", []byte(`{"title":"2BHK","images":{"0":{"url":"a"}}}`), now, now).
			AddRow("r2", []byte(`not json`), now, now).
			AddRow("r3", []byte(`{"title":"Villa"}`), now, now))

	docs, err := store.List(context.Background(), "resale_properties")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "r1", docs[0].ID)
	assert.JSONEq(t, `{"title":"2BHK","images":[{"url":"a"}]}`, string(docs[0].Data))
	assert.Equal(t, "r3", docs[1].ID)
}

func TestStoreFindBy(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE collection = $1 AND data->>$2 = $3")).
		WithArgs("campaigns", "campaignId", "cmp-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "data", "created_at", "updated_at"}).
			AddRow("c1", []byte(`{"campaignId":"cmp-9"}`), now, now))

	docs, err := store.FindBy(context.Background(), "campaigns", "campaignId", "cmp-9")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var c struct {
		CampaignID string `json:"campaignId"`
	}
	require.NoError(t, docs[0].Decode(&c))
	assert.Equal(t, "cmp-9", c.CampaignID)
}

func TestStoreMergeAndDeleteNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET data = data || $3::jsonb")).
		WithArgs("campaigns", "c1", `{"isPaused":true}`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents")).
		WithArgs("campaigns", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Merge(context.Background(), "campaigns", "c1", map[string]any{"isPaused": true})
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(context.Background(), "campaigns", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCountPropagatesErrors(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents")).
		WithArgs("campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents")).
		WithArgs("campaigns").
		WillReturnError(errors.New("connection reset"))

	n, err := store.Count(context.Background(), "campaigns")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = store.Count(context.Background(), "campaigns")
	assert.ErrorContains(t, err, "connection reset")
}
