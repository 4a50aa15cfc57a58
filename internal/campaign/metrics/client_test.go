package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"propdesk/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	m.ttls[key] = ttl
	return nil
}

func TestFetchConvertsMicros(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`[
			{"date":"2024-01-05","cost":1500000,"clicks":3,"conversions":1,"impressions":120},
			{"date":"2024-01-06","cost":"2500000","clicks":"5","conversions":"0","impressions":"300"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, nil, 0)
	out, err := client.Fetch(context.Background(), Request{
		CampaignID: "cmp-1", StartDate: "2024-01-01", EndDate: "2024-01-31", IsPaused: true, LastActiveDate: "2024-01-20",
	})
	require.NoError(t, err)

	assert.Equal(t, Request{CampaignID: "cmp-1", StartDate: "2024-01-01", EndDate: "2024-01-31", IsPaused: true, LastActiveDate: "2024-01-20"}, got)
	assert.Equal(t, []DailyMetric{
		{Date: "2024-01-05", Cost: 1.5, Impressions: 120, Clicks: 3, Leads: 1},
		{Date: "2024-01-06", Cost: 2.5, Impressions: 300, Clicks: 5, Leads: 0},
	}, out)
}

func TestFetchUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, nil, 0).Fetch(context.Background(), Request{CampaignID: "c"})
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "429")

	_, err = NewClient("", time.Second, nil, 0).Fetch(context.Background(), Request{CampaignID: "c"})
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(server.URL, 50*time.Millisecond, nil, 0).Fetch(context.Background(), Request{CampaignID: "c"})
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchUsesCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"date":"2024-01-05","cost":1000000,"clicks":1,"conversions":0,"impressions":10}]`))
	}))
	defer server.Close()

	cache := newMemoryCache()
	client := NewClient(server.URL, time.Second, cache, 10*time.Minute)
	req := Request{CampaignID: "cmp-1", StartDate: "2024-01-01", EndDate: "2024-01-31"}

	first, err := client.Fetch(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, 10*time.Minute, cache.ttls["metrics:cmp-1:2024-01-01:2024-01-31:false:"])

	cache.getErr = errors.New("redis down")
	_, err = client.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchCacheKeyAndOpenWindows(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"date":"2024-03-01","cost":2000000,"clicks":4,"conversions":1,"impressions":40}]`))
	}))
	defer server.Close()

	cache := newMemoryCache()
	client := NewClient(server.URL, time.Second, cache, 10*time.Minute)
	client.Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	running := Request{CampaignID: "cmp-1", StartDate: "2024-03-01", EndDate: "2024-03-05"}
	paused := Request{CampaignID: "cmp-1", StartDate: "2024-03-01", EndDate: "2024-03-05", IsPaused: true, LastActiveDate: "2024-03-03"}
	for _, req := range []Request{running, paused} {
		_, err := client.Fetch(ctx, req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, cache.ttls, "metrics:cmp-1:2024-03-01:2024-03-05:false:")
	assert.Contains(t, cache.ttls, "metrics:cmp-1:2024-03-01:2024-03-05:true:2024-03-03")

	// A window that includes today is still accumulating and is never cached.
	today := Request{CampaignID: "cmp-1", StartDate: "2024-03-01", EndDate: "2024-03-10"}
	for i := 0; i < 2; i++ {
		_, err := client.Fetch(ctx, today)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(4), calls.Load())
	assert.NotContains(t, cache.ttls, today.cacheKey())
}
