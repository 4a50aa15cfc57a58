package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"propdesk/pkg/apperror"
	"propdesk/pkg/logger"
)

// costScale converts the service's micro-unit costs to currency units.
const costScale = 1_000_000

// Request is the body the metrics service expects.
type Request struct {
	CampaignID     string `json:"campaignId"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	IsPaused       bool   `json:"isPaused"`
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}

func (r Request) cacheKey() string {
	return fmt.Sprintf("metrics:%s:%s:%s:%t:%s", r.CampaignID, r.StartDate, r.EndDate, r.IsPaused, r.LastActiveDate)
}

// settled reports whether the window ended before today, so its figures no
// longer change.
func (r Request) settled(now time.Time) bool {
	return r.EndDate != "" && r.EndDate < now.UTC().Format("2006-01-02")
}

// number accepts both JSON numbers and numeric strings; reporting APIs send
// 64-bit counters either way.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type wireMetric struct {
	Date        string `json:"date"`
	Cost        number `json:"cost"`
	Clicks      number `json:"clicks"`
	Conversions number `json:"conversions"`
	Impressions number `json:"impressions"`
}

// Client calls the metrics service. Responses for windows that ended before
// today are cached when Cache is set.
type Client struct {
	Endpoint string
	HTTP     *http.Client
	Cache    Cache
	CacheTTL time.Duration
	Now      func() time.Time
}

func NewClient(endpoint string, timeout time.Duration, cache Cache, ttl time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
		Cache:    cache,
		CacheTTL: ttl,
		Now:      time.Now,
	}
}

// Fetch returns the daily metrics for the request with cost in currency units.
func (c *Client) Fetch(ctx context.Context, req Request) ([]DailyMetric, error) {
	if c.Endpoint == "" {
		return nil, apperror.Upstream("metrics endpoint is not configured", nil)
	}

	key := req.cacheKey()
	cacheable := c.Cache != nil && req.settled(c.now())
	if cacheable {
		if cached, ok, err := c.Cache.Get(ctx, key); err != nil {
			logger.Sugar.Warnf("Metrics cache read failed for %s: %v", key, err)
		} else if ok {
			var out []DailyMetric
			if err := json.Unmarshal(cached, &out); err == nil {
				return out, nil
			}
			logger.Sugar.Warnf("Discarding unreadable cached metrics for %s", key)
		}
	}

	out, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if data, err := json.Marshal(out); err == nil {
			if err := c.Cache.Set(ctx, key, data, c.CacheTTL); err != nil {
				logger.Sugar.Warnf("Metrics cache write failed for %s: %v", key, err)
			}
		}
	}
	return out, nil
}

func (c *Client) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Client) post(ctx context.Context, req Request) ([]DailyMetric, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.Upstream("invalid metrics endpoint", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		logger.Sugar.Errorf("Metrics request for %s failed: %v", req.CampaignID, err)
		return nil, apperror.Upstream("metrics service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Sugar.Errorf("Metrics service returned %d for %s: %s", resp.StatusCode, req.CampaignID, snippet)
		return nil, apperror.Upstream(fmt.Sprintf("metrics service returned status %d", resp.StatusCode), nil)
	}

	var wire []wireMetric
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, apperror.Upstream("unreadable metrics response", err)
	}

	out := make([]DailyMetric, 0, len(wire))
	for _, w := range wire {
		out = append(out, DailyMetric{
			Date:        w.Date,
			Cost:        float64(w.Cost) / costScale,
			Impressions: int64(w.Impressions),
			Clicks:      int64(w.Clicks),
			Leads:       int64(w.Conversions),
		})
	}
	return out, nil
}
