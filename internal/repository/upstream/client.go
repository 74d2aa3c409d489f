// Package upstream reads the latest published chapter per series from
// the content API (MangaUpdates-style read surface).
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"mangawatch/internal/domain/subscription"
)

type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type Client struct {
	base  string
	ua    string
	httpc *http.Client
	log   *zap.Logger
}

var _ subscription.Fetcher = (*Client)(nil)

func NewClient(cfg Config, httpc *http.Client, log *zap.Logger) *Client {
	return &Client{
		base:  cfg.BaseURL,
		ua:    cfg.UserAgent,
		httpc: httpc,
		log:   log.With(zap.String("component", "upstream.client")),
	}
}

type latestResponse struct {
	SeriesKey     string `json:"series_key"`
	LatestChapter int64  `json:"latest_chapter"`
}

// LatestChapter resolves the newest chapter number for a series key.
// Source-side flakiness (timeouts, 5xx, unknown-for-now series, a zero
// chapter reading) comes back as subscription.ErrUnavailable so the
// monitor skips the key and re-polls next run.
func (c *Client) LatestChapter(ctx context.Context, seriesKey string) (int64, error) {
	u := fmt.Sprintf("%s/v1/series/%s/latest", c.base, url.PathEscape(seriesKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Debug("fetch failed", zap.String("series_key", seriesKey), zap.Error(err))
		return 0, fmt.Errorf("%w: %v", subscription.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		c.log.Debug("source unavailable",
			zap.String("series_key", seriesKey), zap.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: status %d", subscription.ErrUnavailable, resp.StatusCode)
	default:
		return 0, fmt.Errorf("fetch %s: unexpected status %d", seriesKey, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", subscription.ErrUnavailable, err)
	}
	// The source reports 0 when it does not know the series yet.
	if body.LatestChapter <= 0 {
		return 0, fmt.Errorf("%w: no chapter data", subscription.ErrUnavailable)
	}
	return body.LatestChapter, nil
}
