package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mangawatch/internal/domain/subscription"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{BaseURL: srv.URL, UserAgent: "mangawatch-test", Timeout: time.Second}
	return NewClient(cfg, srv.Client(), zap.NewNop())
}

func TestLatestChapterOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/series/berserk/latest", r.URL.Path)
		require.Equal(t, "mangawatch-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"series_key":"berserk","latest_chapter":375}`))
	})

	got, err := c.LatestChapter(context.Background(), "berserk")
	require.NoError(t, err)
	require.EqualValues(t, 375, got)
}

func TestLatestChapterEscapesSeriesKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/series/one%2Fpiece/latest", r.URL.EscapedPath())
		w.Write([]byte(`{"series_key":"one/piece","latest_chapter":1100}`))
	})

	got, err := c.LatestChapter(context.Background(), "one/piece")
	require.NoError(t, err)
	require.EqualValues(t, 1100, got)
}

func TestLatestChapterUnavailableStatuses(t *testing.T) {
	for _, status := range []int{
		http.StatusNotFound,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.LatestChapter(context.Background(), "berserk")
		require.ErrorIs(t, err, subscription.ErrUnavailable, "status %d", status)
	}
}

func TestLatestChapterUnexpectedStatusIsHardError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	_, err := c.LatestChapter(context.Background(), "berserk")
	require.Error(t, err)
	require.NotErrorIs(t, err, subscription.ErrUnavailable)
}

func TestLatestChapterZeroMeansUnknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"series_key":"brand-new","latest_chapter":0}`))
	})

	_, err := c.LatestChapter(context.Background(), "brand-new")
	require.ErrorIs(t, err, subscription.ErrUnavailable)
}

func TestLatestChapterGarbageBodyIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.LatestChapter(context.Background(), "berserk")
	require.ErrorIs(t, err, subscription.ErrUnavailable)
}

func TestLatestChapterTransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Config{BaseURL: srv.URL}, http.DefaultClient, zap.NewNop())

	_, err := c.LatestChapter(context.Background(), "berserk")
	require.ErrorIs(t, err, subscription.ErrUnavailable)
}
