package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
)

func TestWhatsAppSendFormatsMessage(t *testing.T) {
	var got sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/send", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(WhatsAppConfig{BaseURL: srv.URL}, srv.Client(), zap.NewNop())
	err := s.Send(context.Background(),
		notify.Target{Kind: notify.KindDirect, Address: "+4915112345678"},
		notify.Message{ID: "m-1", Title: "New chapter: Berserk", Body: "Chapter 375 is now available! (previous: 374)"},
	)

	require.NoError(t, err)
	require.Equal(t, "+4915112345678", got.Phone)
	require.Equal(t, "*New chapter: Berserk*\n\nChapter 375 is now available! (previous: 374)", got.Message)
}

func TestWhatsAppSendBridgeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWhatsAppSender(WhatsAppConfig{BaseURL: srv.URL}, srv.Client(), zap.NewNop())
	err := s.Send(context.Background(),
		notify.Target{Kind: notify.KindDirect, Address: "+4915112345678"},
		notify.Message{ID: "m-2", Title: "t", Body: "b"},
	)

	require.ErrorContains(t, err, "status 500")
}

func TestWhatsAppSenderKind(t *testing.T) {
	s := NewWhatsAppSender(WhatsAppConfig{}, http.DefaultClient, zap.NewNop())
	require.Equal(t, notify.KindDirect, s.Kind())
}
