package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
)

func TestSendWithoutConnectionIsNoop(t *testing.T) {
	sws := NewStatsWS(zap.NewNop().Sugar())
	err := sws.Send("no-such-session", "rivers:0", domain.GisLayerStats{Status: domain.StatusLoading})
	assert.NoError(t, err)
}

func TestStatsPushedToSessionConnection(t *testing.T) {
	sws := NewStatsWS(zap.NewNop().Sugar())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sws.Handle("session-1", w, r)
	}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration happens in the handler goroutine after the upgrade
	deadline := time.Now().Add(2 * time.Second)
	for sws.clients.Get("session-1") == nil {
		require.True(t, time.Now().Before(deadline), "connection was not registered")
		time.Sleep(5 * time.Millisecond)
	}

	count := 12
	require.NoError(t, sws.Send("session-1", "rivers:0", domain.GisLayerStats{
		Status:       domain.StatusOk,
		FeatureCount: &count,
	}))

	var msg statsMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "GisLayerStats", msg.Type)
	assert.Equal(t, "rivers:0", msg.LayerKey)
	assert.Equal(t, domain.StatusOk, msg.Data.Status)
	require.NotNil(t, msg.Data.FeatureCount)
	assert.Equal(t, 12, *msg.Data.FeatureCount)
}

func TestSendToOtherSessionNotDelivered(t *testing.T) {
	sws := NewStatsWS(zap.NewNop().Sugar())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sws.Handle("session-a", w, r)
	}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for sws.clients.Get("session-a") == nil {
		require.True(t, time.Now().Before(deadline), "connection was not registered")
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, sws.Send("session-b", "rivers:0", domain.GisLayerStats{Status: domain.StatusOk}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "nothing addressed to this session")
}
