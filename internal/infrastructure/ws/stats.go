package ws

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/domain"
)

type statsMessage struct {
	Type     string               `json:"type"`
	LayerKey string               `json:"layerKey"`
	Data     domain.GisLayerStats `json:"data"`
}

/* Structure for managing websocket connections for concurrent access */
type websocketsMap struct {
	sync.RWMutex
	connections map[string]*websocket.Conn
}

func (w *websocketsMap) Set(key string, conn *websocket.Conn) {
	w.Lock()
	defer w.Unlock()
	if conn == nil {
		delete(w.connections, key)
	} else {
		w.connections[key] = conn
	}
}

func (w *websocketsMap) Get(key string) *websocket.Conn {
	w.RLock()
	defer w.RUnlock()
	return w.connections[key]
}

// StatsWS pushes per-layer load status transitions to the browser session
// that owns the loader.
type StatsWS struct {
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
	clients  *websocketsMap
}

func NewStatsWS(log *zap.SugaredLogger) *StatsWS {
	return &StatsWS{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: &websocketsMap{connections: make(map[string]*websocket.Conn)},
	}
}

// Send delivers one status transition to the session's connection, if any.
// Sessions without an open websocket are skipped silently.
func (s *StatsWS) Send(sessionID, layerKey string, stats domain.GisLayerStats) error {
	dest := s.clients.Get(sessionID)
	if dest != nil {
		return dest.WriteJSON(statsMessage{Type: "GisLayerStats", LayerKey: layerKey, Data: stats})
	}
	return nil
}

// Handle upgrades the request and keeps the connection registered until the
// client goes away. Incoming text frames are ignored except "Ping".
func (s *StatsWS) Handle(sessionID string, w http.ResponseWriter, r *http.Request) (err error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.clients.Set(sessionID, conn)
	s.log.Infow("gis stats websocket started", "session", sessionID)
	for {
		msgType, msg, rerr := conn.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = rerr
				s.log.Errorw("gis stats websocket error", "session", sessionID, zap.Error(rerr))
			}
			break
		}
		if bytes.Equal(msg, []byte("Ping")) {
			continue
		}
		if msgType == websocket.CloseMessage {
			break
		}
	}
	s.clients.Set(sessionID, nil)
	s.log.Infow("gis stats websocket closed", "session", sessionID)
	return
}
