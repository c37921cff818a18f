package adapthttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"weightquest/internal/app"
)

const (
	streamBuffer  = 8
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxClientRead = 512
)

// StreamFrame is the message format of the dashboard stream.
type StreamFrame struct {
	Type    string        `json:"type"`
	Payload app.Dashboard `json:"payload"`
}

// handleStream upgrades to a websocket and pushes the caller's dashboard now
// and after every change to their record.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := s.userID(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("stream upgrade failed")
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.GaugeStreams.Inc()
		defer s.metrics.GaugeStreams.Dec()
	}

	// The listener runs under the store's write lock and must never block.
	updates := make(chan app.Dashboard, streamBuffer)
	unsubscribe := s.progress.Subscribe(func(id int64, d app.Dashboard) {
		if id != userID {
			return
		}
		select {
		case updates <- d:
		default:
			log.WithField("user_id", userID).Warn("stream client too slow, dropping update")
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxClientRead)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).WithField("user_id", userID).Debug("stream read")
				}
				return
			}
		}
	}()

	if err := writeFrame(conn, s.progress.Dashboard(r.Context(), userID)); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case d := <-updates:
			if err := writeFrame(conn, d); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, d app.Dashboard) error {
	b, err := json.Marshal(StreamFrame{Type: "dashboard", Payload: d})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
