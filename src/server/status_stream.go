package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradebotpro/src/bot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect from a different origin in dev.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusStreamHandler pushes the status of every registered bot over
// a websocket at a fixed interval until the client disconnects.
func StatusStreamHandler(registry *bot.Registry, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}
		defer conn.Close()

		// drain client frames so close is noticed
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// first snapshot immediately, then on every tick
		for {
			if err := conn.WriteJSON(registry.Snapshots()); err != nil {
				logger.WithError(err).Debug("status stream ended")
				return
			}
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}
	}
}
