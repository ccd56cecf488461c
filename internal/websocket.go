package study

import (
	"net/http"

	"github.com/charmbracelet/log"

	"study/internal/clock"
)

// @Summary WebSocket connection endpoint
// @Description Establishes a WebSocket connection; refreshed statistics are pushed after every write
// @Tags websocket
// @Param user query string true "User id"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {string} string "Bad Request"
// @Router /connect [get]
func (s *Server) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "Missing user parameter", http.StatusBadRequest)
		return
	}

	log.Info("Client connected", "user", user)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection", "err", err)
		return
	}

	s.State.AddClient(conn, user)

	defer func() {
		conn.Close()
		s.State.RemoveClient(conn)
	}()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			log.Info("Client disconnected", "user", user)
			return
		}
		if string(p) == "get_statistics" {
			s.pushStatistics(r, user)
		}
	}
}

// pushStatistics sends the current daily aggregate to the user's
// connections on request.
func (s *Server) pushStatistics(r *http.Request, user string) {
	agg, err := s.Stats.Aggregate(r.Context(), clock.Daily, user)
	if err != nil {
		log.Error("Failed to fetch statistics for push", "user", user, "error", err)
		return
	}

	s.State.NotifyUser(user, map[string]any{
		"event":      "statistics",
		"window":     "daily",
		"statistics": agg,
	})
}
