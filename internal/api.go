package study

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"study/internal/clock"
	"study/internal/remote"
)

// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce plain
// @Success 200 {string} string "Healthy"
// @Router /health [get]
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Healthy"))
}

// @Summary Get study statistics
// @Description Returns the aggregated statistics for the current local daily, weekly or monthly window
// @Tags statistics
// @Produce json
// @Param window query string false "Statistics window: daily, weekly or monthly (default daily)"
// @Param user query string true "User id"
// @Success 200 {object} remote.Aggregate "Aggregated statistics"
// @Failure 400 {string} string "Bad request"
// @Failure 502 {string} string "Backend error"
// @Router /statistics [get]
func (s *Server) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "Missing user parameter", http.StatusBadRequest)
		return
	}

	windowParam := r.URL.Query().Get("window")
	if windowParam == "" {
		windowParam = string(clock.Daily)
	}
	window, err := clock.ParseWindow(windowParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("Statistics read", "window", window, "user", user)

	agg, err := s.Stats.Aggregate(r.Context(), window, user)
	if err != nil {
		log.Error("Failed to read statistics", "window", window, "user", user, "error", err)
		http.Error(w, "Failed to read statistics", http.StatusBadGateway)
		return
	}

	writeAggregate(w, agg)
}

// @Summary Log focus time
// @Description Records focus seconds for the user's local today and returns the refreshed daily statistics
// @Tags statistics
// @Accept x-www-form-urlencoded
// @Produce json
// @Param user formData string true "User id"
// @Param seconds formData int true "Focus time in seconds"
// @Success 200 {object} remote.Aggregate "Refreshed daily statistics"
// @Failure 400 {string} string "Bad request"
// @Failure 502 {string} string "Backend error"
// @Router /focus [post]
func (s *Server) FocusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.parseWriteForm(w, r)
	if !ok {
		return
	}

	seconds, err := strconv.Atoi(r.FormValue("seconds"))
	if err != nil || seconds <= 0 {
		http.Error(w, "Invalid seconds parameter", http.StatusBadRequest)
		return
	}

	log.Info("Logging focus time", "user", user, "seconds", seconds)

	agg, err := s.Stats.AddFocusTime(r.Context(), user, seconds)
	if err != nil {
		log.Error("Failed to log focus time", "user", user, "error", err)
		http.Error(w, "Failed to log focus time", http.StatusBadGateway)
		return
	}

	s.runHooks(WriteEvent{Kind: "focus", User: user, Aggregate: agg})
	writeAggregate(w, agg)
}

// @Summary Complete a study session
// @Description Records one finished study session and returns the refreshed daily statistics
// @Tags statistics
// @Accept x-www-form-urlencoded
// @Produce json
// @Param user formData string true "User id"
// @Success 200 {object} remote.Aggregate "Refreshed daily statistics"
// @Failure 400 {string} string "Bad request"
// @Failure 502 {string} string "Backend error"
// @Router /sessions/complete [post]
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.parseWriteForm(w, r)
	if !ok {
		return
	}

	log.Info("Completing session", "user", user)

	agg, err := s.Stats.CompleteSession(r.Context(), user)
	if err != nil {
		log.Error("Failed to complete session", "user", user, "error", err)
		http.Error(w, "Failed to complete session", http.StatusBadGateway)
		return
	}

	s.runHooks(WriteEvent{Kind: "session", User: user, Aggregate: agg})
	writeAggregate(w, agg)
}

// @Summary Complete a task
// @Description Records one finished task and returns the refreshed daily statistics
// @Tags statistics
// @Accept x-www-form-urlencoded
// @Produce json
// @Param user formData string true "User id"
// @Success 200 {object} remote.Aggregate "Refreshed daily statistics"
// @Failure 400 {string} string "Bad request"
// @Failure 502 {string} string "Backend error"
// @Router /tasks/complete [post]
func (s *Server) TaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := s.parseWriteForm(w, r)
	if !ok {
		return
	}

	log.Info("Completing task", "user", user)

	agg, err := s.Stats.CompleteTask(r.Context(), user)
	if err != nil {
		log.Error("Failed to complete task", "user", user, "error", err)
		http.Error(w, "Failed to complete task", http.StatusBadGateway)
		return
	}

	s.runHooks(WriteEvent{Kind: "task", User: user, Aggregate: agg})
	writeAggregate(w, agg)
}

func (s *Server) parseWriteForm(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return "", false
	}

	user := r.FormValue("user")
	if user == "" {
		http.Error(w, "Missing user parameter", http.StatusBadRequest)
		return "", false
	}

	return user, true
}

func writeAggregate(w http.ResponseWriter, agg remote.Aggregate) {
	jsonMessage, err := json.Marshal(agg)
	if err != nil {
		log.Error("Error marshaling statistics", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonMessage)
}
