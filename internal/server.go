package study

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/charmbracelet/log"

	"study/internal/ai"
	"study/internal/cache"
	"study/internal/clock"
	"study/internal/remote"
	"study/internal/stats"
)

// Server encapsulates all the state and handlers for the study application
type Server struct {
	State          *State
	Stats          *stats.Service
	Encouragements *EncouragementStore
	hooks          []Hook
	upgrader       websocket.Upgrader
}

// NewServer creates and initializes a new server instance
func NewServer() (*Server, error) {
	server := &Server{
		State:          &State{},
		Encouragements: &EncouragementStore{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	if err := server.Encouragements.Load(); err != nil {
		return nil, err
	}

	// Initialize the statistics backend client
	client, err := remote.NewClient()
	if err != nil {
		return nil, err
	}

	// One resolver instance for the whole server. The cache and every read
	// must share it, or invalidation and reads drift onto different keys.
	resolver := clock.NewResolver()
	server.Stats = stats.New(resolver, cache.New(resolver), client)

	server.hooks = append(server.hooks, BroadcastHook(), EncouragementHook())

	// Register AI hook (only if AI env vars are set)
	aiClient, err := ai.NewClient()
	if err != nil {
		log.Warn("AI client not available, coaching messages disabled", "error", err)
	} else {
		server.hooks = append(server.hooks, AIHook(aiClient))
	}

	return server, nil
}

// runHooks fires every registered hook for a completed write.
func (s *Server) runHooks(ev WriteEvent) {
	for _, hook := range s.hooks {
		go hook(s, ev)
	}
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetupRoutes configures all HTTP routes for the server
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HealthHandler)
	mux.HandleFunc("/statistics", s.StatisticsHandler)
	mux.HandleFunc("/focus", s.FocusHandler)
	mux.HandleFunc("/sessions/complete", s.SessionHandler)
	mux.HandleFunc("/tasks/complete", s.TaskHandler)
	mux.HandleFunc("/connect", s.WebsocketHandler)

	return corsMiddleware(mux)
}
