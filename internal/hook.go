package study

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"study/internal/ai"
	"study/internal/remote"
)

// WriteEvent describes a statistics write that already reached the backend
// and invalidated the cache. Aggregate is the refreshed daily total.
type WriteEvent struct {
	Kind      string // "focus", "session" or "task"
	User      string
	Aggregate remote.Aggregate
}

// Hook is a function that runs after a statistics write. Hooks are
// notification-only; cache invalidation is synchronous in the write path and
// never delegated here.
type Hook func(*Server, WriteEvent)

// BroadcastHook pushes the refreshed daily aggregate to the user's
// websocket connections.
func BroadcastHook() Hook {
	return func(s *Server, ev WriteEvent) {
		s.State.NotifyUser(ev.User, map[string]any{
			"event":      "statistics",
			"window":     "daily",
			"statistics": ev.Aggregate,
		})
	}
}

// EncouragementHook sends a short encouragement line when a session or task
// completes.
func EncouragementHook() Hook {
	return func(s *Server, ev WriteEvent) {
		if ev.Kind == "focus" {
			return
		}
		line, ok := s.Encouragements.Pick()
		if !ok {
			return
		}
		s.State.NotifyUser(ev.User, map[string]any{
			"event": "encouragement",
			"text":  line.Text,
		})
	}
}

// AIHook asks the AI client for a one-line coaching message based on the
// refreshed daily totals and pushes it to the user. Registered only when the
// AI client is configured.
func AIHook(client *ai.Client) Hook {
	return func(s *Server, ev WriteEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		summary := fmt.Sprintf(
			"Today so far: %d minutes of focus, %d sessions, %d tasks done. The user just finished a %s.",
			ev.Aggregate.FocusTime/60, ev.Aggregate.Sessions, ev.Aggregate.TasksDone, ev.Kind,
		)

		message, err := client.CoachingMessage(ctx, summary)
		if err != nil {
			log.Warn("AI coaching message failed", "error", err)
			return
		}

		s.State.NotifyUser(ev.User, map[string]any{
			"event": "coaching",
			"text":  message,
		})
	}
}
