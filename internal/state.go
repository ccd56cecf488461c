package study

import (
	"encoding/json"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gorilla/websocket"
)

// State tracks the websocket clients that want statistics pushed to them.
type State struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> user id
}

func (s *State) AddClient(client *websocket.Conn, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients == nil {
		s.clients = make(map[*websocket.Conn]string)
	}
	s.clients[client] = user
}

func (s *State) RemoveClient(client *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
}

// NotifyUser sends a message to every connection registered for the user.
func (s *State) NotifyUser(user string, message interface{}) {
	jsonMessage, err := json.Marshal(message)
	if err != nil {
		log.Error("Error marshaling message", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for client, u := range s.clients {
		if u != user {
			continue
		}
		if err := client.WriteMessage(websocket.TextMessage, jsonMessage); err != nil {
			log.Error("Error sending message to client", "err", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}
