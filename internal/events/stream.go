package events

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

type Server struct {
	hub *Hub
}

func NewServer(hub *Hub) *Server {
	return &Server{
		hub: hub,
	}
}

// HandleStream upgrades the request and pushes every hub event to the client
// as a JSON text message until either side goes away.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	log.Printf("✅ Client %s subscribed to tree events", id[:8])

	// Clients only ever send close frames; reading is how we notice them.
	done := make(chan error, 1)
	go func() {
		done <- s.drain(conn)
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				log.Printf("Failed to write event to %s: %v", id[:8], err)
				return
			}
		case err := <-done:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error for %s: %v", id[:8], err)
			}
			log.Printf("Client %s unsubscribed from tree events", id[:8])
			return
		}
	}
}

func (s *Server) drain(conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}
