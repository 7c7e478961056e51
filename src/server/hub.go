package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"benchmark-server/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop. All access to the clients map happens here.
func (s *APIServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))
			// Send a snapshot of every known quote on connect
			client.send <- snapshotMessage(s.Quotes.GetAll())

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.clientCount.Store(int64(len(s.clients)))
			}

		case tick := <-s.broadcast:
			message := tickMessage(tick)
			for client := range s.clients {
				if !client.wants(tick.Symbol) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client too slow, disconnect to prevent hub blocking
					delete(s.clients, client)
					close(client.send)
					s.clientCount.Store(int64(len(s.clients)))
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a tick for delivery to websocket clients. Safe to call
// from the stream supervisor goroutine; drops the tick if the queue is full
// rather than stalling the stream.
func (s *APIServer) Broadcast(tick models.MTick) {
	select {
	case s.broadcast <- tick:
	default:
		s.Logger.Warning("Broadcast queue full, dropping tick for %s", tick.Symbol)
	}
}

// -----------------------------------------------------------------------------

func snapshotMessage(quotes map[string]models.MTick) gin.H {
	return gin.H{"type": "SNAPSHOT", "data": quotes}
}

func tickMessage(tick models.MTick) gin.H {
	return gin.H{"type": "TICK", "data": tick}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the hub loop
		send: make(chan interface{}, 256),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

type clientCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// HandleClientMessage processes a subscribe command from a websocket
// client: the named symbols are added to the live stream and become the
// client's tick filter. An empty symbol list means "everything".
func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	filter := make(map[string]bool, len(cmd.Symbols))
	for _, symbol := range cmd.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		filter[symbol] = true
		s.Supervisor.EnsureSubscribed(symbol)
	}
	client.setFilter(filter)

	// Fresh snapshot so the client starts from current state
	select {
	case client.send <- snapshotMessage(s.Quotes.GetAll()):
	default:
	}
}
