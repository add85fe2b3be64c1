package server

import (
	"encoding/json"
	"net/http"

	"investment-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	messageInitial = "initial"
	messageUpdate  = "update"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *DashboardServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.connections.Store(0)
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.connections.Store(int64(len(s.clients)))
			// Send every current view on connect
			s.sendInitial(client)

		case client := <-s.resync:
			if _, ok := s.clients[client]; ok {
				s.sendInitial(client)
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.connections.Store(int64(len(s.clients)))
			}

		case state := <-s.broadcast:
			message := models.MViewMessage{Type: messageUpdate, State: state}
			for client := range s.clients {
				if !client.wants(state.View) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Slow consumers are pruned so the hub never blocks
					s.Logger.Warning("Dropping slow websocket client %s", client.id)
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.connections.Store(int64(len(s.clients)))
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a view state for every subscribed websocket client.
func (s *DashboardServer) Broadcast(state models.MViewState) {
	select {
	case s.broadcast <- state:
	case <-s.done:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s generation %d", state.View, state.Generation)
	}
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

func (s *DashboardServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	s.Logger.Debug("Client %s connected from %s", client.id, c.ClientIP())

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *DashboardServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	client.subscribe(cmd.Views)

	// The hub replies with the current state of the subscribed views
	select {
	case s.resync <- client:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// sendInitial runs on the hub goroutine, which owns client.send.
func (s *DashboardServer) sendInitial(client *Client) {
	for _, state := range s.Views.States() {
		if !client.wants(state.View) {
			continue
		}
		select {
		case client.send <- models.MViewMessage{Type: messageInitial, State: state}:
		default:
		}
	}
}
