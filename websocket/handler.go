package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// NewUpgrader accepts connections from the given origins. "*" or an empty
// list accepts any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 || allowed["*"] {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}
}

// HandleWebSocket subscribes the connection to category events.
func HandleWebSocket(hub *Hub, upgrader websocket.Upgrader) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}

		// Send a welcome message
		welcome, _ := json.Marshal(Notification{
			Type:    "connected",
			Message: "Subscribed to category events",
		})
		client.send <- welcome

		if !hub.join(client) {
			conn.Close()
			return nil
		}

		go client.writePump()
		go client.readPump()
		return nil
	}
}
