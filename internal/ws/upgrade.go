package ws

import (
	"net/http"
	"time"

	"seragon/config"
	"seragon/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UpgradeOrdersWS authenticates with ?token= and streams order events for the caller.
// Admin connections also receive every other customer's order events.
func UpgradeOrdersWS(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.ParseAccessToken(cfg, c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		client := NewClient(claims.UserID, claims.Role)
		hub.Register(client)
		defer client.Close()
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames; the feed is server-to-client only.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
