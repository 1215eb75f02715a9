// internal/api/ws_handlers.go
// WebSocket endpoint: upgrades the connection, authenticates the caller,
// joins it to the requested tournament's gathering, and pumps length-
// prefixed frames in both directions.

package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tournament-core/internal/account"
	"tournament-core/internal/gathering"
	"tournament-core/internal/hall"
	"tournament-core/internal/identity"
	"tournament-core/internal/ids"
	"tournament-core/internal/tournament"
	"tournament-core/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleConnection upgrades a request to a websocket and pumps it through
// the gathering hall. The caller proves identity with a JWT in the `token`
// query parameter, validated here since browsers cannot set Authorization
// headers on a websocket handshake.
func HandleConnection(h *hall.Hall, accounts *account.Store, id *identity.Identity, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		accountID, err := id.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		tournamentIDStr := c.Query("tournament_id")
		tournamentID, err := ids.ParseTournamentID(tournamentIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament_id"})
			return
		}

		acc, err := accounts.GetByID(c.Request.Context(), accountID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Printf("ws: upgrade failed: %v", err)
			return
		}

		sink := make(chan wire.ClientBound, 64)
		sub := &gathering.Subscriber{
			AccountID:   accountID,
			DisplayName: acc.DisplayName,
			Sink:        sink,
		}

		g, err := h.Join(c.Request.Context(), tournamentID, tournament.Seed{}, sub)
		if err != nil {
			logger.Printf("ws: join failed: %v", err)
			conn.Close()
			return
		}

		go writePump(conn, sink, logger)
		readPump(conn, g, accountID, logger)
	}
}

func writePump(conn *websocket.Conn, sink <-chan wire.ClientBound, logger *log.Logger) {
	defer conn.Close()
	for msg := range sink {
		w, err := conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			return
		}
		if err := wire.WriteClientBound(w, msg); err != nil {
			logger.Printf("ws: encode frame: %v", err)
			w.Close()
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func readPump(conn *websocket.Conn, g *gathering.Gathering, accountID ids.AccountID, logger *log.Logger) {
	defer func() {
		g.Unregister(accountID)
		conn.Close()
	}()
	for {
		_, r, err := conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Printf("ws: read error: %v", err)
			}
			return
		}
		msg, err := wire.ReadServerBound(r)
		if err != nil {
			logger.Printf("ws: decode frame: %v", err)
			continue
		}
		g.Send(gathering.Inbound{AccountID: accountID, Message: msg})
	}
}
