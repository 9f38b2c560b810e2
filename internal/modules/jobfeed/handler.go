package jobfeed

import (
	"net/http"
	"time"

	"doorstep/internal/pkg/jwt"
	"doorstep/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Handler struct {
	hub      *Hub
	tokens   jwt.TokenService
	upgrader websocket.Upgrader
}

// NewHandler builds the feed endpoint. allowedOrigins empty means any origin.
func NewHandler(hub *Hub, tokens jwt.TokenService, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// RegisterRoutes mounts GET /technician/jobs/feed. Browsers can't set headers
// on a websocket handshake, so the token travels in ?token=.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/technician/jobs/feed", h.Feed)
}

func (h *Handler) Feed(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "token query parameter is required")
		return
	}
	claims, err := h.tokens.Verify(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if claims.Role != jwt.RoleTechnician {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Technician access only")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("feed upgrade failed", "error", err)
		return
	}

	cl := h.hub.register(claims.SubjectID, conn)
	h.hub.log.Info("technician feed connected", "technician_id", claims.SubjectID)

	go h.writeLoop(cl)
	h.readLoop(cl)
}

// readLoop only services control frames; the feed is server to client.
func (h *Handler) readLoop(cl *client) {
	defer func() {
		h.hub.unregister(cl)
		_ = cl.conn.Close()
		h.hub.log.Info("technician feed disconnected", "technician_id", cl.technicianID)
	}()

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.hub.log.Warn("feed read error", "technician_id", cl.technicianID, "error", err)
			}
			return
		}
	}
}

func (h *Handler) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
