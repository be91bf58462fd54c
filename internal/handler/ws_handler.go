package handler

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
	ws "github.com/stemsi/certify-backend/internal/websocket"
)

// changeBuffer bounds the changes queued for a slow client. Overflowing
// changes are dropped: every change only tells the client to refetch.
const changeBuffer = 32

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// visibleKeys lists the collection keys a role is told about.
func visibleKeys(role model.Role) []string {
	keys := []string{
		config.StoreKey.AdminTests,
		config.StoreKey.ExamSettings,
		config.StoreKey.Appointments,
		config.StoreKey.QuizHistory,
	}
	if role == model.RoleAdmin {
		keys = append(keys, config.StoreKey.Users, config.StoreKey.SentNotifications)
	}
	return keys
}

// WSHandler streams store change signals to signed-in clients.
type WSHandler struct {
	bus         *bus.Bus
	authService *service.AuthService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(b *bus.Bus, authService *service.AuthService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:         b,
		authService: authService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ChangeStream godoc
// WS /ws/v1/changes?token=...
// Pushes {key} or {storageKey} events whenever a visible collection or the
// caller's own inbox is rewritten.
func (h *WSHandler) ChangeStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	user, err := h.authService.ValidateSession(c.Request.Context(), claims)
	if err != nil {
		failFromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("email", user.Email).Str("role", string(user.Role)).Logger()
	keys := visibleKeys(user.Role)
	inbox := model.InboxKey{Role: user.Role, Email: user.Email}

	// gorilla connections allow one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	if err := write(ws.ReadyResponse{Event: ws.EventReady, Keys: keys, Inbox: inbox.StorageKey()}); err != nil {
		return
	}

	changes := make(chan bus.Change, changeBuffer)
	unsubscribe := h.bus.OnAny(func(ch bus.Change) {
		if !visible(ch, keys, inbox) {
			return
		}
		select {
		case changes <- ch:
		default:
			wsLog.Warn().Str("key", ch.StorageKey()).Msg("Change dropped for slow client")
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ch := <-changes:
				if _, err := h.authService.ValidateSession(ctx, claims); err != nil {
					_ = write(ws.ErrorResponse{Event: ws.EventError, Error: "session ended"})
					_ = conn.Close()
					return
				}
				if err := write(ws.NewChangeResponse(ch)); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	wsLog.Info().Msg("Change stream connected")

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

// visible reports whether a change may be shown to the connection. Inbox
// changes are shown only to their owner, and keys outside the visible set
// (credentials, session tokens) never leave the server.
func visible(ch bus.Change, keys []string, inbox model.InboxKey) bool {
	if ch.Inbox != nil {
		return *ch.Inbox == inbox
	}
	return slices.Contains(keys, ch.Key)
}
