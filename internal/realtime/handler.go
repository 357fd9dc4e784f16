package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/config"
	"github.com/spec-kit/financing-service/internal/domain"
)

// HandshakeRequest is the first client frame on a new connection. The
// token travels in the payload because the transport is not an HTTP
// request/response exchange.
type HandshakeRequest struct {
	Token string `json:"token"`
}

// Handler upgrades HTTP requests to websocket connections and runs the
// handshake. It authenticates with the same sequence as the HTTP
// middleware; a token revoked mid-session is rejected on reconnect.
type Handler struct {
	hub           *Hub
	authenticator *auth.Authenticator
	cfg           config.RealtimeConfig
	logger        *zap.Logger
}

// NewHandler constructs the handler.
func NewHandler(hub *Hub, authenticator *auth.Authenticator, cfg config.RealtimeConfig, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, authenticator: authenticator, cfg: cfg, logger: logger}
}

// UpgradeRequired gates the route on websocket upgrade requests.
func (h *Handler) UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve returns the websocket handler for the realtime route.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *Handler) serve(ws *websocket.Conn) {
	defer ws.Close()

	identity, err := h.handshake(ws)
	if err != nil {
		// A connection that fails handshake authentication never
		// reaches the registry. The error signal stays generic.
		h.logger.Debug("realtime handshake rejected", zap.Error(err))
		_ = ws.WriteJSON(Message{Event: "auth_error", Data: fiber.Map{"error": "authentication failed"}})
		return
	}

	conn := newConnection(ws, identity, h.cfg.SendBufferSize, h.logger)
	h.hub.Register(conn)
	defer h.hub.Unregister(conn)

	_ = ws.WriteJSON(Message{Event: "connected", Data: fiber.Map{"user_id": identity.UserID}})

	// The client sends nothing after the handshake; the read loop only
	// watches for transport closure.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// handshake reads the token frame and runs the shared authentication
// sequence. The revocation registry being unreachable rejects the
// handshake: opening a connection is a state-changing operation, so it
// fails closed.
func (h *Handler) handshake(ws *websocket.Conn) (*domain.Identity, error) {
	_ = ws.SetReadDeadline(time.Now().Add(h.cfg.HandshakeTimeout()))
	var req HandshakeRequest
	if err := ws.ReadJSON(&req); err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	_ = ws.SetReadDeadline(time.Time{})

	identity, err := h.authenticator.Authenticate(context.Background(), req.Token)
	if err != nil {
		return nil, err
	}
	return identity, nil
}
