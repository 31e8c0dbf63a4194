package ws

import (
	"github.com/fasthttp/websocket"
	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		// In production, restrict to configured origins.
		return true
	},
}

// Handler upgrades /ws connections. Browsers cannot set headers on a
// websocket handshake, so the JWT rides in the token query parameter.
type Handler struct {
	hub    *Hub
	secret string
	logger *zap.Logger
}

func NewHandler(hub *Hub, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, secret: secret, logger: logger}
}

func (h *Handler) Upgrade(ctx *fasthttp.RequestCtx) {
	userID := h.authenticate(string(ctx.QueryArgs().Peek("token")))
	if userID == "" {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		client := newClient(h.hub, conn, userID)
		h.hub.attach(client)
		h.logger.Info("websocket connected", zap.String("user_id", userID))

		go client.writePump()
		client.readPump()

		h.logger.Info("websocket disconnected", zap.String("user_id", userID))
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

func (h *Handler) authenticate(tokenString string) string {
	if tokenString == "" {
		return ""
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.secret), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("invalid jwt token on websocket handshake", zap.Error(err))
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if userID, ok := claims["user_id"].(string); ok {
			return userID
		}
	}
	return ""
}
