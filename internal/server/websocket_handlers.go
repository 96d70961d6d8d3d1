package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pixelgram/internal/middleware"
	"pixelgram/internal/models"
	"pixelgram/internal/notifications"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const inboundTimeout = 5 * time.Second

type inboundMessage struct {
	ChatID  uint   `json:"chat_id"`
	Content string `json:"content"`
}

// WebsocketHandler handles GET /api/ws. Each accepted connection becomes one
// live channel of the authenticated user in the registry.
// @Summary Live event channel
// @Description Upgrade to a websocket; authenticate with ?ticket= from POST /ws/ticket
// @Tags realtime
// @Param ticket query string true "Websocket ticket"
// @Success 101
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, encodeEvent(
				notifications.ErrorEvent(models.CodeUnauthorized, "unauthorized")))
			_ = conn.Close()
			return
		}

		client, err := s.registry.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, encodeEvent(
				notifications.ErrorEvent("CONNECTION_REJECTED", err.Error())))
			_ = conn.Close()
			return
		}
		client.IncomingHandler = s.handleInbound

		go client.WritePump()
		client.ReadPump()
	})
}

// handleInbound dispatches one client frame. Replies go to the sending
// connection only.
func (s *Server) handleInbound(c *notifications.Client, raw []byte) {
	var frame notifications.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.SendEvent(notifications.ErrorEvent(models.CodeValidation, "malformed frame"))
		return
	}

	switch frame.Type {
	case "ping":
		c.SendEvent(notifications.Event{Type: notifications.EventPong})
	case "message":
		s.handleInboundMessage(c, frame.Payload)
	default:
		c.SendEvent(notifications.ErrorEvent(models.CodeValidation, fmt.Sprintf("unknown frame type %q", frame.Type)))
	}
}

func (s *Server) handleInboundMessage(c *notifications.Client, payload json.RawMessage) {
	var in inboundMessage
	if len(payload) == 0 || json.Unmarshal(payload, &in) != nil || in.ChatID == 0 {
		c.SendEvent(notifications.ErrorEvent(models.CodeValidation, "message frames need chat_id and content"))
		return
	}

	ctx, cancel := context.WithTimeout(middleware.WithUserID(context.Background(), c.UserID), inboundTimeout)
	defer cancel()

	allowed, _ := s.limiter.Allow(ctx, "send_chat", fmt.Sprintf("user:%d", c.UserID), 30, time.Minute)
	if !allowed {
		c.SendEvent(notifications.ErrorEvent("RATE_LIMITED", "rate limit exceeded"))
		return
	}

	msg, err := s.chatService.SendMessage(ctx, service.SendMessageInput{
		UserID:  c.UserID,
		ChatID:  in.ChatID,
		Content: in.Content,
	})
	if err != nil {
		c.SendEvent(errorEventFor(err))
		return
	}
	c.SendEvent(notifications.Event{Type: notifications.EventMessageSent, Payload: msg.Event()})
}

func errorEventFor(err error) notifications.Event {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return notifications.ErrorEvent(appErr.Code, appErr.Message)
	}
	return notifications.ErrorEvent(models.CodeInternal, "Internal server error")
}

func encodeEvent(ev notifications.Event) []byte {
	data, _ := ev.Encode()
	return data
}
