package server

import (
	"pixelgram/internal/models"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

type startChatRequest struct {
	Username string `json:"username" validate:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// StartChat handles POST /api/chats
// @Summary Get or create the chat with another user
// @Description Returns the single chat between the caller and username with its recent history
// @Tags chats
// @Accept json
// @Produce json
// @Param request body startChatRequest true "Other participant"
// @Success 200 {object} models.Chat
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats [post]
func (s *Server) StartChat(c *fiber.Ctx) error {
	var req startChatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	chat, err := s.chatService.GetOrCreateChat(c.UserContext(), currentUserID(c), req.Username)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(chat)
}

// GetChats handles GET /api/chats
// @Summary List own chats, most recent activity first
// @Tags chats
// @Produce json
// @Success 200 {array} models.ChatSummary
// @Security BearerAuth
// @Router /chats [get]
func (s *Server) GetChats(c *fiber.Ctx) error {
	chats, err := s.chatService.ListUserChats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(chats)
}

// GetMessages handles GET /api/chats/:id/messages
// @Summary Chat history, chronological; offset 0 is the newest page
// @Tags chats
// @Produce json
// @Param id path int true "Chat ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset from the newest message"
// @Success 200 {array} models.MessageEvent
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id}/messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	msgs, err := s.chatService.GetMessages(c.UserContext(), currentUserID(c), id, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	events := make([]models.MessageEvent, 0, len(msgs))
	for i := range msgs {
		events = append(events, msgs[i].Event())
	}
	return c.JSON(events)
}

// SendMessage handles POST /api/chats/:id/messages
// @Summary Send a message
// @Description Appends to the chat and pushes a "message" event to the other participant
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} models.MessageEvent
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req sendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		UserID:  currentUserID(c),
		ChatID:  id,
		Content: req.Content,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg.Event())
}
