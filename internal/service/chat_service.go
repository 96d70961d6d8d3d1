package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"pixelgram/internal/models"
	"pixelgram/internal/notifications"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MaxMessageLength is the longest chat message accepted, in characters.
const MaxMessageLength = 10000

// ChatService provides direct-message business logic. There is exactly one
// chat per unordered pair of users.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	pusher   Pusher
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	UserID  uint
	ChatID  uint
	Content string
}

// NewChatService returns a new ChatService. pusher may be nil.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, pusher Pusher) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		pusher:   pusherOrNop(pusher),
	}
}

// GetOrCreateChat returns the chat between userID and the user named
// otherUsername, creating it on first contact.
func (s *ChatService) GetOrCreateChat(ctx context.Context, userID uint, otherUsername string) (*models.Chat, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "GetOrCreateChat",
		attribute.Int64("user.id", int64(userID)),
	)
	defer span.End()

	other, err := s.userRepo.GetByUsername(ctx, otherUsername)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	chat, err := s.GetOrCreateChatBetween(ctx, userID, other.ID)
	span.SetError(err)
	return chat, err
}

// GetOrCreateChatBetween is GetOrCreateChat keyed by user IDs. Argument order
// does not matter, and concurrent callers for the same pair get the same chat.
func (s *ChatService) GetOrCreateChatBetween(ctx context.Context, a, b uint) (*models.Chat, error) {
	if a == b {
		return nil, models.NewValidationError("Cannot start a chat with yourself")
	}
	chat, created, err := s.chatRepo.GetOrCreate(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if created {
		observability.ChatsCreated.Inc()
	}
	return chat, nil
}

// SendMessage appends a message to a chat and pushes it to the other participant.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "SendMessage",
		attribute.Int64("chat.id", int64(in.ChatID)),
		attribute.Int64("user.id", int64(in.UserID)),
	)
	defer span.End()

	chat, err := s.chatRepo.GetByID(ctx, in.ChatID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !chat.HasParticipant(in.UserID) {
		err := models.NewUnauthorizedError("You are not a participant in this chat")
		span.SetError(err)
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		err := models.NewValidationError("Message content is required")
		span.SetError(err)
		return nil, err
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		err := models.NewValidationError("Message is too long")
		span.SetError(err)
		return nil, err
	}

	msg := &models.Message{ChatID: chat.ID, AuthorID: in.UserID, Content: content}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		span.SetError(err)
		return nil, err
	}
	observability.MessagesSent.Inc()

	author, err := s.userRepo.GetSummary(ctx, in.UserID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	msg.Author = &models.User{ID: author.ID, Username: author.Username, Avatar: author.Avatar}

	s.pusher.Push(ctx, chat.OtherParticipant(in.UserID), notifications.Event{
		Type:    notifications.EventMessage,
		Payload: msg.Event(),
	})
	return msg, nil
}

// ListUserChats returns every chat of userID, most recent activity first.
func (s *ChatService) ListUserChats(ctx context.Context, userID uint) ([]models.ChatSummary, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "ListUserChats")
	defer span.End()

	chats, err := s.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	out := make([]models.ChatSummary, 0, len(chats))
	for i := range chats {
		out = append(out, chats[i].Summary())
	}
	return out, nil
}

// GetMessages returns a page of a chat's messages in chronological order.
// Offset 0 is the newest page.
func (s *ChatService) GetMessages(ctx context.Context, userID, chatID uint, limit, offset int) ([]models.Message, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "GetMessages",
		attribute.Int64("chat.id", int64(chatID)),
	)
	defer span.End()

	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		err := models.NewUnauthorizedError("You are not a participant in this chat")
		span.SetError(err)
		return nil, err
	}
	msgs, err := s.chatRepo.GetMessages(ctx, chatID, limit, offset)
	span.SetError(err)
	return msgs, err
}
