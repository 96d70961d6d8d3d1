package repository

import (
	"context"
	"time"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// historyPreload bounds the history embedded in a chat returned by GetOrCreate.
const historyPreload = 50

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	GetOrCreate(ctx context.Context, userA, userB uint) (*models.Chat, bool, error)
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Chat, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error)
}

type chatRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, log: observability.NewRepoLogger("chats")}
}

// GetOrCreate returns the chat of the unordered pair {userA, userB}, inserting
// it if absent. The insert is ON CONFLICT DO NOTHING on pair_key followed by a
// read, so concurrent callers all observe the same row. The bool reports
// whether this call created it.
func (r *chatRepository) GetOrCreate(ctx context.Context, userA, userB uint) (*models.Chat, bool, error) {
	lo, hi := models.OrderedPair(userA, userB)
	key := models.ChatPairKey(lo, hi)

	candidate := models.Chat{PairKey: key, ParticipantAID: lo, ParticipantBID: hi}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Create(&candidate)
	if result.Error != nil {
		return nil, false, internalError(ctx, r.log, result.Error, "get_or_create")
	}

	var chat models.Chat
	if err := r.withParticipants(ctx).Where("pair_key = ?", key).First(&chat).Error; err != nil {
		return nil, false, lookupError(ctx, r.log, err, "Chat", key)
	}
	if err := r.loadHistory(ctx, &chat); err != nil {
		return nil, false, err
	}
	return &chat, result.RowsAffected == 1, nil
}

// GetByID returns the chat with participants and its last message.
func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := r.withParticipants(ctx).First(&chat, id).Error; err != nil {
		return nil, lookupError(ctx, r.log, err, "Chat", id)
	}
	chats := []models.Chat{chat}
	if err := r.attachLastMessages(ctx, chats); err != nil {
		return nil, err
	}
	return &chats[0], nil
}

// ListForUser returns every chat of userID, most recent last message first.
// Chats without messages follow, newest first.
func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.withParticipants(ctx).
		Joins("LEFT JOIN messages lm ON lm.id = chats.last_message_id").
		Where("chats.participant_a_id = ? OR chats.participant_b_id = ?", userID, userID).
		Order("CASE WHEN lm.id IS NULL THEN 1 ELSE 0 END, lm.created_at DESC, lm.id DESC, chats.created_at DESC, chats.id DESC").
		Find(&chats).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list_for_user")
	}
	if err := r.attachLastMessages(ctx, chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// AppendMessage inserts msg and points the chat's last_message_id at it in
// one transaction.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]interface{}{"last_message_id": msg.ID, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Chat", msg.ChatID)
		}
		return nil
	})
	if err != nil {
		return internalError(ctx, r.log, err, "append_message")
	}
	return nil
}

// GetMessages returns one page of history in chronological order. Offset 0
// is the most recent page.
func (r *chatRepository) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, historyPreload, 100)).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "get_messages")
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepository) withParticipants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("ParticipantA").
		Preload("ParticipantB")
}

func (r *chatRepository) loadHistory(ctx context.Context, chat *models.Chat) error {
	messages, err := r.GetMessages(ctx, chat.ID, historyPreload, 0)
	if err != nil {
		return err
	}
	chat.Messages = messages
	if n := len(messages); n > 0 {
		chat.LastMessage = &messages[n-1]
	}
	return nil
}

func (r *chatRepository) attachLastMessages(ctx context.Context, chats []models.Chat) error {
	ids := make([]uint, 0, len(chats))
	for _, c := range chats {
		if c.LastMessageID != nil {
			ids = append(ids, *c.LastMessageID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var messages []models.Message
	if err := r.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids).Find(&messages).Error; err != nil {
		return internalError(ctx, r.log, err, "last_messages")
	}
	byID := make(map[uint]*models.Message, len(messages))
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
	}
	for i := range chats {
		if chats[i].LastMessageID != nil {
			chats[i].LastMessage = byID[*chats[i].LastMessageID]
		}
	}
	return nil
}
