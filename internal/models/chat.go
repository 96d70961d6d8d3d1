package models

import (
	"strconv"
	"time"
)

// Chat is the single direct-message thread between two users.
// ParticipantAID is always the smaller user ID; PairKey is "<min>-<max>" and
// carries the uniqueness constraint that makes creation exactly-once.
type Chat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PairKey        string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ParticipantAID uint      `gorm:"not null;index" json:"participant_a_id"`
	ParticipantBID uint      `gorm:"not null;index" json:"participant_b_id"`
	ParticipantA   User      `gorm:"foreignKey:ParticipantAID" json:"participant_a"`
	ParticipantB   User      `gorm:"foreignKey:ParticipantBID" json:"participant_b"`
	LastMessageID  *uint     `json:"last_message_id"`
	LastMessage    *Message  `gorm:"-" json:"last_message,omitempty"`
	Messages       []Message `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is an immutable chat message.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index:idx_messages_chat_created,priority:1" json:"chat_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2" json:"created_at"`
}

// OrderedPair returns a and b with the smaller ID first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// ChatPairKey is the canonical key of the unordered pair {a, b}.
func ChatPairKey(a, b uint) string {
	lo, hi := OrderedPair(a, b)
	return strconv.FormatUint(uint64(lo), 10) + "-" + strconv.FormatUint(uint64(hi), 10)
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.ParticipantAID == userID || c.ParticipantBID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID uint) uint {
	if c.ParticipantAID == userID {
		return c.ParticipantBID
	}
	return c.ParticipantAID
}

// MessageIDs returns the IDs of the loaded history in order.
func (c *Chat) MessageIDs() []uint {
	ids := make([]uint, 0, len(c.Messages))
	for _, m := range c.Messages {
		ids = append(ids, m.ID)
	}
	return ids
}

// MessageEvent is the payload of a live "message" push.
type MessageEvent struct {
	ID        uint        `json:"id"`
	ChatID    uint        `json:"chat_id"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Event builds the push payload for m. Author must be loaded.
func (m *Message) Event() MessageEvent {
	return MessageEvent{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Author:    m.Author.Summary(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// ChatSummary is one row of a user's inbox.
type ChatSummary struct {
	ID           uint          `json:"id"`
	Participants []UserSummary `json:"participants"`
	LastMessage  *MessageEvent `json:"last_message,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Summary builds the inbox row for c. Participants and LastMessage must be loaded.
func (c *Chat) Summary() ChatSummary {
	s := ChatSummary{
		ID:           c.ID,
		Participants: []UserSummary{c.ParticipantA.Summary(), c.ParticipantB.Summary()},
		UpdatedAt:    c.UpdatedAt,
	}
	if c.LastMessage != nil {
		ev := c.LastMessage.Event()
		s.LastMessage = &ev
	}
	return s
}
