package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatPairKey_Unordered(t *testing.T) {
	assert.Equal(t, "3-7", ChatPairKey(3, 7))
	assert.Equal(t, ChatPairKey(3, 7), ChatPairKey(7, 3))

	lo, hi := OrderedPair(9, 2)
	assert.Equal(t, uint(2), lo)
	assert.Equal(t, uint(9), hi)
}

func TestChatParticipants(t *testing.T) {
	c := &Chat{ParticipantAID: 1, ParticipantBID: 4}
	assert.True(t, c.HasParticipant(1))
	assert.True(t, c.HasParticipant(4))
	assert.False(t, c.HasParticipant(2))
	assert.Equal(t, uint(4), c.OtherParticipant(1))
	assert.Equal(t, uint(1), c.OtherParticipant(4))
}

func TestChatSummary(t *testing.T) {
	at := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	alice := User{ID: 1, Username: "alice", Avatar: "a.png"}
	bob := User{ID: 2, Username: "bob", Avatar: "b.png"}

	c := &Chat{ID: 10, ParticipantAID: 1, ParticipantBID: 2, ParticipantA: alice, ParticipantB: bob, UpdatedAt: at}
	s := c.Summary()
	assert.Nil(t, s.LastMessage)
	assert.Equal(t, []UserSummary{alice.Summary(), bob.Summary()}, s.Participants)

	c.LastMessage = &Message{ID: 5, ChatID: 10, AuthorID: 2, Author: &bob, Content: "hey", CreatedAt: at}
	s = c.Summary()
	require.NotNil(t, s.LastMessage)
	assert.Equal(t, MessageEvent{ID: 5, ChatID: 10, Author: bob.Summary(), Content: "hey", CreatedAt: at}, *s.LastMessage)
}

func TestUserSummary_NilSafe(t *testing.T) {
	var u *User
	assert.Equal(t, UserSummary{}, u.Summary())

	// Message without a loaded author still builds an event.
	m := &Message{ID: 1, Content: "x"}
	assert.Equal(t, UserSummary{}, m.Event().Author)
}

func TestNotificationEvent_Subject(t *testing.T) {
	postID, commentID := uint(3), uint(8)
	actor := User{ID: 2, Username: "bob"}

	followed := &Notification{ID: 1, Kind: NotificationFollowed, Actor: actor}
	assert.Nil(t, followed.Event().Subject)

	commented := &Notification{ID: 2, Kind: NotificationCommentedOnPost, Actor: actor,
		SubjectPostID: &postID, SubjectCommentID: &commentID}
	ev := commented.Event()
	require.NotNil(t, ev.Subject)
	assert.Equal(t, postID, *ev.Subject.PostID)
	assert.Equal(t, commentID, *ev.Subject.CommentID)
	assert.Equal(t, "bob", ev.Actor.Username)

	assert.True(t, NotificationLikedComment.Valid())
	assert.False(t, NotificationKind("poked").Valid())
}

func TestLikeTargetKind(t *testing.T) {
	assert.True(t, LikeTargetPost.Valid())
	assert.True(t, LikeTargetComment.Valid())
	assert.False(t, LikeTargetKind("story").Valid())

	l := &Like{TargetKind: LikeTargetComment, TargetID: 6}
	assert.Equal(t, CommentTarget(6), l.Target())
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("load post: %w", NewNotFoundError("Post", 9))
	assert.Equal(t, CodeNotFound, ErrorCode(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))

	internal := NewInternalError(errors.New("disk full"))
	assert.Equal(t, CodeInternal, ErrorCode(internal))
	assert.ErrorContains(t, internal, "disk full")
}
