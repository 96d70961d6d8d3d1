package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"pixelgram/internal/cache"
	"pixelgram/internal/database"
	"pixelgram/internal/models"
	"pixelgram/internal/notifications"
	"pixelgram/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.RunMigrations(context.Background(), db))
	return db
}

type pushed struct {
	UserID uint
	Event  notifications.Event
}

// recordingPusher captures pushes. online decides what Push reports.
type recordingPusher struct {
	mu     sync.Mutex
	events []pushed
	online map[uint]bool
}

func (p *recordingPusher) Push(_ context.Context, userID uint, ev notifications.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{UserID: userID, Event: ev})
	return p.online[userID]
}

func (p *recordingPusher) to(userID uint) []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifications.Event
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}

func (p *recordingPusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	db       *gorm.DB
	pusher   *recordingPusher
	users    repository.UserRepository
	follows  repository.FollowRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	notifs   repository.NotificationRepository
	chats    repository.ChatRepository
	searches repository.RecentSearchRepository

	notify *NotificationService
	social *SocialService
	chat   *ChatService
	feed   *FeedService
	post   *PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	e := &testEnv{
		db:       db,
		pusher:   &recordingPusher{online: map[uint]bool{}},
		users:    repository.NewUserRepository(db, nil),
		follows:  repository.NewFollowRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		likes:    repository.NewLikeRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		chats:    repository.NewChatRepository(db),
		searches: repository.NewRecentSearchRepository(db, 5),
	}
	e.notify = NewNotificationService(e.notifs, e.users, e.pusher)
	e.social = NewSocialService(e.users, e.follows, e.posts, e.comments, e.likes, e.notify, cache.NewStore(nil))
	e.chat = NewChatService(e.chats, e.users, e.pusher)
	e.feed = NewFeedService(e.follows, e.posts, 0)
	e.post = NewPostService(e.posts, e.comments, e.users)
	return e
}

var userSeq atomic.Int64

func (e *testEnv) user(t *testing.T) *models.User {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("member%d", n),
		Email:    fmt.Sprintf("member%d@example.com", n),
		Password: "hash",
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) newPost(t *testing.T, authorID uint) *models.Post {
	t.Helper()
	p, err := e.post.CreatePost(context.Background(), CreatePostInput{UserID: authorID, Content: "a photo"})
	require.NoError(t, err)
	return p
}

func (e *testEnv) inbox(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	list, err := e.notify.ListInbox(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return list
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}
