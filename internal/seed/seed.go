package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"pixelgram/internal/cache"
	"pixelgram/internal/middleware"
	"pixelgram/internal/models"
	"pixelgram/internal/repository"
	"pixelgram/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Scenario describes how much demo data to create. It is usually read from
// a YAML file; zero fields fall back to DefaultScenario.
type Scenario struct {
	Seed            int64    `yaml:"seed"`
	Users           int      `yaml:"users"`
	Accounts        []string `yaml:"accounts"`
	FollowsPerUser  int      `yaml:"follows_per_user"`
	PostsPerUser    int      `yaml:"posts_per_user"`
	MaxPhotos       int      `yaml:"max_photos"`
	LikeChance      float64  `yaml:"like_chance"`
	CommentChance   float64  `yaml:"comment_chance"`
	Chats           int      `yaml:"chats"`
	MessagesPerChat int      `yaml:"messages_per_chat"`
}

// DefaultScenario is a small, lively network.
var DefaultScenario = Scenario{
	Users:           30,
	Accounts:        []string{"demo", "alice", "bob"},
	FollowsPerUser:  8,
	PostsPerUser:    4,
	MaxPhotos:       3,
	LikeChance:      0.3,
	CommentChance:   0.1,
	Chats:           10,
	MessagesPerChat: 6,
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return sc.withDefaults(), nil
}

func (sc Scenario) withDefaults() Scenario {
	d := DefaultScenario
	if sc.Users <= 0 {
		sc.Users = d.Users
	}
	if sc.Accounts == nil {
		sc.Accounts = d.Accounts
	}
	if sc.FollowsPerUser < 0 {
		sc.FollowsPerUser = 0
	}
	if sc.PostsPerUser <= 0 {
		sc.PostsPerUser = d.PostsPerUser
	}
	if sc.MaxPhotos <= 0 {
		sc.MaxPhotos = d.MaxPhotos
	}
	if sc.MaxPhotos > 10 {
		sc.MaxPhotos = 10
	}
	return sc
}

// Report counts what a run created.
type Report struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Chats    int
	Messages int
}

// Seeder drives the services to populate a database.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	social  *service.SocialService
	posts   *service.PostService
	chats   *service.ChatService
	factory *Factory
	log     *slog.Logger
}

// NewSeeder wires a Seeder without live delivery; notifications are stored
// but nothing is pushed.
func NewSeeder(db *gorm.DB) *Seeder {
	store := cache.NewStore(nil)
	userRepo := repository.NewUserRepository(db, store)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notifier := service.NewNotificationService(repository.NewNotificationRepository(db), userRepo, nil)
	return &Seeder{
		db:    db,
		users: userRepo,
		social: service.NewSocialService(userRepo, repository.NewFollowRepository(db), postRepo,
			commentRepo, repository.NewLikeRepository(db), notifier, store),
		posts: service.NewPostService(postRepo, commentRepo, userRepo),
		chats: service.NewChatService(repository.NewChatRepository(db), userRepo, nil),
		log:   middleware.Logger.With(slog.String("component", "seed")),
	}
}

// ClearAll removes every row the seeder can create. Children go first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.Message{}, &models.Chat{}, &models.Notification{}, &models.Like{},
		&models.Comment{}, &models.Post{}, &models.Follow{}, &models.RecentSearch{}, &models.User{},
	}
	for _, t := range tables {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	s.log.Info("database cleared")
	return nil
}

// Run creates the scenario and reports what was written.
func (s *Seeder) Run(ctx context.Context, sc Scenario) (*Report, error) {
	sc = sc.withDefaults()
	s.factory = NewFactory(s.users, sc.Seed)
	rep := &Report{}

	users, err := s.seedUsers(ctx, sc)
	if err != nil {
		return rep, err
	}
	rep.Users = len(users)

	if rep.Follows, err = s.seedFollows(ctx, sc, users); err != nil {
		return rep, err
	}

	var posts []*models.Post
	for i := range users {
		for j := 0; j < sc.PostsPerUser; j++ {
			p, err := s.posts.CreatePost(ctx, service.CreatePostInput{
				UserID:  users[i].ID,
				Content: s.factory.BuildCaption(),
				Photos:  s.factory.BuildPhotos(sc.MaxPhotos),
			})
			if err != nil {
				return rep, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	rep.Posts = len(posts)

	if err := s.seedEngagement(ctx, sc, users, posts, rep); err != nil {
		return rep, err
	}
	if err := s.seedChats(ctx, sc, users, rep); err != nil {
		return rep, err
	}

	s.log.Info("seed complete",
		slog.Int("users", rep.Users),
		slog.Int("follows", rep.Follows),
		slog.Int("posts", rep.Posts),
		slog.Int("likes", rep.Likes),
		slog.Int("comments", rep.Comments),
		slog.Int("chats", rep.Chats),
		slog.Int("messages", rep.Messages),
	)
	return rep, nil
}

func (s *Seeder) seedUsers(ctx context.Context, sc Scenario) ([]*models.User, error) {
	users := make([]*models.User, 0, sc.Users+len(sc.Accounts))
	for _, name := range sc.Accounts {
		u, err := s.factory.CreateUser(ctx, func(u *models.User) {
			u.Username = name
			u.Email = name + "@example.com"
		})
		if err != nil {
			return nil, fmt.Errorf("create account %s: %w", name, err)
		}
		users = append(users, u)
	}
	for len(users) < sc.Users+len(sc.Accounts) {
		u, err := s.factory.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, sc Scenario, users []*models.User) (int, error) {
	n := sc.FollowsPerUser
	if n > len(users)-1 {
		n = len(users) - 1
	}
	count := 0
	for i, u := range users {
		for _, j := range s.factory.Pick(len(users), n, i) {
			_, err := s.social.Follow(ctx, u.ID, users[j].Username)
			if err != nil {
				return count, fmt.Errorf("follow: %w", err)
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, sc Scenario, users []*models.User, posts []*models.Post, rep *Report) error {
	for _, p := range posts {
		for _, u := range users {
			if u.ID == p.UserID {
				continue
			}
			if s.factory.Chance(sc.LikeChance) {
				if _, err := s.social.Like(ctx, u.ID, models.PostTarget(p.ID)); err != nil {
					return fmt.Errorf("like post %d: %w", p.ID, err)
				}
				rep.Likes++
			}
			if s.factory.Chance(sc.CommentChance) {
				if _, err := s.social.AddComment(ctx, u.ID, p.ID, s.factory.BuildComment()); err != nil {
					return fmt.Errorf("comment on post %d: %w", p.ID, err)
				}
				rep.Comments++
			}
		}
	}
	return nil
}

func (s *Seeder) seedChats(ctx context.Context, sc Scenario, users []*models.User, rep *Report) error {
	if len(users) < 2 {
		return nil
	}
	seen := make(map[uint]struct{}, sc.Chats)
	for i := 0; i < sc.Chats; i++ {
		pair := s.factory.Pick(len(users), 2, -1)
		a, b := users[pair[0]], users[pair[1]]
		chat, err := s.chats.GetOrCreateChatBetween(ctx, a.ID, b.ID)
		if err != nil {
			return fmt.Errorf("open chat: %w", err)
		}
		if _, ok := seen[chat.ID]; !ok {
			seen[chat.ID] = struct{}{}
			rep.Chats++
		}
		for m := 0; m < sc.MessagesPerChat; m++ {
			author := a
			if m%2 == 1 {
				author = b
			}
			_, err := s.chats.SendMessage(ctx, service.SendMessageInput{
				UserID: author.ID, ChatID: chat.ID, Content: s.factory.BuildMessage(),
			})
			if err != nil {
				return fmt.Errorf("send message: %w", err)
			}
			rep.Messages++
		}
	}
	return nil
}
