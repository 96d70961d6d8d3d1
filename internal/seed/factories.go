// Package seed provides helpers to create demo data for development.
// Entities go through the same services the API uses, so counters and
// inbox rows stay consistent with what a real client would produce.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pixelgram/internal/models"
	"pixelgram/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is set on every seeded account.
const DefaultPassword = "password123"

// Factory builds users and post content. Users are written through the
// repository; everything else is left to the services.
type Factory struct {
	users repository.UserRepository
	rng   *rand.Rand
	hash  string
	// hashed lazily; bcrypt is slow and the same hash serves every account
	hashed bool
	seq    int
}

// NewFactory returns a Factory. A zero seed picks a time-based one.
func NewFactory(users repository.UserRepository, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // weak randomness is fine for demo data
	return &Factory{users: users, rng: rand.New(rand.NewSource(seed))}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed {
		return f.hash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	f.hash, f.hashed = string(h), true
	return f.hash, nil
}

// BuildUsername returns a fresh username that fits the 3-30 character rule.
func (f *Factory) BuildUsername() string {
	f.seq++
	base := strings.ToLower(gofakeit.Username())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, base)
	if len(base) > 20 {
		base = base[:20]
	}
	if len(base) < 3 {
		base = "user"
	}
	return fmt.Sprintf("%s_%d", base, f.seq)
}

// CreateUser persists a sample user. Overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	username := f.BuildUsername()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Bio:      gofakeit.Sentence(8),
		Avatar:   "https://i.pravatar.cc/150?u=" + gofakeit.UUID(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildCaption returns a short post caption with a couple of hashtags.
func (f *Factory) BuildCaption() string {
	return fmt.Sprintf("%s #%s #%s", gofakeit.Sentence(f.rng.Intn(10)+3),
		strings.ToLower(gofakeit.Color()), strings.ToLower(gofakeit.Animal()))
}

// BuildPhotos returns between 1 and max picsum URLs.
func (f *Factory) BuildPhotos(max int) []string {
	if max <= 0 {
		return nil
	}
	n := f.rng.Intn(max) + 1
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.UUID()))
	}
	return out
}

// BuildComment returns a one-line comment.
func (f *Factory) BuildComment() string {
	return gofakeit.Phrase()
}

// BuildMessage returns a chat line.
func (f *Factory) BuildMessage() string {
	return gofakeit.Sentence(f.rng.Intn(12) + 2)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.rng.Float64() < p
}

// Pick returns n distinct indexes from [0, size), excluding skip.
func (f *Factory) Pick(size, n, skip int) []int {
	perm := f.rng.Perm(size)
	out := make([]int, 0, n)
	for _, i := range perm {
		if len(out) == n {
			break
		}
		if i != skip {
			out = append(out, i)
		}
	}
	return out
}
