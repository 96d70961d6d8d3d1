package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"
	"pixelgram/internal/validation"
)

const (
	MaxBioLength     = 150
	MaxWebsiteLength = 120
	maxAvatarLength  = 2048
)

// UserService provides profile, search and relationship listings.
type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	searches   repository.RecentSearchRepository
	social     *SocialService
	inbox      *NotificationService
	presence   PresenceChecker
	lastSeen   LastSeenReader
}

// Profile is the public view of a user.
type Profile struct {
	models.UserSummary
	Bio            string     `json:"bio"`
	Website        string     `json:"website"`
	FollowersCount int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	Following      bool       `json:"following"`
	Online         bool       `json:"online"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SelfProfile is the authenticated user's own view.
type SelfProfile struct {
	models.UserSummary
	Email          string                     `json:"email"`
	Bio            string                     `json:"bio"`
	Website        string                     `json:"website"`
	FollowersCount int64                      `json:"followers_count"`
	FollowingCount int64                      `json:"following_count"`
	Followers      []models.UserSummary       `json:"followers"`
	Following      []models.UserSummary       `json:"following"`
	Notifications  []models.NotificationEvent `json:"notifications"`
	RecentSearches []models.UserSummary       `json:"recent_searches"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// UpdateProfileInput carries the fields to change. Nil fields are kept; an
// empty Bio or Website clears it.
type UpdateProfileInput struct {
	Username *string
	Bio      *string
	Website  *string
	Avatar   *string
}

// NewUserService returns a new UserService. presence and lastSeen may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	searches repository.RecentSearchRepository,
	social *SocialService,
	inbox *NotificationService,
	presence PresenceChecker,
	lastSeen LastSeenReader,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		searches:   searches,
		social:     social,
		inbox:      inbox,
		presence:   presence,
		lastSeen:   lastSeen,
	}
}

// GetProfile returns the public profile of username as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, viewerID uint, username string) (*Profile, error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "GetProfile")
	defer span.End()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	followers, following, err := s.social.Counts(ctx, user.ID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	p := &Profile{
		UserSummary:    user.Summary(),
		Bio:            user.Bio,
		Website:        user.Website,
		FollowersCount: followers,
		FollowingCount: following,
		CreatedAt:      user.CreatedAt,
	}
	if viewerID != 0 && viewerID != user.ID {
		if p.Following, err = s.followRepo.Exists(ctx, viewerID, user.ID); err != nil {
			span.SetError(err)
			return nil, err
		}
	}
	if s.presence != nil {
		p.Online = s.presence.IsOnline(ctx, user.ID)
	}
	if s.lastSeen != nil {
		if t, ok := s.lastSeen.LastSeen(ctx, user.ID); ok {
			p.LastSeen = &t
		}
	}
	return p, nil
}

// GetSelf returns the own profile of userID with its newest notifications and
// follower/following summaries.
func (s *UserService) GetSelf(ctx context.Context, userID uint) (*SelfProfile, error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "GetSelf")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	followersCount, followingCount, err := s.social.Counts(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	followers, err := s.followRepo.ListFollowers(ctx, userID, 0, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	following, err := s.followRepo.ListFollowing(ctx, userID, 0, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	recent, err := s.inbox.ListInbox(ctx, userID, inboxPreviewSize, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	searched, err := s.searches.List(ctx, userID, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	events := make([]models.NotificationEvent, 0, len(recent))
	for i := range recent {
		events = append(events, recent[i].Event())
	}
	return &SelfProfile{
		UserSummary:    user.Summary(),
		Email:          user.Email,
		Bio:            user.Bio,
		Website:        user.Website,
		FollowersCount: followersCount,
		FollowingCount: followingCount,
		Followers:      models.Summaries(followers),
		Following:      models.Summaries(following),
		Notifications:  events,
		RecentSearches: models.Summaries(searched),
		CreatedAt:      user.CreatedAt,
	}, nil
}

// UpdateProfile edits the own profile of userID and returns it.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*SelfProfile, error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateProfile")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var changes repository.ProfileChanges
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name != user.Username {
			if err := validation.ValidateUsername(name); err != nil {
				verr := models.NewValidationError(err.Error())
				span.SetError(verr)
				return nil, verr
			}
			changes.Username = &name
		}
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > MaxBioLength {
			verr := models.NewValidationError("Bio is too long")
			span.SetError(verr)
			return nil, verr
		}
		changes.Bio = &bio
	}
	if in.Website != nil {
		site := strings.TrimSpace(*in.Website)
		if err := checkURL(site, MaxWebsiteLength, true); err != nil {
			span.SetError(err)
			return nil, err
		}
		changes.Website = &site
	}
	if in.Avatar != nil {
		avatar := strings.TrimSpace(*in.Avatar)
		if err := checkURL(avatar, maxAvatarLength, false); err != nil {
			span.SetError(err)
			return nil, err
		}
		changes.Avatar = &avatar
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, changes); err != nil {
		span.SetError(err)
		return nil, err
	}
	return s.GetSelf(ctx, userID)
}

func checkURL(raw string, max int, allowEmpty bool) error {
	if raw == "" {
		if allowEmpty {
			return nil
		}
		return models.NewValidationError("URL is required")
	}
	if len(raw) > max {
		return models.NewValidationError("URL is too long")
	}
	if err := validation.Validator().Var(raw, "url"); err != nil {
		return models.NewValidationError("Invalid URL")
	}
	return nil
}

// AddRecentSearch records that userID opened the profile of username from a
// search. Repeats move the entry to the front.
func (s *UserService) AddRecentSearch(ctx context.Context, userID uint, username string) error {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "AddRecentSearch")
	defer span.End()

	target, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		span.SetError(err)
		return err
	}
	if target.ID == userID {
		err := models.NewValidationError("You cannot add yourself to recent searches")
		span.SetError(err)
		return err
	}
	err = s.searches.Record(ctx, userID, target.ID)
	span.SetError(err)
	return err
}

// RecentSearches returns the users userID searched for, most recent first.
func (s *UserService) RecentSearches(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.searches.List(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

// ClearRecentSearches empties the search history of userID.
func (s *UserService) ClearRecentSearches(ctx context.Context, userID uint) error {
	return s.searches.Clear(ctx, userID)
}

// Search returns summaries of users whose username starts with prefix.
func (s *UserService) Search(ctx context.Context, prefix string, limit int) ([]models.UserSummary, error) {
	if prefix == "" {
		return []models.UserSummary{}, nil
	}
	users, err := s.userRepo.Search(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

// Followers returns summaries of the users following username.
func (s *UserService) Followers(ctx context.Context, username string, limit, offset int) ([]models.UserSummary, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowers(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}

// Following returns summaries of the users username follows.
func (s *UserService) Following(ctx context.Context, username string, limit, offset int) ([]models.UserSummary, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowing(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	return models.Summaries(users), nil
}
