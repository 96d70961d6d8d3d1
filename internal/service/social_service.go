package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"pixelgram/internal/cache"
	"pixelgram/internal/models"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MaxCommentLength is the longest comment accepted, in characters.
const MaxCommentLength = 2200

// SocialService implements follow, like and comment, each of which may notify
// the user acted upon.
type SocialService struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	likeRepo    repository.LikeRepository
	notifier    *NotificationService
	cache       *cache.Store
}

// NewSocialService returns a new SocialService. store may be nil.
func NewSocialService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	likeRepo repository.LikeRepository,
	notifier *NotificationService,
	store *cache.Store,
) *SocialService {
	return &SocialService{
		userRepo:    userRepo,
		followRepo:  followRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		notifier:    notifier,
		cache:       store,
	}
}

type relationshipCounts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Counts returns follower and following counts for userID, cached briefly.
func (s *SocialService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	var counts relationshipCounts
	err = s.cache.CacheAside(ctx, cache.RelationshipKey(userID), &counts, cache.RelationshipTTL, func() error {
		f, g, err := s.followRepo.Counts(ctx, userID)
		if err != nil {
			return err
		}
		counts = relationshipCounts{Followers: f, Following: g}
		return nil
	})
	return counts.Followers, counts.Following, err
}

// Follow makes actorID follow the user named targetUsername and notifies them.
func (s *SocialService) Follow(ctx context.Context, actorID uint, targetUsername string) (*models.RelationshipSummary, error) {
	ctx, span := observability.StartServiceSpan(ctx, "SocialService", "Follow",
		attribute.Int64("user.id", int64(actorID)),
	)
	defer span.End()

	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if target.ID == actorID {
		err := models.NewValidationError("You cannot follow yourself")
		span.SetError(err)
		return nil, err
	}
	if err := s.followRepo.Create(ctx, actorID, target.ID); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.RelationshipKey(actorID), cache.RelationshipKey(target.ID))

	s.notifier.notifyQuietly(ctx, actorID, target.ID, models.NotificationFollowed, models.NotificationSubject{})

	return s.relationship(ctx, target, true)
}

// Unfollow removes the edge actorID -> targetUsername. It never notifies.
func (s *SocialService) Unfollow(ctx context.Context, actorID uint, targetUsername string) (*models.RelationshipSummary, error) {
	ctx, span := observability.StartServiceSpan(ctx, "SocialService", "Unfollow",
		attribute.Int64("user.id", int64(actorID)),
	)
	defer span.End()

	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if target.ID == actorID {
		err := models.NewValidationError("You cannot unfollow yourself")
		span.SetError(err)
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, actorID, target.ID); err != nil {
		span.SetError(err)
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.RelationshipKey(actorID), cache.RelationshipKey(target.ID))

	return s.relationship(ctx, target, false)
}

func (s *SocialService) relationship(ctx context.Context, target *models.User, following bool) (*models.RelationshipSummary, error) {
	followers, followingCount, err := s.Counts(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	return &models.RelationshipSummary{
		User:           target.Summary(),
		Following:      following,
		FollowersCount: followers,
		FollowingCount: followingCount,
	}, nil
}

// Like records that userID likes target and notifies the target's author.
func (s *SocialService) Like(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error) {
	ctx, span := observability.StartServiceSpan(ctx, "SocialService", "Like",
		attribute.String("like.kind", string(target.Kind)),
		attribute.Int64("like.target_id", int64(target.ID)),
	)
	defer span.End()

	authorID, kind, subject, err := s.resolveTarget(ctx, target)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	like, err := s.likeRepo.Create(ctx, userID, target)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.notifier.notifyQuietly(ctx, userID, authorID, kind, subject)
	return like, nil
}

// Unlike removes userID's like from target. Earlier notifications stay.
func (s *SocialService) Unlike(ctx context.Context, userID uint, target models.LikeTarget) error {
	ctx, span := observability.StartServiceSpan(ctx, "SocialService", "Unlike",
		attribute.String("like.kind", string(target.Kind)),
		attribute.Int64("like.target_id", int64(target.ID)),
	)
	defer span.End()

	if !target.Kind.Valid() {
		err := models.NewValidationError("Unknown like target: " + string(target.Kind))
		span.SetError(err)
		return err
	}
	err := s.likeRepo.Delete(ctx, userID, target)
	span.SetError(err)
	return err
}

// resolveTarget finds the author of a like target and the notification it produces.
func (s *SocialService) resolveTarget(
	ctx context.Context,
	target models.LikeTarget,
) (uint, models.NotificationKind, models.NotificationSubject, error) {
	switch target.Kind {
	case models.LikeTargetPost:
		post, err := s.postRepo.GetByID(ctx, target.ID, 0)
		if err != nil {
			return 0, "", models.NotificationSubject{}, err
		}
		postID := post.ID
		return post.UserID, models.NotificationLikedPost, models.NotificationSubject{PostID: &postID}, nil
	case models.LikeTargetComment:
		comment, err := s.commentRepo.GetByID(ctx, target.ID)
		if err != nil {
			return 0, "", models.NotificationSubject{}, err
		}
		if _, err := s.postRepo.GetByID(ctx, comment.PostID, 0); err != nil {
			if models.IsNotFound(err) {
				err = models.NewNotFoundError("Comment", target.ID)
			}
			return 0, "", models.NotificationSubject{}, err
		}
		postID, commentID := comment.PostID, comment.ID
		return comment.UserID, models.NotificationLikedComment,
			models.NotificationSubject{PostID: &postID, CommentID: &commentID}, nil
	default:
		return 0, "", models.NotificationSubject{}, models.NewValidationError("Unknown like target: " + string(target.Kind))
	}
}

// AddComment appends a comment to postID and notifies the post's author.
func (s *SocialService) AddComment(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	ctx, span := observability.StartServiceSpan(ctx, "SocialService", "AddComment",
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		err := models.NewValidationError("Comment content is required")
		span.SetError(err)
		return nil, err
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		err := models.NewValidationError("Comment is too long")
		span.SetError(err)
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	comment := &models.Comment{UserID: userID, PostID: post.ID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		span.SetError(err)
		return nil, err
	}

	pid, cid := post.ID, comment.ID
	s.notifier.notifyQuietly(ctx, userID, post.UserID, models.NotificationCommentedOnPost,
		models.NotificationSubject{PostID: &pid, CommentID: &cid})
	return comment, nil
}
