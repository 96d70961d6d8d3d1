// Package service provides application business logic (social graph, feed, chat, notifications).
package service

import (
	"context"
	"time"

	"pixelgram/internal/notifications"
)

// Pusher delivers a live event to every channel of a user. It reports whether
// any local channel accepted the frame. *notifications.Dispatcher implements it.
type Pusher interface {
	Push(ctx context.Context, userID uint, ev notifications.Event) bool
}

// PresenceChecker answers whether a user currently has a live channel.
// *notifications.Registry and *notifications.Presence implement it.
type PresenceChecker interface {
	IsOnline(ctx context.Context, userID uint) bool
}

// LastSeenReader exposes the last activity mark of a user.
// *notifications.Presence implements it.
type LastSeenReader interface {
	LastSeen(ctx context.Context, userID uint) (time.Time, bool)
}

type nopPusher struct{}

func (nopPusher) Push(context.Context, uint, notifications.Event) bool { return false }

func pusherOrNop(p Pusher) Pusher {
	if p == nil {
		return nopPusher{}
	}
	return p
}
