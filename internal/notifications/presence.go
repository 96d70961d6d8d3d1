package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"pixelgram/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis layout of the presence mirror. ws:channels:<id> is a sorted set of
// instance IDs holding a channel for the user, scored by lease expiry.
const (
	OnlineUsersKey    = "ws:online_users"
	LastSeenKeyPrefix = "ws:last_seen:"
	ChannelsKeyPrefix = "ws:channels:"
)

// PresenceConfig tunes Presence. Zero values take the defaults below.
type PresenceConfig struct {
	// InstanceID names this process in the channel leases. Random if empty.
	InstanceID     string
	LastSeenTTL    time.Duration // 90s, also the channel lease
	OfflineGrace   time.Duration // 5s
	ReaperInterval time.Duration // 60s
	// OnOffline runs once per online->offline transition observed by this instance.
	OnOffline func(userID uint)
}

type userPresence struct {
	conns        int
	offlineTimer *time.Timer
	offlineSent  bool
}

// Presence answers "has this user at least one live channel". Local channel
// counts are authoritative for this instance and Redis mirrors them so other
// instances can answer too. The last channel closing starts a grace timer; a
// reconnect inside the grace keeps the user online without a flap.
type Presence struct {
	rdb *redis.Client
	cfg PresenceConfig

	mu    sync.Mutex
	users map[uint]*userPresence

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPresence returns a Presence. rdb may be nil for a single instance; the
// Redis reaper only runs when rdb is set.
func NewPresence(rdb *redis.Client, cfg PresenceConfig) *Presence {
	if cfg.LastSeenTTL <= 0 {
		cfg.LastSeenTTL = 90 * time.Second
	}
	if cfg.OfflineGrace <= 0 {
		cfg.OfflineGrace = 5 * time.Second
	}
	if cfg.ReaperInterval <= 0 {
		cfg.ReaperInterval = 60 * time.Second
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	p := &Presence{rdb: rdb, cfg: cfg, users: make(map[uint]*userPresence), stop: make(chan struct{})}
	if rdb != nil {
		go p.reap()
	}
	return p
}

func (p *Presence) state(userID uint) *userPresence {
	st, ok := p.users[userID]
	if !ok {
		st = &userPresence{}
		p.users[userID] = st
	}
	return st
}

// Connected records one more local channel for userID.
func (p *Presence) Connected(ctx context.Context, userID uint) {
	p.mu.Lock()
	st := p.state(userID)
	if st.offlineTimer != nil {
		st.offlineTimer.Stop()
		st.offlineTimer = nil
	}
	st.conns++
	st.offlineSent = false
	p.mu.Unlock()

	p.Touch(ctx, userID)
}

// Disconnected records one fewer local channel.
func (p *Presence) Disconnected(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.users[userID]
	if !ok || st.conns == 0 {
		return
	}
	st.conns--
	if st.conns > 0 {
		return
	}
	if st.offlineTimer != nil {
		st.offlineTimer.Stop()
	}
	st.offlineTimer = time.AfterFunc(p.cfg.OfflineGrace, func() { p.expire(userID) })
}

// Touch refreshes the last-seen mark in Redis and, while this instance
// holds a channel for userID, renews its lease.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	holding := p.localConns(userID) > 0
	now := time.Now()
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lastSeenKey(userID), now.Unix(), p.cfg.LastSeenTTL)
		if holding {
			pipe.SAdd(ctx, OnlineUsersKey, formatUserID(userID))
			pipe.ZAdd(ctx, channelsKey(userID), redis.Z{
				Score:  float64(now.Add(p.cfg.LastSeenTTL).UnixMilli()),
				Member: p.cfg.InstanceID,
			})
			pipe.Expire(ctx, channelsKey(userID), p.cfg.LastSeenTTL)
		}
		return nil
	})
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "presence update failed",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

// IsOnline reports whether userID has a channel here or a live lease from
// another instance. A user whose instance died stays online until its lease
// runs out.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	if p.localConns(userID) > 0 {
		return true
	}
	if p.rdb == nil {
		return false
	}
	return p.liveLeases(ctx, userID) > 0
}

// liveLeases counts instances whose lease on userID has not run out. Errors
// count as zero.
func (p *Presence) liveLeases(ctx context.Context, userID uint) int64 {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	n, err := p.rdb.ZCount(ctx, channelsKey(userID), "("+now, "+inf").Result()
	if err != nil {
		return 0
	}
	return n
}

// LastSeen returns the last activity time recorded in Redis.
func (p *Presence) LastSeen(ctx context.Context, userID uint) (time.Time, bool) {
	if p.rdb == nil {
		return time.Time{}, false
	}
	unix, err := p.rdb.Get(ctx, lastSeenKey(userID)).Int64()
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}

// Stop ends the reaper and drops pending grace timers.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.mu.Lock()
		for _, st := range p.users {
			if st.offlineTimer != nil {
				st.offlineTimer.Stop()
				st.offlineTimer = nil
			}
		}
		p.mu.Unlock()
	})
}

func (p *Presence) localConns(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.users[userID]; ok {
		return st.conns
	}
	return 0
}

// expire runs when the grace period ends with no local channel.
func (p *Presence) expire(userID uint) {
	p.mu.Lock()
	st, ok := p.users[userID]
	if !ok || st.conns > 0 {
		p.mu.Unlock()
		return
	}
	st.offlineTimer = nil
	p.mu.Unlock()

	if p.rdb != nil {
		ctx := context.Background()
		key := channelsKey(userID)
		now := strconv.FormatInt(time.Now().UnixMilli(), 10)
		_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZRem(ctx, key, p.cfg.InstanceID)
			pipe.ZRemRangeByScore(ctx, key, "-inf", now)
			pipe.Set(ctx, lastSeenKey(userID), time.Now().Unix(), p.cfg.LastSeenTTL)
			return nil
		})
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "presence release failed",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
		if p.liveLeases(ctx, userID) > 0 {
			// Another instance still holds a channel and reports the transition.
			p.forget(userID)
			return
		}
		_ = p.rdb.SRem(ctx, OnlineUsersKey, formatUserID(userID)).Err()
	}
	p.markOffline(userID)
}

func (p *Presence) forget(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.users[userID]; ok && st.conns == 0 && st.offlineTimer == nil {
		delete(p.users, userID)
	}
}

func (p *Presence) markOffline(userID uint) {
	p.mu.Lock()
	st := p.state(userID)
	if st.offlineSent || st.conns > 0 {
		p.mu.Unlock()
		return
	}
	st.offlineSent = true
	delete(p.users, userID)
	p.mu.Unlock()

	if p.cfg.OnOffline != nil {
		p.cfg.OnOffline(userID)
	}
}

func (p *Presence) reap() {
	ticker := time.NewTicker(p.cfg.ReaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.reapOnce(context.Background())
		}
	}
}

// reapOnce drops users without a live lease from the online set.
func (p *Presence) reapOnce(ctx context.Context) {
	members, err := p.rdb.SMembers(ctx, OnlineUsersKey).Result()
	if err != nil {
		return
	}
	for _, raw := range members {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		userID := uint(id)
		if p.localConns(userID) > 0 || p.liveLeases(ctx, userID) > 0 {
			continue
		}
		_ = p.rdb.SRem(ctx, OnlineUsersKey, raw).Err()
		p.markOffline(userID)
	}
}

func formatUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

func lastSeenKey(userID uint) string {
	return LastSeenKeyPrefix + formatUserID(userID)
}

func channelsKey(userID uint) string {
	return ChannelsKeyPrefix + formatUserID(userID)
}
