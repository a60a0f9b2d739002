package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"scrolla/internal/middleware"
	"scrolla/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPresenceOnlineSetKey  = "ws:online_users"
	defaultPresenceLastSeenKeyNS = "ws:last_seen:"
	defaultPresenceTTL           = 90 * time.Second
	defaultOfflineGrace          = 5 * time.Second
	defaultReaperInterval        = 60 * time.Second
)

// Presence tracks which users hold a live feed connection. Local counts are
// mirrored into Redis so every API instance agrees on who is online; a user
// goes offline only after the grace window passes without a reconnect.
type Presence struct {
	rdb *redis.Client

	mu              sync.RWMutex
	localConnCounts map[uint]int
	offlineTimers   map[uint]*time.Timer

	lastSeenTTL    time.Duration
	offlineGrace   time.Duration
	reaperInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence creates a tracker and starts the Redis reaper when rdb is set.
func NewPresence(rdb *redis.Client) *Presence {
	p := &Presence{
		rdb:             rdb,
		localConnCounts: make(map[uint]int),
		offlineTimers:   make(map[uint]*time.Timer),
		lastSeenTTL:     defaultPresenceTTL,
		offlineGrace:    defaultOfflineGrace,
		reaperInterval:  defaultReaperInterval,
		stopCh:          make(chan struct{}),
	}
	if p.rdb != nil {
		go p.reaperLoop()
	}
	return p
}

func (p *Presence) SetOfflineGracePeriod(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.offlineGrace = d
	p.mu.Unlock()
}

func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		for userID, timer := range p.offlineTimers {
			timer.Stop()
			delete(p.offlineTimers, userID)
		}
		p.mu.Unlock()
	})
}

func (p *Presence) Register(ctx context.Context, userID uint) {
	p.mu.Lock()
	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
		delete(p.offlineTimers, userID)
	}
	p.localConnCounts[userID]++
	p.mu.Unlock()

	p.Touch(ctx, userID)
}

// Touch refreshes the user's last-seen key.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := p.rdb.SAdd(ctx, defaultPresenceOnlineSetKey, uid).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("presence").Inc()
		middleware.Logger.WarnContext(ctx, "presence SADD failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
	if err := p.rdb.SetEx(ctx, lastSeenKey(userID), strconv.FormatInt(time.Now().Unix(), 10), p.lastSeenTTL).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("presence").Inc()
		middleware.Logger.WarnContext(ctx, "presence SETEX failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

func (p *Presence) Unregister(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n, ok := p.localConnCounts[userID]; ok {
		n--
		if n > 0 {
			p.localConnCounts[userID] = n
			return
		}
		delete(p.localConnCounts, userID)
	}

	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
	}
	p.offlineTimers[userID] = time.AfterFunc(p.offlineGrace, func() {
		p.finalizeOffline(context.Background(), userID)
	})
}

// IsOnline reports whether userID holds a connection here or, per Redis, on
// any other instance.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.RLock()
	local := p.localConnCounts[userID] > 0
	_, pending := p.offlineTimers[userID]
	p.mu.RUnlock()
	if local || pending {
		return true
	}

	if p.rdb == nil {
		return false
	}
	exists, err := p.rdb.Exists(ctx, lastSeenKey(userID)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// reapOnce drops online-set members whose last-seen key has expired.
func (p *Presence) reapOnce(ctx context.Context) {
	if p.rdb == nil {
		return
	}
	members, err := p.rdb.SMembers(ctx, defaultPresenceOnlineSetKey).Result()
	if err != nil {
		return
	}
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			_ = p.rdb.SRem(ctx, defaultPresenceOnlineSetKey, raw).Err()
			continue
		}
		exists, existsErr := p.rdb.Exists(ctx, lastSeenKey(uint(id64))).Result()
		if existsErr != nil || exists > 0 {
			continue
		}
		_ = p.rdb.SRem(ctx, defaultPresenceOnlineSetKey, raw).Err()
	}
}

func (p *Presence) reaperLoop() {
	ctx := context.Background()
	ticker := time.NewTicker(p.reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.reapOnce(ctx)
		}
	}
}

func (p *Presence) finalizeOffline(ctx context.Context, userID uint) {
	p.mu.Lock()
	delete(p.offlineTimers, userID)
	hasLocal := p.localConnCounts[userID] > 0
	p.mu.Unlock()
	if hasLocal || p.rdb == nil {
		return
	}

	// A fresh last-seen key means another instance still holds a connection.
	exists, err := p.rdb.Exists(ctx, lastSeenKey(userID)).Result()
	if err != nil || exists > 0 {
		return
	}
	_ = p.rdb.SRem(ctx, defaultPresenceOnlineSetKey, strconv.FormatUint(uint64(userID), 10)).Err()
}

func lastSeenKey(userID uint) string {
	return defaultPresenceLastSeenKeyNS + strconv.FormatUint(uint64(userID), 10)
}
