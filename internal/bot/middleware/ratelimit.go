package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"serotonyl.ru/lyfestyler-bot/internal/metrics"
)

// RateLimiter ограничивает количество сообщений на пользователя:
// не больше limit за window, отдельный token bucket на каждого.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	every    rate.Limit
	burst    int
	idle     time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создаёт ограничитель и запускает фоновую очистку.
// limit <= 0 отключает ограничение.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[int64]*userLimiter),
		burst:    limit,
		idle:     window,
		stopCh:   make(chan struct{}),
	}
	if limit > 0 && window > 0 {
		rl.every = rate.Every(window / time.Duration(limit))
	} else {
		rl.every = rate.Inf
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow сообщает, можно ли обработать сообщение пользователя сейчас.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastSeen = now

	if !ul.limiter.AllowN(now, 1) {
		metrics.RateLimitedTotal.Inc()
		return false
	}
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

// evictIdle удаляет пользователей, не писавших дольше окна:
// их bucket к этому моменту всё равно полон.
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := now.Add(-rl.idle)
	for userID, ul := range rl.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(rl.limiters, userID)
		}
	}
}
