package usage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const windowKeyPrefix = "folio:ai:usage:"

// windowClient is the subset of the go-redis command set used by WindowCounter.
type windowClient interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
	ZCount(ctx context.Context, key, min, max string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// WindowCounter mirrors accepted requests into a per-caller sorted set scored by
// unix-nano timestamp, so counts can be served without touching the database.
type WindowCounter struct {
	client windowClient
	window time.Duration
}

// NewWindowCounter builds a counter over client that keeps entries for window.
func NewWindowCounter(client windowClient, window time.Duration) (*WindowCounter, error) {
	if client == nil {
		return nil, eris.New("redis client is required")
	}
	if window <= 0 {
		return nil, eris.New("window must be positive")
	}

	return &WindowCounter{client: client, window: window}, nil
}

// OpenRedis parses url and verifies the server answers a PING.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	trimmed := strings.TrimSpace(url)
	if !strings.HasPrefix(trimmed, "redis://") && !strings.HasPrefix(trimmed, "rediss://") {
		return nil, eris.New("redis url must start with redis:// or rediss://")
	}

	opts, err := redis.ParseURL(trimmed)
	if err != nil {
		return nil, eris.Wrap(err, "parsing redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "pinging redis")
	}

	return client, nil
}

// Add records one request for callerID at at.
func (w *WindowCounter) Add(ctx context.Context, callerID uint, at time.Time) error {
	key := windowKey(callerID)

	member := redis.Z{Score: float64(at.UnixNano()), Member: uuid.NewString()}
	if err := w.client.ZAdd(ctx, key, member).Err(); err != nil {
		return eris.Wrapf(err, "adding usage to window %s", key)
	}

	if err := w.trim(ctx, key, at.Add(-w.window)); err != nil {
		return err
	}

	if err := w.client.Expire(ctx, key, w.window).Err(); err != nil {
		return eris.Wrapf(err, "refreshing ttl of window %s", key)
	}

	return nil
}

// Count returns how many requests callerID made at or after since.
func (w *WindowCounter) Count(ctx context.Context, callerID uint, since time.Time) (int64, error) {
	key := windowKey(callerID)

	if err := w.trim(ctx, key, since.Add(-w.window)); err != nil {
		return 0, err
	}

	count, err := w.client.ZCount(ctx, key, strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	if err != nil {
		return 0, eris.Wrapf(err, "counting window %s", key)
	}

	return count, nil
}

// trim drops entries strictly older than cutoff.
func (w *WindowCounter) trim(ctx context.Context, key string, cutoff time.Time) error {
	maxScore := "(" + strconv.FormatInt(cutoff.UnixNano(), 10)
	if err := w.client.ZRemRangeByScore(ctx, key, "-inf", maxScore).Err(); err != nil {
		return eris.Wrapf(err, "trimming window %s", key)
	}
	return nil
}

func windowKey(callerID uint) string {
	return windowKeyPrefix + strconv.FormatUint(uint64(callerID), 10)
}
