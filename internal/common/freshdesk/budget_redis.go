package freshdesk

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"vip-relay/internal/common/clock"
	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/logger"
)

// fixedWindowScript increments the window counter and reports -1 when the call
// is admitted, or the milliseconds left in the window when it is not.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current <= tonumber(ARGV[1]) then
	return -1
end
redis.call("DECR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	ttl = tonumber(ARGV[2])
end
return ttl
`)

type RedisBudgetOptions struct {
	Key      string
	Limit    int
	Window   time.Duration
	FailOpen bool
	Clock    clock.Clock
	Logger   logger.Logger
}

// RedisBudget is a fixed-window budget shared by every relay replica pointed at
// the same Redis.
type RedisBudget struct {
	client   redis.Scripter
	key      string
	limit    int64
	window   time.Duration
	failOpen bool
	clock    clock.Clock
	logger   logger.Logger
}

func NewRedisBudget(client redis.Scripter, opts RedisBudgetOptions) *RedisBudget {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &RedisBudget{
		client:   client,
		key:      opts.Key,
		limit:    int64(opts.Limit),
		window:   opts.Window,
		failOpen: opts.FailOpen,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

func (b *RedisBudget) Acquire(ctx context.Context) error {
	if b.limit <= 0 {
		return nil
	}
	for {
		wait, err := b.reserve(ctx)
		if err != nil {
			if b.failOpen {
				b.logger.Warn("Shared rate budget unavailable, admitting call", map[string]interface{}{
					"key":   b.key,
					"error": err,
				})
				return nil
			}
			return apperrors.NewTransportError("EVAL", b.key, err)
		}
		if wait <= 0 {
			return nil
		}
		select {
		case <-b.clock.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *RedisBudget) reserve(ctx context.Context) (time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, b.client, []string{b.key}, b.limit, b.window.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, nil
	}
	if res == 0 {
		res = 1
	}
	return time.Duration(res) * time.Millisecond, nil
}
