package refdir

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDirectory provides a Redis-backed implementation of the Directory
// interface. Claims are stored as sets in both directions so lookups stay
// O(1) round-trips. This implementation is suitable for deployments where
// several processes share one media store base directory.
type RedisDirectory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisDirectory.
type RedisOption func(*RedisDirectory)

// WithPrefix sets the key prefix for Redis keys.
// Default is "mediakit".
func WithPrefix(prefix string) RedisOption {
	return func(d *RedisDirectory) {
		d.prefix = prefix
	}
}

// WithTTL sets a time-to-live refreshed on every Bind. Claims older than
// the TTL disappear, which un-protects the media they guarded; use it only
// as a backstop against leaked claims. Default is 0 (no expiration).
func WithTTL(ttl time.Duration) RedisOption {
	return func(d *RedisDirectory) {
		d.ttl = ttl
	}
}

// NewRedisDirectory creates a new Redis-backed reference directory.
//
// Example:
//
//	dir := NewRedisDirectory(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithPrefix("myapp"),
//	)
func NewRedisDirectory(client *redis.Client, opts ...RedisOption) *RedisDirectory {
	dir := &RedisDirectory{
		client: client,
		prefix: "mediakit",
	}

	for _, opt := range opts {
		opt(dir)
	}

	return dir
}

// Bind records that subsystem still needs mediaID.
// Uses a pipeline to batch both set updates into a single round-trip.
func (d *RedisDirectory) Bind(ctx context.Context, subsystem, mediaID string) error {
	if subsystem == "" || mediaID == "" {
		return ErrInvalidKey
	}

	fwdKey := d.subsystemKey(subsystem)
	revKey := d.mediaKey(mediaID)

	pipe := d.client.Pipeline()
	pipe.SAdd(ctx, fwdKey, mediaID)
	pipe.SAdd(ctx, revKey, subsystem)
	if d.ttl > 0 {
		pipe.Expire(ctx, fwdKey, d.ttl)
		pipe.Expire(ctx, revKey, d.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Unbind drops one claim. Unknown pairs are ignored.
func (d *RedisDirectory) Unbind(ctx context.Context, subsystem, mediaID string) error {
	if subsystem == "" || mediaID == "" {
		return ErrInvalidKey
	}

	pipe := d.client.Pipeline()
	pipe.SRem(ctx, d.subsystemKey(subsystem), mediaID)
	pipe.SRem(ctx, d.mediaKey(mediaID), subsystem)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Subsystems returns the subsystems currently claiming mediaID.
func (d *RedisDirectory) Subsystems(ctx context.Context, mediaID string) ([]string, error) {
	if mediaID == "" {
		return nil, ErrInvalidKey
	}
	return d.setMembers(ctx, d.mediaKey(mediaID))
}

// MediaFor returns the media ids a subsystem claims.
func (d *RedisDirectory) MediaFor(ctx context.Context, subsystem string) ([]string, error) {
	if subsystem == "" {
		return nil, ErrInvalidKey
	}
	return d.setMembers(ctx, d.subsystemKey(subsystem))
}

// InUse reports whether any subsystem claims mediaID.
func (d *RedisDirectory) InUse(ctx context.Context, mediaID string) (bool, error) {
	if mediaID == "" {
		return false, ErrInvalidKey
	}

	count, err := d.client.SCard(ctx, d.mediaKey(mediaID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis scard failed: %w", err)
	}
	return count > 0, nil
}

// Release drops every claim subsystem holds and returns the media ids left
// with no claims at all. The SRem and SCard for each id ride in one
// pipeline; commands execute in order server-side, so each SCard sees its
// SRem applied.
func (d *RedisDirectory) Release(ctx context.Context, subsystem string) ([]string, error) {
	if subsystem == "" {
		return nil, ErrInvalidKey
	}

	ids, err := d.setMembers(ctx, d.subsystemKey(subsystem))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []string{}, nil
	}

	pipe := d.client.Pipeline()
	cardCmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		key := d.mediaKey(id)
		pipe.SRem(ctx, key, subsystem)
		cardCmds[i] = pipe.SCard(ctx, key)
	}
	pipe.Del(ctx, d.subsystemKey(subsystem))

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis pipeline failed: %w", err)
	}

	freed := make([]string, 0, len(ids))
	for i, cmd := range cardCmds {
		if cmd.Val() == 0 {
			freed = append(freed, ids[i])
		}
	}
	sort.Strings(freed)

	return freed, nil
}

// setMembers reads a set, treating a missing key as empty.
func (d *RedisDirectory) setMembers(ctx context.Context, key string) ([]string, error) {
	members, err := d.client.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}
	if members == nil {
		return []string{}, nil
	}
	return members, nil
}

// subsystemKey generates the Redis key for a subsystem's claim set.
func (d *RedisDirectory) subsystemKey(subsystem string) string {
	return fmt.Sprintf("%s:subsystem:%s:media", d.prefix, subsystem)
}

// mediaKey generates the Redis key for a media id's claimant set.
func (d *RedisDirectory) mediaKey(mediaID string) string {
	return fmt.Sprintf("%s:media:%s:subsystems", d.prefix, mediaID)
}
