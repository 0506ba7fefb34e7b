package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	entryKeyPrefix = "course_package:"
	genKeyPrefix   = "course_package_gen:"
)

// Redis is a VersionCache shared by every instance. Entries expire after ttl;
// generation counters never expire.
type Redis struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ VersionCache = (*Redis)(nil)

// NewRedis returns a Redis-backed cache. prefix namespaces keys (e.g. per
// environment) and may be empty.
func NewRedis(rdb goredis.UniversalClient, ttl time.Duration, prefix string) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *Redis) entryKey(id uuid.UUID) string { return r.prefix + entryKeyPrefix + id.String() }
func (r *Redis) genKey(id uuid.UUID) string   { return r.prefix + genKeyPrefix + id.String() }

func (r *Redis) Get(ctx context.Context, courseID uuid.UUID) (*Entry, Generation, error) {
	vals, err := r.rdb.MGet(ctx, r.entryKey(courseID), r.genKey(courseID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis mget %s: %w", courseID, err)
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// A corrupt entry is treated as a miss so the next Put replaces it.
		return nil, gen, nil
	}
	return &e, gen, nil
}

// Put writes the entry inside WATCH on the generation key: a concurrent
// Invalidate aborts the transaction.
func (r *Redis) Put(ctx context.Context, e *Entry, gen Generation) (bool, error) {
	if e == nil {
		return false, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode entry %s: %w", e.CourseID, err)
	}
	genKey := r.genKey(e.CourseID)
	stored := false
	err = r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		current, err := parseGeneration(cur)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, r.entryKey(e.CourseID), raw, r.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis put %s: %w", e.CourseID, err)
	}
	return stored, nil
}

func (r *Redis) Invalidate(ctx context.Context, courseID uuid.UUID) error {
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Incr(ctx, r.genKey(courseID))
		p.Del(ctx, r.entryKey(courseID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate %s: %w", courseID, err)
	}
	return nil
}

func parseGeneration(v interface{}) (Generation, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		if t == "" {
			return 0, nil
		}
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad generation %q: %w", t, err)
		}
		return Generation(n), nil
	default:
		return 0, fmt.Errorf("unexpected generation type %T", v)
	}
}
