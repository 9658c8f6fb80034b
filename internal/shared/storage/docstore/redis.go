package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"jobassist-backend/internal/shared/apperr"
)

// RedisStore keeps each document in a hash with one JSON-encoded value per
// top-level field, so HSET is the merge-write. A sorted set per collection
// indexes document ids by creation time.
type RedisStore struct {
	Client *redis.Client
	Prefix string
	now    func() time.Time
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "jobassist"
	}
	return &RedisStore{Client: client, Prefix: prefix, now: time.Now}, nil
}

func (s *RedisStore) docKey(collection, id string) string {
	return s.Prefix + ":doc:" + collection + ":" + id
}

func (s *RedisStore) indexKey(collection string) string {
	return s.Prefix + ":idx:" + collection
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	raw, err := s.Client.HGetAll(ctx, s.docKey(collection, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	if len(raw) == 0 {
		return nil, apperr.ErrNotFound
	}
	return decodeHash(raw)
}

func (s *RedisStore) MergeSet(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	values, err := encodeHash(fields)
	if err != nil {
		return err
	}
	_, err = s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, s.docKey(collection, id), values)
		}
		pipe.ZAddNX(ctx, s.indexKey(collection), redis.Z{Score: s.score(), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	exists, err := s.Client.Exists(ctx, s.docKey(collection, id)).Result()
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	if exists == 0 {
		return apperr.ErrNotFound
	}
	values, err := encodeHash(fields)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.Client.HSet(ctx, s.docKey(collection, id), values).Err(); err != nil {
		return fmt.Errorf("update document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	var deleted *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.docKey(collection, id))
		pipe.ZRem(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, id, err)
	}
	if deleted.Val() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	ids, err := s.Client.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.Client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(collection, id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	out := make([]Document, 0, len(ids))
	for i, id := range ids {
		raw := cmds[i].Val()
		if len(raw) == 0 {
			continue
		}
		data, err := decodeHash(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Document{ID: id, Data: data})
	}
	return out, nil
}

func (s *RedisStore) Increment(ctx context.Context, collection, id, field string, delta int64) (int64, error) {
	if err := validateKey(collection, id); err != nil {
		return 0, err
	}
	var incr *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// JSON encodes integers as bare digits, so HINCRBY works on them.
		incr = pipe.HIncrBy(ctx, s.docKey(collection, id), field, delta)
		pipe.ZAddNX(ctx, s.indexKey(collection), redis.Z{Score: s.score(), Member: id})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment %s on %s/%s: %w", field, collection, id, err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *RedisStore) Close() error {
	return s.Client.Close()
}

func (s *RedisStore) score() float64 {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return float64(now().UnixNano())
}

func encodeHash(fields map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(fields))
	for _, k := range keys {
		b, err := json.Marshal(fields[k])
		if err != nil {
			return nil, fmt.Errorf("encode field %s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

func decodeHash(raw map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("decode field %s: %w", k, err)
		}
		out[k] = decoded
	}
	return out, nil
}
