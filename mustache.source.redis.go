package mustache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis source defaults
const (
	RedisDefaultPrefix    = "mustache:template:"
	RedisScanBatchSize    = 100
	ErrMsgRedisEmptyAddr  = "redis address cannot be empty"
	ErrMsgRedisConnFailed = "failed to connect to redis"
	ErrMsgRedisBadURL     = "invalid redis URL"
	ErrMsgRedisOpFailed   = "redis operation failed"
)

// RedisSource stores each template as a plain string key:
//
//	<prefix><name>
type RedisSource struct {
	client *redis.Client
	prefix string
	owned  bool
	mu     sync.RWMutex
	closed bool
}

func init() {
	RegisterSourceDriver(SourceDriverRedis, SourceDriverFunc(func(conn string) (TemplateStore, error) {
		opts, err := ParseRedisConn(conn)
		if err != nil {
			return nil, err
		}
		return NewRedisSource(context.Background(), opts, RedisDefaultPrefix)
	}))
}

// ParseRedisConn accepts either a bare "host:port" address or a
// redis:// URL.
func ParseRedisConn(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, NewConfigError(ErrMsgRedisEmptyAddr, MetaKeySource, conn)
	}
	if !strings.Contains(conn, "://") {
		return &redis.Options{Addr: conn}, nil
	}
	opts, err := redis.ParseURL(conn)
	if err != nil {
		return nil, NewConfigError(ErrMsgRedisBadURL, MetaKeySource, conn)
	}
	return opts, nil
}

// NewRedisSource creates a client from opts and checks it with PING.
// An empty prefix defaults to "mustache:template:".
func NewRedisSource(ctx context.Context, opts *redis.Options, prefix string) (*RedisSource, error) {
	if opts == nil || opts.Addr == "" {
		return nil, NewConfigError(ErrMsgRedisEmptyAddr, MetaKeySource, "")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, NewSourceError(ErrMsgRedisConnFailed, opts.Addr, err)
	}
	s := NewRedisSourceFromClient(client, prefix)
	s.owned = true
	return s, nil
}

// NewRedisSourceFromClient wraps an existing client. Close does not
// close a client it did not create.
func NewRedisSourceFromClient(client *redis.Client, prefix string) *RedisSource {
	if prefix == "" {
		prefix = RedisDefaultPrefix
	}
	return &RedisSource{client: client, prefix: prefix}
}

// Prefix returns the key prefix
func (s *RedisSource) Prefix() string {
	return s.prefix
}

func (s *RedisSource) key(name string) string {
	return s.prefix + name
}

// Load implements TemplateSource
func (s *RedisSource) Load(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", NewSourceClosedError()
	}

	src, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", NewTemplateNotFoundError(name)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewSourceError(ErrMsgRedisOpFailed, name, err)
	}
	return src, nil
}

// Save implements TemplateStore
func (s *RedisSource) Save(ctx context.Context, name, source string) error {
	if name == "" {
		return NewInvalidTemplateNameError(name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewSourceClosedError()
	}
	if err := s.client.Set(ctx, s.key(name), source, 0).Err(); err != nil {
		return NewSourceError(ErrMsgRedisOpFailed, name, err)
	}
	return nil
}

// Delete implements TemplateStore
func (s *RedisSource) Delete(ctx context.Context, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return NewSourceClosedError()
	}
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return NewSourceError(ErrMsgRedisOpFailed, name, err)
	}
	if n == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List implements TemplateStore. Keys are walked with SCAN.
func (s *RedisSource) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewSourceClosedError()
	}

	names := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", RedisScanBatchSize).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, NewSourceError(ErrMsgRedisOpFailed, s.prefix, err)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements TemplateStore
func (s *RedisSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned {
		return s.client.Close()
	}
	return nil
}
