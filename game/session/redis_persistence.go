package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const defaultKeyPrefix = "sokoban:session:"

// RedisPersistence implements SessionPersistence on a Redis server. Each session
// is one JSON string key; a non-zero TTL expires idle sessions.
type RedisPersistence struct {
	client  *redis.Client
	levels  engine.Source
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisPersistence creates a Redis-backed persistence layer.
func NewRedisPersistence(client *redis.Client, levels engine.Source, ttl time.Duration) *RedisPersistence {
	if client == nil {
		panic("session.NewRedisPersistence: client is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisPersistence{
		client:  client,
		levels:  levels,
		prefix:  defaultKeyPrefix,
		ttl:     ttl,
		timeout: 5 * time.Second,
	}
}

// NewRedisPersistenceFromURL connects to a redis:// URL and verifies the connection.
func NewRedisPersistenceFromURL(ctx context.Context, url string, levels engine.Source, ttl time.Duration) (*RedisPersistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisPersistence(client, levels, ttl), nil
}

// Close closes the underlying client.
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

func (rp *RedisPersistence) key(id string) string {
	return rp.prefix + id
}

func (rp *RedisPersistence) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rp.timeout)
}

// Save stores a session as JSON
func (rp *RedisPersistence) Save(session *service.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	ctx, cancel := rp.opContext()
	defer cancel()
	if err := rp.client.Set(ctx, rp.key(session.ID), payload, rp.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load retrieves a session
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := rp.opContext()
	defer cancel()

	payload, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return decodeSession(&data, rp.levels)
}

// Delete removes a session
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := rp.opContext()
	defer cancel()

	n, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := rp.opContext()
	defer cancel()

	var ids []string
	iter := rp.client.Scan(ctx, 0, rp.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), rp.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return ids, nil
}

// Exists checks if a session is stored
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := rp.opContext()
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	return err == nil && n > 0
}
