package normalization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotMirror копия последнего успешно прочитанного снимка справочников
type SnapshotMirror interface {
	Save(ctx context.Context, snap *Snapshot) error
	// Load возвращает nil, nil если копии нет
	Load(ctx context.Context) (*Snapshot, error)
}

// RedisSnapshotMirror хранит снимок одним JSON ключом с TTL
type RedisSnapshotMirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotMirror создает зеркало; keyPrefix отделяет окружения в одной БД Redis
func NewRedisSnapshotMirror(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSnapshotMirror {
	if keyPrefix == "" {
		keyPrefix = "exportdecl"
	}
	return &RedisSnapshotMirror{
		client: client,
		key:    keyPrefix + ":lookup_snapshot",
		ttl:    ttl,
	}
}

// NewRedisClient подключается к Redis. Пустой addr означает, что зеркало не используется: nil, nil.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Save записывает снимок
func (m *RedisSnapshotMirror) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := m.client.Set(ctx, m.key, data, m.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Load читает снимок
func (m *RedisSnapshotMirror) Load(ctx context.Context) (*Snapshot, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
