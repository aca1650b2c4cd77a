package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "orchidshop:revoked:"

// RedisRevoker хранит отозванные идентификаторы токенов в Redis до истечения их срока.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker подключается к Redis и проверяет соединение.
func NewRedisRevoker(ctx context.Context, addr, password string) (*RedisRevoker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRevoker{client: client}, nil
}

// Revoke отзывает токен id до момента until.
func (r *RedisRevoker) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+id, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked сообщает, отозван ли токен id.
func (r *RedisRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// Close закрывает соединение с Redis.
func (r *RedisRevoker) Close() error {
	return r.client.Close()
}

// MemoryRevoker хранит отозванные токены в памяти процесса.
// Используется, когда Redis не настроен.
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker создаёт пустое хранилище отозванных токенов.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke отзывает токен id до момента until.
func (m *MemoryRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, k)
		}
	}
	if until.After(now) {
		m.revoked[id] = until
	}
	return nil
}

// IsRevoked сообщает, отозван ли токен id.
func (m *MemoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[id]
	return ok && exp.After(m.now()), nil
}

// Close ничего не делает.
func (m *MemoryRevoker) Close() error {
	return nil
}
