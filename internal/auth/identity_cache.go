package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-cafeteria/internal/models"

	"github.com/go-redis/redis/v8"
)

const identityKeyPrefix = "identity:"

// IdentityCache keeps recently resolved users so the gate skips the users table.
type IdentityCache interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Invalidate(ctx context.Context, userID string) error
}

// RedisIdentityCache stores users as JSON under identity:<id>.
type RedisIdentityCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{Client: client, TTL: ttl}
}

// cachedIdentity mirrors models.User without dropping the fields it hides from JSON.
type cachedIdentity struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	StudentID string      `json:"student_id"`
	Phone     string      `json:"phone"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Get returns nil, nil on a miss.
func (c *RedisIdentityCache) Get(ctx context.Context, userID string) (*models.User, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	raw, err := c.Client.Get(ctx, identityKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity from cache: %w", err)
	}

	var cached cachedIdentity
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached identity: %w", err)
	}
	return &models.User{
		ID:        cached.ID,
		Name:      cached.Name,
		Email:     cached.Email,
		Role:      cached.Role,
		StudentID: cached.StudentID,
		Phone:     cached.Phone,
		CreatedAt: cached.CreatedAt,
		UpdatedAt: cached.UpdatedAt,
	}, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, user *models.User) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	data, err := json.Marshal(cachedIdentity{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		StudentID: user.StudentID,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return c.Client.Set(ctx, identityKeyPrefix+user.ID, data, c.TTL).Err()
}

func (c *RedisIdentityCache) Invalidate(ctx context.Context, userID string) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, identityKeyPrefix+userID).Err()
}
