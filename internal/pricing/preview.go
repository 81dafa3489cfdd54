package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/pkg/redis"
)

// Preview is the per-cart pricing state carried between the cart page and
// checkout. PendingBonus is the last clamped redemption the owner chose.
type Preview struct {
	CartID       uuid.UUID `json:"cart_id"`
	PendingBonus int64     `json:"pending_bonus"`
	Quote        Quote     `json:"quote"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PreviewStore persists previews keyed by cart.
type PreviewStore interface {
	Load(ctx context.Context, cartID uuid.UUID) (*Preview, error)
	Save(ctx context.Context, preview Preview) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type previewBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PricingPreviewKey(cartID string) string
}

// RedisPreviewStore keeps previews in Redis with a sliding TTL.
type RedisPreviewStore struct {
	backend previewBackend
	ttl     time.Duration
}

// NewRedisPreviewStore wires a preview store over the redis client.
func NewRedisPreviewStore(backend previewBackend, ttl time.Duration) (*RedisPreviewStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend required")
	}
	return &RedisPreviewStore{backend: backend, ttl: ttl}, nil
}

// Load returns nil when no preview exists for the cart.
func (s *RedisPreviewStore) Load(ctx context.Context, cartID uuid.UUID) (*Preview, error) {
	raw, err := s.backend.Get(ctx, s.backend.PricingPreviewKey(cartID.String()))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load pricing preview: %w", err)
	}
	var preview Preview
	if err := json.Unmarshal([]byte(raw), &preview); err != nil {
		return nil, fmt.Errorf("decode pricing preview: %w", err)
	}
	return &preview, nil
}

func (s *RedisPreviewStore) Save(ctx context.Context, preview Preview) error {
	if preview.CartID == uuid.Nil {
		return fmt.Errorf("cart id required")
	}
	payload, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("encode pricing preview: %w", err)
	}
	if err := s.backend.Set(ctx, s.backend.PricingPreviewKey(preview.CartID.String()), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save pricing preview: %w", err)
	}
	return nil
}

func (s *RedisPreviewStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	if err := s.backend.Del(ctx, s.backend.PricingPreviewKey(cartID.String())); err != nil {
		return fmt.Errorf("clear pricing preview: %w", err)
	}
	return nil
}

// PendingBonus reads the stored redemption for a cart, or 0 when absent.
func PendingBonus(ctx context.Context, store PreviewStore, cartID uuid.UUID) (int64, error) {
	preview, err := store.Load(ctx, cartID)
	if err != nil {
		return 0, err
	}
	if preview == nil {
		return 0, nil
	}
	return preview.PendingBonus, nil
}
