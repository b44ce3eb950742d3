package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker records which billing events have already been processed so that
// redelivered webhooks can be acknowledged without re-running the reconciler.
// It is a fast-path optimization only: reconciliation stays idempotent even
// when the marker loses state or is disabled entirely.
type Marker interface {
	// Seen reports whether the event was already marked as processed.
	Seen(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records the event as processed. Call it only after the
	// event's effects have been durably persisted.
	MarkProcessed(ctx context.Context, eventID string) error
}

type Config struct {
	KeyPrefix string        `env:"DEDUP_KEY_PREFIX" envDefault:"billing:event:"` // KeyPrefix namespaces marker keys in redis.
	TTL       time.Duration `env:"DEDUP_TTL" envDefault:"72h"`                   // TTL bounds how long processed event IDs are remembered.
}

// RedisMarker stores processed event IDs as expiring redis keys.
type RedisMarker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

func NewRedisMarker(client redis.UniversalClient, cfg Config) (*RedisMarker, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	return &RedisMarker{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

func (m *RedisMarker) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := m.client.Exists(ctx, m.keyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *RedisMarker) MarkProcessed(ctx context.Context, eventID string) error {
	return m.client.Set(ctx, m.keyPrefix+eventID, 1, m.ttl).Err()
}

// Noop satisfies Marker without remembering anything. Used when redis is not
// configured; every event then takes the full reconciliation path.
type Noop struct{}

func (Noop) Seen(context.Context, string) (bool, error)  { return false, nil }
func (Noop) MarkProcessed(context.Context, string) error { return nil }
