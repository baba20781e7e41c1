package kpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "kitchenboard:kpi:last-good:"

// DefaultSnapshotTTL bounds how long a last-good snapshot may be served.
const DefaultSnapshotTTL = 48 * time.Hour

type storedSnapshot struct {
	StoredAt time.Time `json:"storedAt"`
	Snapshot Snapshot  `json:"snapshot"`
}

// RedisSnapshotStore keeps the last successfully computed snapshot per date
// in Redis so a restarted process can still degrade gracefully.
type RedisSnapshotStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSnapshotStore constructs the store.
func NewRedisSnapshotStore(client redis.Cmdable, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &RedisSnapshotStore{client: client, ttl: ttl, now: time.Now}
}

// Save overwrites the stored snapshot for snap.Date.
func (r *RedisSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	if r == nil || r.client == nil {
		return nil
	}
	raw, err := json.Marshal(storedSnapshot{StoredAt: r.now(), Snapshot: snap})
	if err != nil {
		return fmt.Errorf("kpi: encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKeyPrefix+snap.Date, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("kpi: store snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot for date and when it was computed.
func (r *RedisSnapshotStore) Load(ctx context.Context, date string) (Snapshot, time.Time, bool, error) {
	if r == nil || r.client == nil {
		return Snapshot{}, time.Time{}, false, nil
	}
	raw, err := r.client.Get(ctx, snapshotKeyPrefix+date).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, time.Time{}, false, nil
	}
	if err != nil {
		return Snapshot{}, time.Time{}, false, fmt.Errorf("kpi: load snapshot: %w", err)
	}
	var stored storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Snapshot{}, time.Time{}, false, fmt.Errorf("kpi: decode snapshot: %w", err)
	}
	return stored.Snapshot, stored.StoredAt, true, nil
}
