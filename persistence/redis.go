package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/sidelinestream/sidespout"
)

// keyPrefix namespaces every key this adapter writes.
const keyPrefix = "sidespout:"

// RedisConfig configures a RedisAdapter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisAdapter persists consumer state and sideline-request offsets in
// Redis via go-redis/v9, one key per record.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter dials Redis and verifies connectivity with a PING.
func NewRedisAdapter(cfg RedisConfig) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return &RedisAdapter{client: client}, nil
}

func consumerStateKey(consumerID string) string {
	return keyPrefix + "state:" + consumerID
}

func sidelineKey(requestID string, partition sidespout.ConsumerPartition) string {
	return keyPrefix + "sideline:" + requestID + ":" + partition.String()
}

// PersistConsumerState stores state as a JSON blob under consumerID's key.
func (r *RedisAdapter) PersistConsumerState(consumerID string, state sidespout.ConsumerState) error {
	rows := make([]offsetsRow, 0, state.Len())
	for cp, off := range state.AsMap() {
		rows = append(rows, offsetsRow{Namespace: cp.Namespace, Partition: cp.Partition, Offset: off})
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshaling consumer state: %w", err)
	}

	ctx := context.Background()
	if err := r.client.Set(ctx, consumerStateKey(consumerID), payload, 0).Err(); err != nil {
		return fmt.Errorf("persisting consumer state for %s: %w", consumerID, err)
	}
	return nil
}

// RetrieveConsumerState reads back the JSON blob stored under consumerID's
// key, if any.
func (r *RedisAdapter) RetrieveConsumerState(consumerID string) (sidespout.ConsumerState, bool, error) {
	ctx := context.Background()
	payload, err := r.client.Get(ctx, consumerStateKey(consumerID)).Bytes()
	if err == redis.Nil {
		return sidespout.ConsumerState{}, false, nil
	}
	if err != nil {
		return sidespout.ConsumerState{}, false, fmt.Errorf("retrieving consumer state for %s: %w", consumerID, err)
	}

	var rows []offsetsRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return sidespout.ConsumerState{}, false, fmt.Errorf("unmarshaling consumer state for %s: %w", consumerID, err)
	}

	offsets := make(map[sidespout.ConsumerPartition]int64, len(rows))
	for _, row := range rows {
		offsets[sidespout.ConsumerPartition{Namespace: row.Namespace, Partition: row.Partition}] = row.Offset
	}
	return sidespout.NewConsumerState(offsets), true, nil
}

// ClearConsumerState deletes consumerID's key.
func (r *RedisAdapter) ClearConsumerState(consumerID string) error {
	ctx := context.Background()
	if err := r.client.Del(ctx, consumerStateKey(consumerID)).Err(); err != nil {
		return fmt.Errorf("clearing consumer state for %s: %w", consumerID, err)
	}
	return nil
}

// StoreSidelineRequestOffset records the ending offset for (requestID,
// partition) as a plain string value.
func (r *RedisAdapter) StoreSidelineRequestOffset(requestID string, partition sidespout.ConsumerPartition, offset int64) error {
	ctx := context.Background()
	key := sidelineKey(requestID, partition)
	if err := r.client.Set(ctx, key, strconv.FormatInt(offset, 10), 0).Err(); err != nil {
		return fmt.Errorf("storing sideline offset for %s/%s: %w", requestID, partition, err)
	}
	return nil
}

// SidelineRequestOffset reads back the stored offset for (requestID,
// partition), if any.
func (r *RedisAdapter) SidelineRequestOffset(requestID string, partition sidespout.ConsumerPartition) (int64, bool) {
	ctx := context.Background()
	val, err := r.client.Get(ctx, sidelineKey(requestID, partition)).Result()
	if err != nil {
		return 0, false
	}
	off, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return off, true
}

// ClearSidelineRequest deletes the stored entry for (requestID, partition).
func (r *RedisAdapter) ClearSidelineRequest(requestID string, partition sidespout.ConsumerPartition) error {
	ctx := context.Background()
	if err := r.client.Del(ctx, sidelineKey(requestID, partition)).Err(); err != nil {
		return fmt.Errorf("clearing sideline offset for %s/%s: %w", requestID, partition, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
