package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"travelproof/internal/identity/models"
)

var storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "travelproof_record_store_op_duration_ms",
	Help:    "Latency of verification record store operations in milliseconds",
	Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
}, []string{"backend", "op"})

func observe(backend, op string, start time.Time) {
	storeOpDuration.WithLabelValues(backend, op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}

type storedRecord struct {
	Record models.IdentityRecord `json:"record"`
	Seq    int64                 `json:"seq"`
}

// RedisStore persists records in Redis. Each record lives under its own key;
// a sorted set per subject indexes keys by verification time.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore constructs a Redis-backed record store.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "travelproof"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) recordKey(key string) string {
	return fmt.Sprintf("%s:identity:record:%s", s.namespace, key)
}

func (s *RedisStore) subjectKey(subjectID string) string {
	return fmt.Sprintf("%s:identity:subject:%s", s.namespace, subjectID)
}

func (s *RedisStore) seqKey() string {
	return s.namespace + ":identity:seq"
}

// Put writes the record and its subject index entry in one MULTI/EXEC so a
// reader never sees the index without the record.
func (s *RedisStore) Put(ctx context.Context, key string, record models.IdentityRecord) error {
	start := time.Now()
	defer observe("redis", "put", start)

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("allocate record sequence: %w", err)
	}
	payload, err := json.Marshal(storedRecord{Record: record, Seq: seq})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(key), payload, 0)
		pipe.ZAdd(ctx, s.subjectKey(record.SubjectID), redis.Z{
			Score:  float64(record.VerifiedAt.UnixMilli()),
			Member: key,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByKey(ctx context.Context, key string) (*models.IdentityRecord, error) {
	start := time.Now()
	defer observe("redis", "find_by_key", start)

	raw, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &stored.Record, nil
}

func (s *RedisStore) FindLatestBySubject(ctx context.Context, subjectID string) (*models.IdentityRecord, error) {
	start := time.Now()
	defer observe("redis", "find_latest_by_subject", start)

	keys, err := s.client.ZRange(ctx, s.subjectKey(subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read subject index: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	recordKeys := make([]string, len(keys))
	for i, k := range keys {
		recordKeys[i] = s.recordKey(k)
	}
	values, err := s.client.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read subject records: %w", err)
	}

	var stored []storedRecord
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var sr storedRecord
		if err := json.Unmarshal([]byte(str), &sr); err != nil {
			continue
		}
		// A key may have been overwritten with another subject's record.
		if sr.Record.SubjectID != subjectID {
			continue
		}
		stored = append(stored, sr)
	}
	if len(stored) == 0 {
		return nil, ErrNotFound
	}
	return latest(orderBySeq(stored)), nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	prefix := s.recordKey("")
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan record keys: %w", err)
	}
	return keys, nil
}

func orderBySeq(stored []storedRecord) []models.IdentityRecord {
	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })
	out := make([]models.IdentityRecord, len(stored))
	for i, sr := range stored {
		out[i] = sr.Record
	}
	return out
}
