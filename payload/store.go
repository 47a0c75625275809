package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"seikyu/model"
	"seikyu/normalize"
)

// ErrNotFound はキャッシュミスです。チャンク欠損や壊れたデータも
// 呼び出し側には常にこのエラーで見せ、再計算を促します。
var ErrNotFound = errors.New("payload: not found")

// KV はストアの下回りです。テストではインメモリ実装を差し込めます。
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisKV は go-redis による KV 実装です。
type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(addr string) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}

const (
	keyPrefix   = "seikyu:prepared:"
	chunkMarker = "chunked:" // 本体キーに置くマーカー。値は分割数
)

// Store は1ヶ月分の計算結果ペイロードを保存・復元します。
// バックエンドの1エントリには直列化長の上限があるため、超過時は
// 順序付きチャンクへ透過的に分割し、読み出し時に結合します。
type Store struct {
	kv            KV
	maxEntryBytes int
	ttl           time.Duration
}

func NewStore(kv KV, maxEntryBytes int) *Store {
	if maxEntryBytes <= 0 {
		maxEntryBytes = 90000
	}
	return &Store{kv: kv, maxEntryBytes: maxEntryBytes}
}

func baseKey(month string) string         { return keyPrefix + month }
func chunkKey(month string, i int) string { return fmt.Sprintf("%s%s#%d", keyPrefix, month, i) }

// Save はペイロードを直列化して保存します。上限超過時はチャンク分割します。
func (s *Store) Save(ctx context.Context, p model.PreparedPayload) error {
	month, err := normalize.CanonicalMonth(p.BillingMonth)
	if err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if len(data) <= s.maxEntryBytes {
		return s.kv.Set(ctx, baseKey(month), string(data), s.ttl)
	}

	chunks := splitChunks(string(data), s.maxEntryBytes)
	for i, chunk := range chunks {
		if err := s.kv.Set(ctx, chunkKey(month, i), chunk, s.ttl); err != nil {
			return fmt.Errorf("failed to store chunk %d: %w", i, err)
		}
	}
	return s.kv.Set(ctx, baseKey(month), fmt.Sprintf("%s%d", chunkMarker, len(chunks)), s.ttl)
}

// Load はペイロードを復元します。本体・チャンクのいずれかが欠けている、
// または直列化が壊れている場合は ErrNotFound です(壊れたデータは返さない)。
func (s *Store) Load(ctx context.Context, month string) (*model.PreparedPayload, error) {
	m, err := normalize.CanonicalMonth(month)
	if err != nil {
		return nil, err
	}

	raw, err := s.kv.Get(ctx, baseKey(m))
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(raw, chunkMarker) {
		count, convErr := strconv.Atoi(strings.TrimPrefix(raw, chunkMarker))
		if convErr != nil || count <= 0 {
			return nil, ErrNotFound
		}
		var joined strings.Builder
		for i := 0; i < count; i++ {
			chunk, getErr := s.kv.Get(ctx, chunkKey(m, i))
			if getErr != nil {
				return nil, ErrNotFound
			}
			joined.WriteString(chunk)
		}
		raw = joined.String()
	}

	var p model.PreparedPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Delete は本体とチャンクをまとめて削除します。
func (s *Store) Delete(ctx context.Context, month string) error {
	m, err := normalize.CanonicalMonth(month)
	if err != nil {
		return err
	}

	keys := []string{baseKey(m)}
	if raw, getErr := s.kv.Get(ctx, baseKey(m)); getErr == nil && strings.HasPrefix(raw, chunkMarker) {
		if count, convErr := strconv.Atoi(strings.TrimPrefix(raw, chunkMarker)); convErr == nil {
			for i := 0; i < count; i++ {
				keys = append(keys, chunkKey(m, i))
			}
		}
	}
	return s.kv.Del(ctx, keys...)
}

func splitChunks(s string, size int) []string {
	var chunks []string
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return append(chunks, s)
}
