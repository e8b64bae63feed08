package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mpp-chat-portal/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps transcripts as Redis lists and doubles as the token-count cache
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis. Transcripts expire ttl after their last append; zero keeps
// them until cleared.
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: rdb,
		ttl:    ttl,
	}, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func transcriptKey(conversationID string) string {
	return "transcript:" + conversationID
}

// Append pushes a turn onto the conversation list and refreshes its expiry
func (r *RedisStore) Append(ctx context.Context, conversationID string, turn models.ChatTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	key := transcriptKey(conversationID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ReplaceLast overwrites the newest turn of the conversation
func (r *RedisStore) ReplaceLast(ctx context.Context, conversationID string, turn models.ChatTurn) error {
	key := transcriptKey(conversationID)

	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("replace turn: %w", err)
	}
	if n == 0 {
		return ErrEmptyTranscript
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	if err := r.client.LSet(ctx, key, -1, data).Err(); err != nil {
		return fmt.Errorf("replace turn: %w", err)
	}
	return nil
}

// List returns the turns of the conversation in order
func (r *RedisStore) List(ctx context.Context, conversationID string) ([]models.ChatTurn, error) {
	values, err := r.client.LRange(ctx, transcriptKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	turns := make([]models.ChatTurn, 0, len(values))
	for _, v := range values {
		var turn models.ChatTurn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops the whole conversation
func (r *RedisStore) Clear(ctx context.Context, conversationID string) error {
	return r.client.Del(ctx, transcriptKey(conversationID)).Err()
}

// GetTokenCount retrieves a cached token count for text
func (r *RedisStore) GetTokenCount(ctx context.Context, text string) (int, bool, error) {
	val, err := r.client.Get(ctx, tokenCacheKey(text)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var count int
	if err := json.Unmarshal([]byte(val), &count); err != nil {
		return 0, false, err
	}

	return count, true, nil
}

// SetTokenCount caches the token count for text
func (r *RedisStore) SetTokenCount(ctx context.Context, text string, count int, ttl time.Duration) error {
	data, err := json.Marshal(count)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, tokenCacheKey(text), data, ttl).Err()
}

// tokenCacheKey hashes the text so keys stay short
func tokenCacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("token_count:%s", hex.EncodeToString(hash[:]))
}
