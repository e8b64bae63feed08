package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tiktoken-go/tokenizer"
	"go.uber.org/zap"
)

// messageOverhead approximates the role and framing tokens added per message
const messageOverhead = 4

// TiktokenCounter counts tokens with the cl100k_base encoding, consulting an optional cache
type TiktokenCounter struct {
	codec  tokenizer.Codec
	cache  TokenCache
	ttl    time.Duration
	logger *zap.Logger
}

// ------------------------------------------------------------------------------------------------------
// NewTokenCounter builds a counter. cache may be nil.
func NewTokenCounter(cache TokenCache, ttl time.Duration, logger *zap.Logger) (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TiktokenCounter{
		codec:  codec,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// ------------------------------------------------------------------------------------------------------
// CountTokens returns the token count of text as a single message. Cache errors are logged
// and the count is computed directly.
func (c *TiktokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if c.cache != nil {
		count, ok, err := c.cache.GetTokenCount(ctx, text)
		if err != nil {
			c.logger.Warn("Token cache lookup failed", zap.Error(err))
		} else if ok {
			return count, nil
		}
	}

	tokens, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode content: %w", err)
	}
	count := len(tokens) + messageOverhead

	if c.cache != nil {
		if err := c.cache.SetTokenCount(ctx, text, count, c.ttl); err != nil {
			c.logger.Warn("Token cache store failed", zap.Error(err))
		}
	}

	return count, nil
}
