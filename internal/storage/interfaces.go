package storage

import (
	"context"
	"errors"
	"time"

	"mpp-chat-portal/internal/models"
)

// ErrEmptyTranscript is returned when ReplaceLast has nothing to replace.
var ErrEmptyTranscript = errors.New("transcript has no turns")

// TranscriptStore keeps the ordered turns of each conversation. Turns are appended and the
// last one may be replaced in place; individual turns are never removed.
type TranscriptStore interface {
	Append(ctx context.Context, conversationID string, turn models.ChatTurn) error
	ReplaceLast(ctx context.Context, conversationID string, turn models.ChatTurn) error
	List(ctx context.Context, conversationID string) ([]models.ChatTurn, error)
	Clear(ctx context.Context, conversationID string) error
}

// TokenCache caches token counts keyed by text
type TokenCache interface {
	GetTokenCount(ctx context.Context, text string) (int, bool, error)
	SetTokenCount(ctx context.Context, text string, count int, ttl time.Duration) error
}

// TokenCounter counts model tokens in a piece of text
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
