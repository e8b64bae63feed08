package llm

import (
	"context"
	"iter"
)

// Session is one conversational context on the remote model. Messages sent on a session
// see the earlier messages of the same session.
type Session interface {
	// Send performs a single non-streaming exchange.
	Send(ctx context.Context, message string) (string, error)
	// Stream yields reply fragments in arrival order. Concatenated, they equal the full reply.
	// Stopping the iteration early releases the underlying request.
	Stream(ctx context.Context, message string) iter.Seq2[string, error]
}

// SessionFactory opens sessions that carry the system instruction and generation settings.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}
