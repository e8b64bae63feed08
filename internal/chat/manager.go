package chat

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"mpp-chat-portal/internal/extract"
	"mpp-chat-portal/internal/llm"
	"mpp-chat-portal/internal/models"
	"mpp-chat-portal/internal/ratelimit"

	"go.uber.org/zap"
)

// Result is the resolved reply of one send together with how it was produced.
type Result struct {
	Reply   models.Reply
	Outcome Outcome
}

// Manager owns one conversational session on the remote model. Sends on the same manager
// must be serialized by the caller.
type Manager struct {
	factory llm.SessionFactory
	limiter *ratelimit.Limiter
	logger  *zap.Logger

	mu      sync.Mutex
	session llm.Session
}

// ------------------------------------------------------------------------------------------------------
func NewManager(factory llm.SessionFactory, limiter *ratelimit.Limiter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		factory: factory,
		limiter: limiter,
		logger:  logger,
	}
}

// ------------------------------------------------------------------------------------------------------
// CreateSession replaces the current session with a fresh one. Earlier conversation memory
// is discarded.
func (m *Manager) CreateSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(ctx)
}

func (m *Manager) createLocked(ctx context.Context) error {
	session, err := m.factory.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	m.session = session
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (m *Manager) HasSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// ------------------------------------------------------------------------------------------------------
func (m *Manager) activeSession(ctx context.Context) (llm.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		if err := m.createLocked(ctx); err != nil {
			return nil, err
		}
	}
	return m.session, nil
}

// ------------------------------------------------------------------------------------------------------
// admit runs the checks that happen before any remote call.
func (m *Manager) admit(message string) (Result, bool) {
	if !IsSafe(message) {
		m.logger.Warn("Rejected unsafe message", zap.Int("length", len(message)))
		return Result{Reply: models.TextReply(MsgRejected), Outcome: OutcomeRejected}, false
	}

	if !m.limiter.TryAcquire() {
		m.logger.Warn("Rate limit reached for language model calls")
		return Result{Reply: models.TextReply(MsgRateLimited), Outcome: OutcomeRateLimited}, false
	}

	return Result{}, true
}

// ------------------------------------------------------------------------------------------------------
// Send performs one non-streaming exchange and resolves the reply.
func (m *Manager) Send(ctx context.Context, message string) Result {
	if result, ok := m.admit(message); !ok {
		return result
	}

	session, err := m.activeSession(ctx)
	if err != nil {
		return m.failure("Failed to open chat session", err)
	}

	text, err := session.Send(ctx, message)
	if err != nil {
		return m.failure("Chat request failed", err)
	}

	return m.resolve(text)
}

// ------------------------------------------------------------------------------------------------------
// SendStream starts a streaming exchange. Fragments are pulled from the remote stream as the
// caller ranges over Stream.Fragments; the caller must finish with Result or Close.
func (m *Manager) SendStream(ctx context.Context, message string) *Stream {
	if result, ok := m.admit(message); !ok {
		return resolvedStream(result)
	}

	session, err := m.activeSession(ctx)
	if err != nil {
		return resolvedStream(m.failure("Failed to open chat session", err))
	}

	return newStream(session.Stream(ctx, message), func(text string, err error) Result {
		if err != nil {
			return m.failure("Chat stream failed", err)
		}
		return m.resolve(text)
	})
}

// ------------------------------------------------------------------------------------------------------
func (m *Manager) resolve(text string) Result {
	reply, err := extract.Resolve(text)
	if err != nil {
		return m.failure("Unusable model response", err)
	}

	if reply.IsRecord() {
		return Result{Reply: reply, Outcome: OutcomeRecord}
	}
	return Result{Reply: reply, Outcome: OutcomeText}
}

// ------------------------------------------------------------------------------------------------------
// failure logs the cause for operators and returns the generic apology.
func (m *Manager) failure(msg string, err error) Result {
	m.logger.Error(msg, zap.Error(err))
	return Result{Reply: models.TextReply(MsgFailure), Outcome: OutcomeFailure}
}

// Stream is an in-flight streaming reply.
type Stream struct {
	next   func() (string, error, bool)
	stop   func()
	finish func(string, error) Result

	buf    []byte
	err    error
	done   bool
	result *Result
}

func newStream(src iter.Seq2[string, error], finish func(string, error) Result) *Stream {
	next, stop := iter.Pull2(src)
	return &Stream{next: next, stop: stop, finish: finish}
}

func resolvedStream(result Result) *Stream {
	return &Stream{done: true, result: &result}
}

// ------------------------------------------------------------------------------------------------------
// Fragments yields reply fragments in the order they arrive. Breaking out of the loop stops
// forwarding; the remaining fragments are still accumulated by Result.
func (s *Stream) Fragments() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			fragment, ok := s.advance()
			if !ok {
				return
			}
			if !yield(fragment) {
				return
			}
		}
	}
}

func (s *Stream) advance() (string, bool) {
	if s.done {
		return "", false
	}

	fragment, err, ok := s.next()
	if !ok {
		s.done = true
		return "", false
	}
	if err != nil {
		s.err = err
		s.done = true
		return "", false
	}

	s.buf = append(s.buf, fragment...)
	return fragment, true
}

// ------------------------------------------------------------------------------------------------------
// Text returns what has been accumulated so far.
func (s *Stream) Text() string {
	return string(s.buf)
}

// ------------------------------------------------------------------------------------------------------
// Result drains unread fragments, releases the remote stream and resolves the reply.
func (s *Stream) Result() Result {
	if s.result != nil {
		return *s.result
	}

	for {
		if _, ok := s.advance(); !ok {
			break
		}
	}
	s.stop()

	result := s.finish(string(s.buf), s.err)
	s.result = &result
	return result
}

// ------------------------------------------------------------------------------------------------------
// Close abandons the stream without resolving it.
func (s *Stream) Close() {
	if s.stop != nil {
		s.stop()
	}
	s.done = true
}
