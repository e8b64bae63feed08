package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mpp-chat-portal/internal/chat"
	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/llm"
	"mpp-chat-portal/internal/models"
	"mpp-chat-portal/internal/ratelimit"
	"mpp-chat-portal/internal/render"
	"mpp-chat-portal/internal/storage"
	"mpp-chat-portal/internal/suggest"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MsgTransportError finalizes a turn whose reply could not be delivered.
const MsgTransportError = "Maaf, koneksi terputus sebelum jawaban selesai. Silakan kirim ulang pertanyaan Anda."

const (
	unknownService        = "Lainnya"
	outcomeTransport      = "transport_error"
	defaultIdleTimeout    = 2 * time.Hour
	chatLogWriteTimeout   = 5 * time.Second
	defaultMaxQueryTokens = 512
)

// ChatRequest represents the incoming chat request
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	Stream         bool   `json:"stream"`
}

// ChatResponse is the finalized reply of one turn
type ChatResponse struct {
	ConversationID string              `json:"conversationId"`
	Reply          models.ChatTurn     `json:"reply"`
	Rendered       render.RenderedTurn `json:"rendered"`
	Outcome        string              `json:"outcome"`
	FollowUps      []string            `json:"followUps"`
}

// conversation pairs a visitor's model session with a one-slot semaphore so turns are
// answered one at a time.
type conversation struct {
	manager  *chat.Manager
	slot     chan struct{}
	lastUsed time.Time
}

// chatService handles chat business logic
type chatService struct {
	factory     llm.SessionFactory
	limiter     *ratelimit.Limiter
	store       storage.TranscriptStore
	counter     storage.TokenCounter
	suggestions *suggest.Engine
	logger      *zap.Logger

	chatLogs       ChatLogWriter
	catalog        CatalogReader
	observer       ReplyObserver
	maxQueryTokens int
	idleTimeout    time.Duration
	now            func() time.Time

	mu            sync.Mutex
	conversations map[string]*conversation
	lastPrune     time.Time
}

// ChatOption configures optional collaborators of the chat service
type ChatOption func(*chatService)

func WithChatLog(w ChatLogWriter) ChatOption {
	return func(s *chatService) { s.chatLogs = w }
}

func WithCatalog(c CatalogReader) ChatOption {
	return func(s *chatService) { s.catalog = c }
}

func WithObserver(o ReplyObserver) ChatOption {
	return func(s *chatService) { s.observer = o }
}

func WithMaxQueryTokens(n int) ChatOption {
	return func(s *chatService) { s.maxQueryTokens = n }
}

// WithIdleTimeout sets how long an unused conversation keeps its model session
func WithIdleTimeout(d time.Duration) ChatOption {
	return func(s *chatService) { s.idleTimeout = d }
}

func WithClock(now func() time.Time) ChatOption {
	return func(s *chatService) { s.now = now }
}

// ------------------------------------------------------------------------------------------------------
// NewChatService creates a new chat service with injected dependencies
func NewChatService(
	factory llm.SessionFactory,
	limiter *ratelimit.Limiter,
	store storage.TranscriptStore,
	counter storage.TokenCounter,
	suggestions *suggest.Engine,
	logger *zap.Logger,
	opts ...ChatOption,
) ChatService {
	s := &chatService{
		factory:        factory,
		limiter:        limiter,
		store:          store,
		counter:        counter,
		suggestions:    suggestions,
		logger:         logger,
		maxQueryTokens: defaultMaxQueryTokens,
		idleTimeout:    defaultIdleTimeout,
		now:            time.Now,
		conversations:  make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ------------------------------------------------------------------------------------------------------
// ProcessChat answers one message with a single non-streaming model call
func (s *chatService) ProcessChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return s.runTurn(ctx, req, func(conv *conversation) (chat.Result, error) {
		return conv.manager.Send(ctx, req.Message), nil
	})
}

// ------------------------------------------------------------------------------------------------------
// ProcessChatStream answers one message, passing each fragment to onToken as it arrives.
// The transcript's placeholder turn tracks the accumulated text.
func (s *chatService) ProcessChatStream(ctx context.Context, req *ChatRequest, onToken func(string) error) (*ChatResponse, error) {
	return s.runTurn(ctx, req, func(conv *conversation) (chat.Result, error) {
		stream := conv.manager.SendStream(ctx, req.Message)

		for fragment := range stream.Fragments() {
			if err := ctx.Err(); err != nil {
				stream.Close()
				return chat.Result{}, err
			}

			partial := models.ChatTurn{Role: models.RoleAssistant, Content: models.TextReply(stream.Text()), CreatedAt: s.now()}
			if err := s.store.ReplaceLast(ctx, req.ConversationID, partial); err != nil {
				s.logger.Warn("Failed to update placeholder turn", zap.Error(err))
			}

			if onToken != nil {
				if err := onToken(fragment); err != nil {
					stream.Close()
					return chat.Result{}, errors.Join(apperror.ErrTransport, err)
				}
			}
		}

		if err := ctx.Err(); err != nil {
			stream.Close()
			return chat.Result{}, err
		}
		return stream.Result(), nil
	})
}

// ------------------------------------------------------------------------------------------------------
// runTurn appends the user turn and a placeholder, obtains the reply and finalizes the
// placeholder with it.
func (s *chatService) runTurn(ctx context.Context, req *ChatRequest, answer func(*conversation) (chat.Result, error)) (*ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err // Already wrapped with AppError
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	promptTokens, err := s.checkTokens(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	conv := s.conversation(req.ConversationID)
	if err := s.acquire(ctx, conv); err != nil {
		return nil, err
	}
	defer s.release(conv)

	start := s.now()

	user := models.ChatTurn{Role: models.RoleUser, Content: models.TextReply(req.Message), CreatedAt: start}
	if err := s.store.Append(ctx, req.ConversationID, user); err != nil {
		return nil, apperror.NewInternalError("failed to store message", err)
	}
	placeholder := models.ChatTurn{Role: models.RoleAssistant, Content: models.TextReply(""), CreatedAt: start}
	if err := s.store.Append(ctx, req.ConversationID, placeholder); err != nil {
		return nil, apperror.NewInternalError("failed to store message", err)
	}

	result, err := answer(conv)
	if err != nil {
		return nil, s.failTurn(ctx, req, promptTokens, err)
	}

	final := models.ChatTurn{Role: models.RoleAssistant, Content: result.Reply, CreatedAt: s.now()}
	if err := s.store.ReplaceLast(ctx, req.ConversationID, final); err != nil {
		return nil, apperror.NewInternalError("failed to store reply", err)
	}

	elapsed := s.now().Sub(start)
	s.logger.Info("Chat turn completed",
		zap.String("conversation_id", req.ConversationID),
		zap.String("outcome", result.Outcome.String()),
		zap.Duration("duration", elapsed),
	)
	s.observe(result.Outcome.String(), promptTokens)
	s.recordChatLog(ctx, req.Message, result.Reply, elapsed)

	return &ChatResponse{
		ConversationID: req.ConversationID,
		Reply:          final,
		Rendered:       render.Turn(final),
		Outcome:        result.Outcome.String(),
		FollowUps:      s.suggestions.For(req.Message),
	}, nil
}

// ------------------------------------------------------------------------------------------------------
// failTurn finalizes the placeholder as an error turn after a delivery failure
func (s *chatService) failTurn(ctx context.Context, req *ChatRequest, promptTokens int, cause error) error {
	s.logger.Warn("Chat turn interrupted",
		zap.String("conversation_id", req.ConversationID),
		zap.Error(cause),
	)
	s.observe(outcomeTransport, promptTokens)

	turn := models.ChatTurn{Role: models.RoleError, Content: models.TextReply(MsgTransportError), CreatedAt: s.now()}
	if err := s.store.ReplaceLast(context.WithoutCancel(ctx), req.ConversationID, turn); err != nil {
		s.logger.Error("Failed to store error turn", zap.Error(err))
	}

	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return apperror.NewTimeoutError("reply was not completed in time", cause)
	}
	return apperror.NewInternalError("reply could not be delivered", cause)
}

// ------------------------------------------------------------------------------------------------------
func (s *chatService) checkTokens(ctx context.Context, message string) (int, error) {
	if s.counter == nil {
		return 0, nil
	}

	count, err := s.counter.CountTokens(ctx, message)
	if err != nil {
		s.logger.Warn("Failed to count tokens", zap.Error(err))
		return 0, nil
	}

	if s.maxQueryTokens > 0 && count > s.maxQueryTokens {
		return count, apperror.NewValidationError(
			fmt.Sprintf("message is too long: %d tokens, limit is %d", count, s.maxQueryTokens),
			apperror.ErrMessageTooLong,
		)
	}
	return count, nil
}

// ------------------------------------------------------------------------------------------------------
// conversation returns the conversation for id, creating it on first use. Idle conversations
// are dropped at most once a minute.
func (s *chatService) conversation(id string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastPrune) > time.Minute {
		s.pruneLocked(now)
		s.lastPrune = now
	}

	conv, ok := s.conversations[id]
	if !ok {
		conv = &conversation{
			manager: chat.NewManager(s.factory, s.limiter, s.logger.With(zap.String("conversation_id", id))),
			slot:    make(chan struct{}, 1),
		}
		s.conversations[id] = conv
	}
	conv.lastUsed = now
	return conv
}

func (s *chatService) pruneLocked(now time.Time) {
	if s.idleTimeout <= 0 {
		return
	}
	for id, conv := range s.conversations {
		if len(conv.slot) == 0 && now.Sub(conv.lastUsed) > s.idleTimeout {
			delete(s.conversations, id)
		}
	}
}

// ------------------------------------------------------------------------------------------------------
// acquire waits for the conversation's previous turn to finish
func (s *chatService) acquire(ctx context.Context, conv *conversation) error {
	select {
	case conv.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperror.NewTimeoutError(
			"previous message is still being answered",
			fmt.Errorf("%w: %w", apperror.ErrConversationBusy, ctx.Err()),
		)
	}
}

func (s *chatService) release(conv *conversation) {
	s.mu.Lock()
	conv.lastUsed = s.now()
	s.mu.Unlock()
	<-conv.slot
}

// ------------------------------------------------------------------------------------------------------
func (s *chatService) observe(outcome string, promptTokens int) {
	if s.observer != nil {
		s.observer.ObserveReply(outcome, promptTokens)
	}
}

// ------------------------------------------------------------------------------------------------------
// recordChatLog stores the turn for the admin dashboard. Failures are logged only.
func (s *chatService) recordChatLog(ctx context.Context, query string, reply models.Reply, elapsed time.Duration) {
	if s.chatLogs == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), chatLogWriteTimeout)
	defer cancel()

	entry := &models.ChatLog{
		Query:           query,
		ServiceInquired: s.serviceInquired(ctx, query, reply),
		ResponseTime:    elapsed.Milliseconds(),
		WasSuccessful:   reply.IsRecord(),
	}
	if err := s.chatLogs.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record chat log", zap.Error(err))
	}
}

// serviceInquired names the service a query was about
func (s *chatService) serviceInquired(ctx context.Context, query string, reply models.Reply) string {
	if reply.IsRecord() {
		return reply.Record.Name
	}
	if s.catalog == nil {
		return unknownService
	}

	names, err := s.catalog.CatalogNames(ctx)
	if err != nil {
		s.logger.Warn("Failed to load catalog names", zap.Error(err))
		return unknownService
	}

	lowered := strings.ToLower(query)
	for _, name := range names {
		if name != "" && strings.Contains(lowered, strings.ToLower(name)) {
			return name
		}
	}
	return unknownService
}

// ------------------------------------------------------------------------------------------------------
// ResetConversation starts a new model session and discards the transcript
func (s *chatService) ResetConversation(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return apperror.NewValidationError("conversation id is required", nil)
	}

	conv := s.conversation(conversationID)
	if err := s.acquire(ctx, conv); err != nil {
		return err
	}
	defer s.release(conv)

	if err := conv.manager.CreateSession(ctx); err != nil {
		return apperror.NewLLMError("failed to start a new session", err)
	}
	if err := s.store.Clear(ctx, conversationID); err != nil {
		return apperror.NewInternalError("failed to clear transcript", err)
	}

	s.logger.Info("Conversation reset", zap.String("conversation_id", conversationID))
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *chatService) Transcript(ctx context.Context, conversationID string) ([]models.ChatTurn, error) {
	turns, err := s.store.List(ctx, conversationID)
	if err != nil {
		return nil, apperror.NewInternalError("failed to load transcript", err)
	}
	return turns, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *chatService) Suggestions(query string) []string {
	return s.suggestions.For(query)
}

// ------------------------------------------------------------------------------------------------------
func (s *chatService) QuickCategories() []string {
	return s.suggestions.QuickCategories()
}
