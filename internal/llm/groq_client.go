package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
)

// GroqFactory opens sessions on Groq's OpenAI-compatible API. Groq is stateless, so each
// session keeps its own message history.
type GroqFactory struct {
	client *openai.Client
	model  string
	spec   PromptSpec
}

// ------------------------------------------------------------------------------------------------------
func NewGroqFactory(apiKey, baseURL, model string, spec PromptSpec) *GroqFactory {
	config := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}

	if model == "" {
		model = DefaultGroqModel
	}

	return &GroqFactory{
		client: openai.NewClientWithConfig(config),
		model:  model,
		spec:   spec,
	}
}

// ------------------------------------------------------------------------------------------------------
func (f *GroqFactory) NewSession(ctx context.Context) (Session, error) {
	return &groqSession{
		client: f.client,
		model:  f.model,
		gen:    f.spec.Generation,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: f.spec.System},
		},
	}, nil
}

type groqSession struct {
	client *openai.Client
	model  string
	gen    Generation

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

// ------------------------------------------------------------------------------------------------------
func (s *groqSession) request(message string, stream bool) openai.ChatCompletionRequest {
	s.mu.Lock()
	messages := make([]openai.ChatCompletionMessage, len(s.history), len(s.history)+1)
	copy(messages, s.history)
	s.mu.Unlock()

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	return openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Stream:      stream,
		Temperature: s.gen.Temperature,
		TopP:        s.gen.TopP,
		MaxTokens:   s.gen.MaxOutputTokens,
	}
}

// ------------------------------------------------------------------------------------------------------
// remember appends a completed exchange to the session history.
func (s *groqSession) remember(message, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
}

// ------------------------------------------------------------------------------------------------------
func (s *groqSession) Send(ctx context.Context, message string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.request(message, false))
	if err != nil {
		return "", fmt.Errorf("groq completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response content in API response")
	}

	reply := resp.Choices[0].Message.Content
	s.remember(message, reply)
	return reply, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *groqSession) Stream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := s.client.CreateChatCompletionStream(ctx, s.request(message, true))
		if err != nil {
			yield("", fmt.Errorf("groq stream: %w", err))
			return
		}
		defer stream.Close()

		var full strings.Builder
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield("", fmt.Errorf("failed to read stream: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}

			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			full.WriteString(content)
			if !yield(content, nil) {
				return
			}
		}

		s.remember(message, full.String())
	}
}
