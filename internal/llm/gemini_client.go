package llm

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiFactory opens chat sessions on the Gemini API.
type GeminiFactory struct {
	client *genai.Client
	model  string
	spec   PromptSpec
}

// ------------------------------------------------------------------------------------------------------
func NewGeminiFactory(ctx context.Context, apiKey, model string, spec PromptSpec) (*GeminiFactory, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiFactory{client: client, model: model, spec: spec}, nil
}

// ------------------------------------------------------------------------------------------------------
func (f *GeminiFactory) NewSession(ctx context.Context) (Session, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(f.spec.System, genai.RoleUser),
		Temperature:       genai.Ptr(f.spec.Generation.Temperature),
		TopP:              genai.Ptr(f.spec.Generation.TopP),
		MaxOutputTokens:   int32(f.spec.Generation.MaxOutputTokens),
	}

	chat, err := f.client.Chats.Create(ctx, f.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat *genai.Chat
}

// ------------------------------------------------------------------------------------------------------
func (s *geminiSession) Send(ctx context.Context, message string) (string, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return resp.Text(), nil
}

// ------------------------------------------------------------------------------------------------------
func (s *geminiSession) Stream(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if err != nil {
				yield("", fmt.Errorf("stream message: %w", err))
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
