// Package llm provides the model-invocation service used by the
// summarization engine. All providers speak the OpenAI-compatible protocol.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Options carries per-invocation knobs.
type Options struct {
	// Temperature overrides the service default when non-nil.
	Temperature *float32

	// MaxOutputTokens caps the reply length when > 0. This is advisory
	// from the engine's point of view; enforcement is up to the provider.
	MaxOutputTokens int

	// JSONOutput asks the provider for a JSON-mode reply when supported.
	JSONOutput bool
}

// Service is the model-invocation interface consumed by the engine: one
// system prompt plus an ordered role-tagged transcript in, assistant text
// out.
type Service interface {
	Invoke(ctx context.Context, systemPrompt string, transcript []Message, opts Options) (string, error)
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, dashscope, openrouter, ollama
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32 // default: 0.3
	Timeout     int     // request timeout in seconds (default: 120)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	temperature float32
	timeout     int
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) Invoke(ctx context.Context, systemPrompt string, transcript []Message, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	temperature := s.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		Messages:    convertMessages(systemPrompt, transcript),
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.JSONOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	slog.Debug("llm: invoke",
		"model", s.model,
		"transcript_len", len(transcript),
		"max_output_tokens", opts.MaxOutputTokens,
		"json_output", opts.JSONOutput,
	)

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("llm: invoke failed", "model", s.model, "error", err)
		return "", fmt.Errorf("LLM invoke failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from LLM")
	}

	slog.Debug("llm: invoke done",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(systemPrompt string, transcript []Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range transcript {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return messages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
