// Package gateway wraps the external AI services: chat/vision completion and
// local speech-to-text. Every failure leaving this package is a
// domain.KindGateway error.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"orderverifier/internal/domain"
	"orderverifier/internal/metrics"
	"orderverifier/pkg/logger"
)

// Prompt is one deterministic chat completion request.
type Prompt struct {
	// Name labels the call in logs and metrics.
	Name   string
	Model  string
	System string
	User   string
	// ImageDataURI is attached to the user message as inline image content.
	ImageDataURI string
}

// Completer returns the raw, untrusted text the model answered with.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

type OpenAI struct {
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIClient builds a client for the OpenAI API or any compatible server.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{}

	return openai.NewClientWithConfig(cfg)
}

func NewOpenAI(client *openai.Client, timeout time.Duration) *OpenAI {
	return &OpenAI{
		client:  client,
		timeout: timeout,
	}
}

// Complete sends the prompt once, without retries. The call is detached from
// the caller's cancellation and bounded by the gateway timeout instead.
func (o *OpenAI) Complete(ctx context.Context, prompt Prompt) (string, error) {
	log := logger.FromCtx(ctx).With(slog.String("call", prompt.Name), slog.String("model", prompt.Model))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:    prompt.Model,
		Messages: prompt.messages(),
		// zero is dropped by omitempty and the API would fall back to 1
		Temperature: math.SmallestNonzeroFloat32,
	}

	log.Debug("chat completion request", slog.Int("prompt_len", len(prompt.User)), slog.Bool("image", prompt.ImageDataURI != ""))
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, request)
	if err == nil && len(resp.Choices) == 0 {
		err = domain.GatewayError("language model returned no choices", nil)
	}
	metrics.ObserveGateway(prompt.Name, start, err)
	if err != nil {
		log.Error("chat completion failed", slog.Duration("elapsed", time.Since(start)), logger.Error(err))
		return "", completionError(err, o.timeout)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Debug("chat completion response",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("reply_len", len(content)),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
	)

	return content, nil
}

func (p Prompt) messages() []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}

	if p.ImageDataURI == "" {
		return append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: p.User,
		})
	}

	return append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: p.User,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    p.ImageDataURI,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	})
}

func completionError(err error, timeout time.Duration) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.GatewayError(fmt.Sprintf("language model request timed out after %s", timeout), err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.GatewayError(fmt.Sprintf("language model rejected the request (status %d)", apiErr.HTTPStatusCode), err)
	}

	return domain.GatewayError("language model request failed", err)
}
