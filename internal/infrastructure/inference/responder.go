// Package inference implements the language model responder on top of any
// OpenAI-compatible chat completion endpoint.
package inference

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"tangent-server/internal/config"
	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/utils/apperrors"
)

// OpenAIResponder calls a hosted chat completion API and returns a single
// reply string per invocation.
type OpenAIResponder struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

var _ conversation.Responder = (*OpenAIResponder)(nil)

func NewOpenAIResponder(cfg *config.Config) *OpenAIResponder {
	clientConfig := openai.DefaultConfig(cfg.ResponderAPIKey)
	if cfg.ResponderBaseURL != "" {
		clientConfig.BaseURL = cfg.ResponderBaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.ResponderTimeout}

	return &OpenAIResponder{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.ResponderModel,
		maxTokens:   cfg.ResponderMaxTokens,
		temperature: cfg.ResponderTemp,
	}
}

// GenerateReply sends the ordered history to the completion endpoint. The
// last element of history is the newest user turn; everything before it is
// the model's conversational context.
func (r *OpenAIResponder) GenerateReply(ctx context.Context, history []conversation.Turn) (string, error) {
	if len(history) == 0 {
		return "", apperrors.New(ctx, apperrors.LayerInfrastructure, apperrors.ErrorTypeValidation, "empty message history", nil)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", classifyError(ctx, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.New(ctx, apperrors.LayerInfrastructure, apperrors.ErrorTypeResponder, "no response content from model", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyError separates rate limiting from other upstream failures.
func classifyError(ctx context.Context, err error) error {
	log := logger.GetLogger()

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			log.Warn().Err(err).Msg("responder rate limited")
			return apperrors.New(ctx, apperrors.LayerInfrastructure, apperrors.ErrorTypeRateLimited,
				"API rate limit exceeded. Please check your API quota.", err)
		}
		return apperrors.New(ctx, apperrors.LayerInfrastructure, apperrors.ErrorTypeResponder, apiErr.Message, err)
	}

	log.Error().Err(err).Msg("responder call failed")
	return apperrors.New(ctx, apperrors.LayerInfrastructure, apperrors.ErrorTypeResponder, "model invocation failed", err)
}
