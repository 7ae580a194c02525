package assistservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Coach answers coaching and rules questions through /chat/completions.
type Coach struct {
	api *apiClient
}

var _ roundservice.Coach = (*Coach)(nil)

// NewCoach creates a Coach.
func NewCoach(cfg Config, logger *slog.Logger, opts ...Option) (*Coach, error) {
	api, err := newAPIClient("assist-coach", cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &Coach{api: api}, nil
}

// buildMessages builds the conversation sent for req: the mode prompt, the round
// context when present, then the question.
func buildMessages(req rounddomain.CoachRequest) []chatMessage {
	msgs := []chatMessage{{Role: "system", Content: SystemPrompt(req.Mode, req.Language)}}
	if req.Context != nil {
		msgs = append(msgs, chatMessage{Role: "system", Content: RenderContext(*req.Context, req.Language)})
	}
	return append(msgs, chatMessage{Role: "user", Content: req.Message})
}

func (c *Coach) Respond(ctx context.Context, req rounddomain.CoachRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.api.cfg.ChatModel,
		Messages:    buildMessages(req),
		MaxTokens:   c.api.cfg.MaxTokens,
		Temperature: c.api.cfg.Temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var resp chatResponse
	if err := c.api.post(ctx, "/chat/completions", "application/json", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyResponse
	}

	c.api.logger.DebugContext(ctx, "Coach responded",
		slog.String("mode", string(req.Mode)),
		slog.Int("reply_length", len(reply)),
	)
	return reply, nil
}
