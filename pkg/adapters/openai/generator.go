package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You are the assistant of an outreach onboarding interview.
The controller could not interpret the user's last message. Answer it and steer the user back
to the current step.

Reply with a single JSON object and nothing else:
{"text": string, "options": [string], "status": "needs_input"|"ready", "missing": [string],
 "workflowUpdates": {"<answer key>": [string]}}
Only "text" is required. Use "options" for choices the user can click. Use "workflowUpdates"
only for answers the user stated explicitly, keyed like "platforms", "<platform>.features" or
"<platform>.<feature>.delay".`

const fastModeHint = "Keep the answer under two sentences."

// Generator delegates replies to an OpenAI chat completion model.
type Generator struct {
	client openai.Client
	model  string
	logger *slog.Logger
	opts   []option.RequestOption
}

// Option configures the Generator.
type Option func(*Generator)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(g *Generator) {
		if url != "" {
			g.opts = append(g.opts, option.WithBaseURL(url))
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator authenticated with apiKey.
func New(apiKey string, opts ...Option) *Generator {
	g := &Generator{
		model:  DefaultModel,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.client = openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, g.opts...)...)
	return g
}

// Generate implements ports.Generator.
func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (*ports.GenerateResponse, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return nil, err
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	content := completion.Choices[0].Message.Content
	resp, err := decodeResponse(content)
	if err != nil {
		g.logger.DebugContext(ctx, "Model answered in prose", "err", err)
		return &ports.GenerateResponse{Text: strings.TrimSpace(content)}, nil
	}
	return resp, nil
}

func buildMessages(req ports.GenerateRequest) ([]openai.ChatCompletionMessageParamUnion, error) {
	bundle, err := json.Marshal(req.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if req.Context.FastMode {
		sb.WriteString("\n")
		sb.WriteString(fastModeHint)
	}
	if req.QuestionKey != "" {
		fmt.Fprintf(&sb, "\n\nPending question key: %s", req.QuestionKey)
	}
	sb.WriteString("\n\nSession context:\n")
	sb.Write(bundle)

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(sb.String())}
	for _, turn := range req.ConversationHistory {
		switch turn.Role {
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	messages = append(messages, openai.UserMessage(req.Message))
	return messages, nil
}

// decodeResponse reads the JSON object the model was asked for. Models often wrap it in
// a fenced block, so fences are stripped first.
func decodeResponse(content string) (*ports.GenerateResponse, error) {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	var resp ports.GenerateResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, errors.New("response has no text")
	}
	return &resp, nil
}
