// Package openai provides a reference LLM collaborator backed by the
// OpenAI Chat Completions API. It implements both [dialogue.Generator]
// (free-form INQUIRY replies) and [external.IntentExtractor] (structured
// intent classification) from a single client, since both calls share the
// same model and conversation-formatting logic.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/melpes/voicekiosk/internal/dialogue"
	"github.com/melpes/voicekiosk/internal/external"
	"github.com/melpes/voicekiosk/pkg/types"
)

// Client is an LLM collaborator backed by the OpenAI API.
type Client struct {
	client oai.Client
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL (e.g. to target a
// compatible local inference server).
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a Client. apiKey and model must be non-empty.
func New(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Client{client: oai.NewClient(reqOpts...), model: model}, nil
}

// ExtractIntent implements [external.IntentExtractor] by asking the model
// to emit JSON matching intentResponseSchema, then parsing it.
func (c *Client) ExtractIntent(ctx context.Context, req external.IntentRequest) (dialogue.Intent, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(intentSystemPrompt(req.MenuText)),
		},
	}
	params.Messages = append(params.Messages, historyMessages(req.History)...)
	params.Messages = append(params.Messages, oai.UserMessage(req.Utterance))
	params.Temperature = param.NewOpt(0.0)
	params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   "kiosk_intent",
				Schema: intentResponseSchema,
				Strict: param.NewOpt(true),
			},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return dialogue.Intent{}, fmt.Errorf("openai: intent completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return dialogue.Intent{}, fmt.Errorf("openai: empty choices in intent response")
	}

	return parseIntentEnvelope(resp.Choices[0].Message.Content, req.Utterance)
}

// Generate implements [dialogue.Generator] for free-form INQUIRY replies.
func (c *Client) Generate(ctx context.Context, req dialogue.GenerateRequest) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(req.SystemPrompt),
		},
	}
	if req.MenuText != "" {
		params.Messages = append(params.Messages, oai.SystemMessage("메뉴:\n"+req.MenuText))
	}
	if req.OrderSummary != "" {
		params.Messages = append(params.Messages, oai.SystemMessage("현재 주문:\n"+req.OrderSummary))
	}
	params.Messages = append(params.Messages, historyMessages(req.History)...)
	params.Messages = append(params.Messages, oai.UserMessage(req.Utterance))

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: free-form completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func historyMessages(history []types.Message) []oai.ChatCompletionMessageParamUnion {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "user":
			out = append(out, oai.UserMessage(m.Content))
		case "assistant":
			out = append(out, oai.AssistantMessage(m.Content))
		}
	}
	return out
}

func intentSystemPrompt(menuText string) string {
	return "당신은 음성 키오스크의 발화 의도 분류기입니다. " +
		"ORDER/MODIFY/CANCEL/PAYMENT/INQUIRY/UNKNOWN 중 하나로 분류하고, " +
		"지정된 JSON 스키마로만 응답하세요.\n메뉴:\n" + menuText
}

var (
	_ external.IntentExtractor = (*Client)(nil)
	_ dialogue.Generator       = (*Client)(nil)
)
