package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/agent/catalog"
	"toolbridge/internal/logger"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	ProviderName   = "anthropic"
	DefaultBaseURL = "https://api.anthropic.com"
)

type Options struct {
	Token      string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client 直接调用 Anthropic Messages API，与 openrouter.Client 共用同一套内容块语义。
type Client struct {
	api   *anthropic.Client
	model string
}

var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, &agent.ConfigError{Provider: ProviderName, Field: "ANTHROPIC_API_KEY"}
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	client := anthropic.NewClient(reqOpts...)
	return &Client{
		api:   &client,
		model: strings.TrimSpace(opts.Model),
	}, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
		base = strings.TrimRight(base, "/")
	}
	return base
}

func (c *Client) resolveModel(m string) anthropic.Model {
	if strings.TrimSpace(m) != "" {
		return anthropic.Model(strings.TrimSpace(m))
	}
	if c.model != "" {
		return anthropic.Model(c.model)
	}
	return anthropic.Model(catalog.Default(catalog.ProviderAnthropic).Name)
}

// Generate 发送一次 Messages 请求。ctx 被取消时返回 agent.ErrInterrupted。
func (c *Client) Generate(ctx context.Context, req agent.Request) (*agent.Response, error) {
	if c == nil || c.api == nil {
		return nil, &agent.ConfigError{Provider: ProviderName, Field: "client", Reason: "is not initialized"}
	}
	model := c.resolveModel(req.Model)
	params := buildMessageParams(req, model)

	llm := logger.GlobalLLMLogger()
	llm.Request(ProviderName, string(model), agent.ToLLMMessages(req.Messages), len(params.Tools))

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			llm.Interrupted(ProviderName, string(model))
			return nil, agent.ErrInterrupted
		}
		wrapped := wrapHTTPError(err)
		llm.Error(ProviderName, string(model), wrapped)
		return nil, wrapped
	}

	blocks, usage := decodeMessage(string(model), msg)
	llm.Response(ProviderName, string(model), agent.SummarizeBlocks(blocks), logger.LLMUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	})
	return &agent.Response{Content: blocks, Usage: usage}, nil
}

func wrapHTTPError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		raw := strings.TrimSpace(apiErr.RawJSON())
		msg := raw
		var body struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal([]byte(raw), &body) == nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return &agent.ProviderError{Provider: ProviderName, StatusCode: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &agent.ProviderError{Provider: ProviderName, Message: err.Error(), Err: err}
}
