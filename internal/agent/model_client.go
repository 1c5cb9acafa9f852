package agent

import (
	"context"
	"errors"

	"toolbridge/internal/logger"
)

// ModelClient 定义模型客户端接口。Generate 在 ctx 被取消时返回 ErrInterrupted。
type ModelClient interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// EchoClient is a fallback when no API key is available.
type EchoClient struct {
	Prefix string
}

func (c EchoClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrInterrupted
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("no messages to echo")
	}
	last := req.Messages[len(req.Messages)-1]
	return &Response{Content: []ContentBlock{TextBlock{Text: c.Prefix + last.Text()}}}, nil
}

// ToLLMMessages 将内部消息转换为日志友好的结构。
func ToLLMMessages(msgs []Message) []logger.LLMMessage {
	out := make([]logger.LLMMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, logger.LLMMessage{
			Role:    string(msg.Role),
			Content: SummarizeBlocks(msg.Content),
		})
	}
	return out
}
