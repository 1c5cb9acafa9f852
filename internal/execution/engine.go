package execution

import (
	"context"
	"errors"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/logger"
	"toolbridge/internal/tools"
)

// DefaultMaxTurns 限制一次 Run 中模型调用的次数，防止工具调用无限循环。
const DefaultMaxTurns = 10

// Options 定义引擎的可注入依赖。
type Options struct {
	Client agent.ModelClient
	// Tools 为空时不向模型提供工具。
	Tools          *tools.Registry
	Model          string
	MaxTurns       int
	MaxTokens      int64
	RequestTimeout time.Duration
	// OnMessage 在每条新消息进入历史后回调（用户消息除外），可用于实时渲染。
	OnMessage func(agent.Message)
}

// Engine 驱动“模型调用 -> 执行工具 -> 回填结果”的对话循环。
type Engine struct {
	client         agent.ModelClient
	tools          *tools.Registry
	model          string
	maxTurns       int
	maxTokens      int64
	requestTimeout time.Duration
	onMessage      func(agent.Message)
}

// NewEngine 构造一个新的执行引擎。
func NewEngine(opts Options) *Engine {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Engine{
		client:         opts.Client,
		tools:          opts.Tools,
		model:          opts.Model,
		maxTurns:       maxTurns,
		maxTokens:      opts.MaxTokens,
		requestTimeout: opts.RequestTimeout,
		onMessage:      opts.OnMessage,
	}
}

// Result 是一次 Run 的输出。Messages 包含传入的历史与本次新增的消息。
type Result struct {
	Messages  []agent.Message
	Usage     agent.TokenUsage
	Turns     int
	ToolCalls int
	Status    string
	// StopReason 说明循环为何结束：end_turn、max_turns 或 interrupted。
	StopReason string
	Duration   time.Duration
}

// Final 返回最后一条 assistant 消息的文本。
func (r Result) Final() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == agent.RoleAssistant {
			return r.Messages[i].Text()
		}
	}
	return ""
}

const (
	StopEndTurn     = "end_turn"
	StopMaxTurns    = "max_turns"
	StopInterrupted = "interrupted"
)

// Run 从 history 继续对话直到模型不再调用工具、达到 MaxTurns 或被中断。
// 工具结果追加到发起调用的同一条 assistant 消息中，紧跟在对应的调用之后。
// 被中断时返回已有的历史且 error 为 nil；其他错误连同已有结果一起返回。
func (e *Engine) Run(ctx context.Context, system string, history []agent.Message) (Result, error) {
	res := Result{Messages: append([]agent.Message(nil), history...)}
	start := time.Now()
	done := func(err error) (Result, error) {
		res.Duration = time.Since(start)
		return e.finish(res, err)
	}

	if e.client == nil {
		return done(stageError{Stage: stageSetup, Err: errors.New("no model client configured")})
	}
	if len(history) == 0 {
		return done(stageError{Stage: stageSetup, Err: errors.New("empty conversation")})
	}

	for res.Turns < e.maxTurns {
		if err := ctx.Err(); err != nil {
			return done(agent.ErrInterrupted)
		}
		res.Turns++

		resp, err := e.generate(ctx, system, res.Messages)
		if err != nil {
			return done(err)
		}
		res.Usage = res.Usage.Add(resp.Usage)

		msg := agent.Message{Role: agent.RoleAssistant, Content: append([]agent.ContentBlock(nil), resp.Content...)}
		calls := msg.ToolUses()
		if len(calls) == 0 || e.tools == nil {
			res.Messages = append(res.Messages, msg)
			e.emit(msg)
			res.StopReason = StopEndTurn
			return done(nil)
		}

		for _, call := range calls {
			result := e.tools.Execute(ctx, call)
			res.ToolCalls++
			if result.IsError {
				log.WithField("tool", call.Name).Warnf("tool %s (%s) returned an error", call.Name, call.ID)
			}
			msg.Content = append(msg.Content, result)
		}
		res.Messages = append(res.Messages, msg)
		e.emit(msg)
	}

	res.StopReason = StopMaxTurns
	log.Warnf("stopped after %d turns with tool calls still pending", res.Turns)
	return done(nil)
}

func (e *Engine) generate(ctx context.Context, system string, messages []agent.Message) (*agent.Response, error) {
	callCtx := ctx
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}
	req := agent.Request{
		SystemPrompt: system,
		Messages:     messages,
		Model:        e.model,
		MaxTokens:    e.maxTokens,
	}
	if e.tools != nil {
		req.Tools = e.tools.Specs()
		req.UseTools = len(req.Tools) > 0
	}
	resp, err := e.client.Generate(callCtx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, stageError{Stage: stageModel, Err: errors.New("empty response")}
	}
	return resp, nil
}

func (e *Engine) emit(msg agent.Message) {
	if e.onMessage != nil {
		e.onMessage(msg)
	}
}

func (e *Engine) finish(res Result, err error) (Result, error) {
	if errors.Is(err, agent.ErrInterrupted) {
		res.StopReason = StopInterrupted
		err = nil
	}
	res.Status = runStatus(res.StopReason, err)
	fields := logger.Fields{
		"turns":         res.Turns,
		"tool_calls":    res.ToolCalls,
		"input_tokens":  res.Usage.InputTokens,
		"output_tokens": res.Usage.OutputTokens,
		"stop_reason":   res.StopReason,
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("run failed")
		var se stageError
		if !errors.As(err, &se) {
			err = stageError{Stage: stageModel, Err: err}
		}
		return res, err
	}
	log.WithFields(fields).Infof("run %s", res.Status)
	return res, nil
}

func runStatus(stop string, err error) string {
	switch {
	case err != nil:
		return "failed"
	case stop == StopInterrupted:
		return "interrupted"
	case stop == StopMaxTurns:
		return "incomplete"
	default:
		return "completed"
	}
}

// Stage 返回错误发生的阶段（setup 或 model），无法识别时为空。
func Stage(err error) string {
	var se stageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
