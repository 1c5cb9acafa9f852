package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/execution"
	"toolbridge/internal/instructions"
	"toolbridge/internal/render"
	"toolbridge/internal/session"
	"toolbridge/internal/tools"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
)

type jsonEvent struct {
	Type     string      `json:"type"`
	ThreadID string      `json:"thread_id,omitempty"`
	Message  *agentEvent `json:"message,omitempty"`
	Usage    *usageEvent `json:"usage,omitempty"`
	Status   string      `json:"status,omitempty"`
	Stop     string      `json:"stop_reason,omitempty"`
	Error    *eventError `json:"error,omitempty"`
}

type agentEvent struct {
	Role    agent.Role           `json:"role"`
	Content []agent.ContentBlock `json:"content"`
}

type usageEvent struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type eventError struct {
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

var encodeMu sync.Mutex

func emitJSON(out io.Writer, ev jsonEvent) {
	encodeMu.Lock()
	defer encodeMu.Unlock()
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warnf("encode %s event: %v", ev.Type, err)
		return
	}
	_, _ = fmt.Fprintln(out, string(data))
}

type askOptions struct {
	common     commonFlags
	images     csvSlice
	transcript string
	save       string
	system     string
	maxTurns   int
	noTools    bool
	dryRun     bool
	copyAnswer bool
	jsonOut    bool
	plain      bool
	width      int

	sessionID      string
	resumeLast     bool
	listSessions   bool
	ephemeral      bool
	noInstructions bool
}

func parseAskArgs(args []string) (askOptions, string, error) {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	var opts askOptions
	fs.StringVar(&opts.common.cfgPath, "config", "", "Path to config file (default ~/.toolbridge/config.toml)")
	fs.StringVar(&opts.common.provider, "provider", "", "Model provider: openrouter, proxy or anthropic")
	fs.StringVar(&opts.common.model, "model", "", "Model override")
	fs.StringVar(&opts.common.model, "m", "", "Alias for --model")
	fs.Var(&opts.common.overrides, "c", "Override config value key=value (repeatable)")
	fs.Var(&opts.images, "image", "Image file(s) to attach to the prompt (comma separated or repeatable)")
	fs.StringVar(&opts.transcript, "transcript", "", "JSON file with prior conversation messages")
	fs.StringVar(&opts.save, "save", "", "Write the full conversation to this JSON file")
	fs.StringVar(&opts.system, "system", "", "System prompt override")
	fs.IntVar(&opts.maxTurns, "max-turns", 0, "Maximum model calls per run (default from config)")
	fs.BoolVar(&opts.noTools, "no-tools", false, "Do not offer Jira/Confluence tools to the model")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Echo the prompt back without contacting a provider")
	fs.BoolVar(&opts.copyAnswer, "copy", false, "Copy the final answer to the clipboard")
	fs.BoolVar(&opts.jsonOut, "json", false, "Emit newline-delimited JSON events")
	fs.BoolVar(&opts.plain, "plain", false, "Disable colors")
	fs.IntVar(&opts.width, "width", 0, "Wrap width for rendered output (default 80)")
	fs.StringVar(&opts.sessionID, "session", "", "Session id to continue (created if missing)")
	fs.BoolVar(&opts.resumeLast, "resume-last", false, "Continue the most recent session")
	fs.BoolVar(&opts.listSessions, "list-sessions", false, "List saved sessions and exit")
	fs.BoolVar(&opts.ephemeral, "ephemeral", false, "Do not save this conversation as a session")
	fs.BoolVar(&opts.noInstructions, "no-instructions", false, "Ignore TOOLBRIDGE.md instruction files")
	if err := fs.Parse(args); err != nil {
		return opts, "", err
	}
	return opts, strings.TrimSpace(strings.Join(fs.Args(), " ")), nil
}

func runAsk(root rootArgs, args []string, stdin io.Reader, out io.Writer) error {
	opts, prompt, err := parseAskArgs(args)
	if err != nil {
		return err
	}
	store, err := session.NewDefault()
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	if opts.listSessions {
		return listSessions(store, out)
	}
	if prompt == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	rec, err := resolveSession(store, opts)
	if err != nil {
		return err
	}
	history := append([]agent.Message(nil), rec.Messages...)
	transcript, err := loadTranscript(opts.transcript)
	if err != nil {
		return err
	}
	history = append(history, transcript...)
	images, err := loadImages(opts.images)
	if err != nil {
		return err
	}
	if prompt != "" || len(images) > 0 {
		msg := agent.NewUserText(prompt)
		if prompt == "" {
			msg.Content = nil
		}
		for _, img := range images {
			msg.Content = append(msg.Content, img)
		}
		history = append(history, msg)
	}
	if len(history) == 0 {
		return errors.New("missing prompt: pass it as arguments, use - for stdin, or --transcript")
	}
	if last := history[len(history)-1]; last.Role != agent.RoleUser {
		log.Warnf("conversation ends with a %s message; the model may not reply", last.Role)
	}

	cfg, err := loadRuntimeConfig(root, opts.common)
	if err != nil {
		return err
	}
	var client agent.ModelClient = agent.EchoClient{Prefix: "assistant: "}
	if !opts.dryRun {
		if client, err = buildModelClient(cfg); err != nil {
			return err
		}
	}

	var registry *tools.Registry
	if !opts.noTools {
		registry = tools.NewRegistry(tools.AtlassianHandlers(newAtlassianClient(cfg))...)
	}
	maxTurns := opts.maxTurns
	if maxTurns <= 0 {
		maxTurns = cfg.MaxTurns
	}
	system := strings.TrimSpace(opts.system)
	if system == "" {
		system = defaultSystemPrompt
	}
	if !opts.noInstructions {
		system = instructions.Compose(system, instructions.Discover(""))
	}

	renderer := render.NewRenderer(opts.width, opts.plain || opts.jsonOut)
	threadID := rec.ID
	onMessage := func(msg agent.Message) {
		if opts.jsonOut {
			emitJSON(out, jsonEvent{Type: "message", ThreadID: threadID, Message: &agentEvent{Role: msg.Role, Content: msg.Content}})
			return
		}
		if text := renderer.Message(msg); text != "" {
			_, _ = fmt.Fprintln(out, text)
		}
	}
	if opts.jsonOut {
		emitJSON(out, jsonEvent{Type: "thread.started", ThreadID: threadID})
	}

	engine := execution.NewEngine(execution.Options{
		Client:         client,
		Tools:          registry,
		Model:          resolveModel(cfg),
		MaxTurns:       maxTurns,
		RequestTimeout: cfg.RequestTimeout(),
		OnMessage:      onMessage,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, runErr := engine.Run(ctx, system, history)

	if opts.save != "" {
		if err := saveTranscript(opts.save, res.Messages); err != nil {
			log.Warnf("save transcript: %v", err)
		}
	}
	if !opts.ephemeral {
		rec.Provider, rec.Model, rec.Messages = cfg.Provider, resolveModel(cfg), res.Messages
		rec.Updated = time.Now()
		if _, err := store.Save(rec); err != nil {
			log.Warnf("save session %s: %v", rec.ID, err)
		}
	}

	if opts.jsonOut {
		ev := jsonEvent{
			Type:     "turn.completed",
			ThreadID: threadID,
			Status:   res.Status,
			Stop:     res.StopReason,
			Usage:    &usageEvent{InputTokens: res.Usage.InputTokens, OutputTokens: res.Usage.OutputTokens, TotalTokens: res.Usage.TotalTokens},
		}
		if runErr != nil {
			ev.Type = "turn.failed"
			ev.Error = &eventError{Message: runErr.Error(), Stage: execution.Stage(runErr)}
		}
		emitJSON(out, ev)
	} else {
		switch res.StopReason {
		case execution.StopInterrupted:
			_, _ = fmt.Fprintln(out, "interrupted")
		case execution.StopMaxTurns:
			_, _ = fmt.Fprintf(out, "stopped after %d turns\n", res.Turns)
		}
		_, _ = fmt.Fprintln(out, renderer.Usage(res.Usage, res.Turns, res.ToolCalls))
		if !opts.ephemeral {
			_, _ = fmt.Fprintf(out, "session: %s\n", rec.ID)
		}
	}
	if runErr != nil {
		return runErr
	}

	if opts.copyAnswer {
		if final := res.Final(); final != "" {
			if err := clipboard.WriteAll(final); err != nil {
				log.Warnf("copy to clipboard: %v", err)
			}
		}
	}
	return nil
}

// resolveSession 返回要继续的会话；未指定时生成一个新的会话 ID。
func resolveSession(store *session.Store, opts askOptions) (session.Record, error) {
	switch {
	case opts.resumeLast:
		rec, err := store.Last()
		if err != nil {
			return session.Record{}, fmt.Errorf("resume last session: %w", err)
		}
		return rec, nil
	case opts.sessionID != "":
		rec, err := store.Load(opts.sessionID)
		if errors.Is(err, os.ErrNotExist) {
			return session.Record{ID: opts.sessionID}, nil
		}
		if err != nil {
			return session.Record{}, err
		}
		return rec, nil
	default:
		return session.Record{ID: uuid.NewString()}, nil
	}
}

func listSessions(store *session.Store, out io.Writer) error {
	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "no sessions")
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{rec.ID, rec.Updated.Local().Format(time.DateTime), rec.Model, rec.Title()})
	}
	_, _ = fmt.Fprintln(out, render.Table([]string{"ID", "UPDATED", "MODEL", "TITLE"}, rows, 48))
	return nil
}
