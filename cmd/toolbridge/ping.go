package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"toolbridge/internal/agent"
	"toolbridge/internal/agent/openrouter"
)

func runPing(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)

	var flags commonFlags
	var timeoutSeconds int
	var checkAtlassian bool
	var dialOnly bool

	fs.StringVar(&flags.cfgPath, "config", "", "Path to config file (default ~/.toolbridge/config.toml)")
	fs.StringVar(&flags.provider, "provider", "", "Provider name (default from config)")
	fs.StringVar(&flags.model, "model", "", "Model name (default from config)")
	fs.Var(&flags.overrides, "c", "Override config value key=value (repeatable)")
	fs.IntVar(&timeoutSeconds, "timeout", 30, "Timeout seconds")
	fs.BoolVar(&checkAtlassian, "atlassian", false, "Also verify Atlassian credentials")
	fs.BoolVar(&dialOnly, "dial", false, "Only check TCP reachability of the provider base URL")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadRuntimeConfig(root, flags)
	if err != nil {
		return err
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	if dialOnly {
		base := providerBaseURL(cfg)
		if err := openrouter.CheckBaseURLReachable(ctx, base); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "ok: %s reachable\n", base)
	} else {
		client, err := buildModelClient(cfg)
		if err != nil {
			return err
		}
		resp, err := client.Generate(ctx, agent.Request{
			SystemPrompt: "Reply with exactly: pong (lowercase, no punctuation, no newline).",
			Messages:     []agent.Message{agent.NewUserText("ping")},
			Model:        resolveModel(cfg),
			MaxTokens:    16,
		})
		if err != nil {
			return err
		}
		got := strings.TrimSpace(agent.Message{Role: agent.RoleAssistant, Content: resp.Content}.Text())
		_, _ = fmt.Fprintf(out, "ok: %s\n", got)
	}

	if checkAtlassian {
		me, err := newAtlassianClient(cfg).Myself(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "atlassian: %s\n", atlassianIdentity(me.DisplayName, me.EmailAddress))
	}
	return nil
}

func atlassianIdentity(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	default:
		return email
	}
}
