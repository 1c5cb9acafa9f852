package main

import (
	"fmt"
	"io"
	"os"

	"toolbridge/internal/logger"
	"toolbridge/internal/tools"
)

var log = logger.Named("cli")

func main() {
	logger.Configure()
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}
	if toolsCloser, _, err := tools.SetupToolsLog(tools.DefaultToolsLogPath); err != nil {
		log.Warnf("failed to initialize tools log (%s): %v", tools.DefaultToolsLogPath, err)
	} else if toolsCloser != nil {
		defer toolsCloser.Close()
	}
	if entry, llmCloser, _, err := logger.SetupComponentFile("llm", logger.DefaultLLMLogPath); err != nil {
		log.Warnf("failed to initialize llm log (%s): %v", logger.DefaultLLMLogPath, err)
	} else {
		logger.SetGlobalLLMLogger(logger.NewLLMLoggerFromEntry(entry))
		defer llmCloser.Close()
	}

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if len(rest) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch rest[0] {
	case "ask":
		err = runAsk(root, rest[1:], os.Stdin, os.Stdout)
	case "ping":
		err = runPing(root, rest[1:], os.Stdout)
	case "models":
		err = runModels(rest[1:], os.Stdout)
	case "tools":
		err = runTools(rest[1:], os.Stdout)
	case "init":
		err = runInit(root, rest[1:], os.Stdout)
	case "completion":
		err = runCompletion(rest[1:], os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		fatal(fmt.Errorf("unknown command %q", rest[0]))
	}
	if err != nil {
		fatal(err)
	}
}

// fatal 同时写入日志文件与终端，因为 SetupFile 之后全局日志不再输出到 stderr。
func fatal(err error) {
	log.Errorf("%v", err)
	fmt.Fprintf(os.Stderr, "toolbridge: %v\n", err)
	os.Exit(1)
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: toolbridge [-c key=value]... <command> [flags]

commands:
  ask         send a prompt and let the model use Jira/Confluence tools
  ping        check provider credentials (and --atlassian, --dial)
  models      list known models, optionally fuzzy-filtered
  tools       print the tool schemas sent to the model
  init        write a starter ~/.toolbridge/config.toml
  completion  print shell completions (bash or zsh)
`)
}
