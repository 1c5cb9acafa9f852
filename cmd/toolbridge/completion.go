package main

import (
	"fmt"
	"io"
)

func runCompletion(args []string, out io.Writer) error {
	shell := "bash"
	if len(args) > 0 && args[0] != "" {
		shell = args[0]
	}
	switch shell {
	case "bash":
		_, _ = fmt.Fprint(out, bashCompletion)
	case "zsh":
		_, _ = fmt.Fprint(out, zshCompletion)
	default:
		return fmt.Errorf("unsupported shell: %s (use bash or zsh)", shell)
	}
	return nil
}

const bashCompletion = `
_toolbridge_completions()
{
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "ask ping models tools init completion help" -- "$cur") )
        return 0
    fi

    case "${COMP_WORDS[1]}" in
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        ask)
            COMPREPLY=( $(compgen -W "--config --provider --model --m --c --image --transcript --save --system --max-turns --no-tools --dry-run --copy --json --plain --width --session --resume-last --list-sessions --ephemeral --no-instructions" -- "$cur") )
            ;;
        init)
            COMPREPLY=( $(compgen -W "--config --force --c" -- "$cur") )
            ;;
        ping)
            COMPREPLY=( $(compgen -W "--config --provider --model --c --timeout --atlassian --dial" -- "$cur") )
            ;;
        models)
            COMPREPLY=( $(compgen -W "--provider" -- "$cur") )
            ;;
        tools)
            COMPREPLY=( $(compgen -W "--names" -- "$cur") )
            ;;
    esac
}
complete -F _toolbridge_completions toolbridge
`

const zshCompletion = `
#compdef toolbridge
_toolbridge() {
    local -a subcmds
    subcmds=('ask:send a prompt with Jira/Confluence tools' 'ping:check provider credentials' 'models:list known models' 'tools:print tool schemas' 'init:write a starter config' 'completion:print shell completions')
    if (( CURRENT == 2 )); then
        _describe 'command' subcmds
        return
    fi
    case "$words[2]" in
        completion)
            _values 'shell' bash zsh
            ;;
        ask)
            _arguments \
                '--config[Path to config file]' \
                '--provider[Model provider]:provider:(openrouter proxy anthropic)' \
                '--model[Model override]' \
                '--m[Alias for --model]' \
                '--c[Override config key=value]' \
                '--image[Image files to attach]:file:_files' \
                '--transcript[Prior conversation JSON]:file:_files' \
                '--save[Write conversation JSON]:file:_files' \
                '--system[System prompt override]' \
                '--max-turns[Maximum model calls]' \
                '--no-tools[Do not offer tools]' \
                '--dry-run[Echo without a provider]' \
                '--copy[Copy answer to clipboard]' \
                '--json[Emit JSON events]' \
                '--plain[Disable colors]' \
                '--width[Wrap width]' \
                '--session[Session id to continue]' \
                '--resume-last[Continue the newest session]' \
                '--list-sessions[List saved sessions]' \
                '--ephemeral[Do not save the session]' \
                '--no-instructions[Skip TOOLBRIDGE.md files]'
            ;;
        init)
            _arguments \
                '--config[Path to write]:file:_files' \
                '--force[Overwrite existing file]' \
                '--c[Set config key=value]'
            ;;
        ping)
            _arguments \
                '--config[Path to config file]' \
                '--provider[Model provider]:provider:(openrouter proxy anthropic)' \
                '--model[Model override]' \
                '--c[Override config key=value]' \
                '--timeout[Timeout seconds]' \
                '--atlassian[Verify Atlassian credentials]' \
                '--dial[Only check TCP reachability]'
            ;;
        models)
            _arguments '--provider[Only this provider]:provider:(openrouter proxy anthropic)'
            ;;
        tools)
            _arguments '--names[Only print names]'
            ;;
    esac
}
_toolbridge "$@"
`
