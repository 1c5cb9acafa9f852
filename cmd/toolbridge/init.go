package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"toolbridge/internal/config"
)

// runInit 写出一份初始配置文件，-c 覆盖项会写入文件；已有文件需要 --force。
func runInit(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	var (
		path      string
		force     bool
		overrides overrideFlag
	)
	fs.StringVar(&path, "config", "", "Path to write (default ~/.toolbridge/config.toml)")
	fs.BoolVar(&force, "force", false, "Overwrite an existing config file")
	fs.Var(&overrides, "c", "Set a config value (key=value), repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("init takes no arguments, got %q", fs.Args())
	}
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.ApplyKVOverrides(config.Default(), prependOverrides(root.overrides, overrides))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	log.Infof("wrote config %s provider=%s", path, cfg.Provider)
	_, _ = fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
