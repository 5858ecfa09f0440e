package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tradescope/internal/config"
	"tradescope/internal/logger"
)

const usage = `usage: tradescope <command> [flags]

commands:
  backtest   run one backtest and store its report
  sweep      run a parameter grid over one or more symbols
  stats      evaluate pattern outcomes over history
  serve      serve stored reports over HTTP

Each command accepts -config (default $TRADESCOPE_CONFIG or configs/config.yaml).
`

type command func(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error

var commands = map[string]command{
	"backtest": runBacktest,
	"sweep":    runSweep,
	"stats":    runStats,
	"serve":    runServe,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args, cfgPath := splitConfigFlag(os.Args[2:])
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("opening log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetFormat(cfg.App.LogFormat)
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("[main] config loaded (%s)", displayPath(cfgPath))

	if err := cmd(ctx, cfg, args, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warnf("[main] %s interrupted", name)
			os.Exit(130)
		}
		logger.Errorf("[main] %s failed: %v", name, err)
		os.Exit(1)
	}
}

// splitConfigFlag pulls -config out of args so every command shares it. The
// default path is used only when it exists; otherwise defaults and
// environment overrides apply.
func splitConfigFlag(args []string) ([]string, string) {
	path := os.Getenv("TRADESCOPE_CONFIG")
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				path = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config="):
			path = arg[strings.Index(arg, "=")+1:]
		default:
			rest = append(rest, arg)
		}
	}
	if path == "" {
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			path = "configs/config.yaml"
		}
	}
	return rest, path
}

func displayPath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		logger.SetOutput(os.Stderr)
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stderr, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
