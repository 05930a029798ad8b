// FILE: strategic-logger/cmd/strategic-logger/main.go
// Command strategic-logger reads log lines from stdin and ships them
// through a configured pipeline. Each line may start with a level token
// ("ERROR connection refused"); lines without one are emitted at info.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/config"
	"github.com/Hypn-Tech/strategic-logger/internal/version"
	"github.com/Hypn-Tech/strategic-logger/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Println(version.String())
			os.Exit(0)
		}
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	diag, err := logger.NewDiagnostics(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize diagnostics: %v\n", err)
		os.Exit(1)
	}
	defer diag.Shutdown(2 * time.Second)

	pipeline, err := logger.New(cfg, logger.WithDiagnostics(diag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start pipeline: %v\n", err)
		os.Exit(1)
	}

	diag.Info("msg", "strategic-logger starting",
		"component", "main",
		"version", version.String(),
		"strategies", len(cfg.Strategies))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			level, message := splitLine(line)
			if message == "" {
				continue
			}
			if err := pipeline.Log(level, message); err != nil {
				diag.Warn("msg", "Dropped line", "component", "main", "error", err)
			}
		case sig := <-sigChan:
			diag.Info("msg", "Shutdown signal received", "component", "main", "signal", sig.String())
			break loop
		}
	}

	// Drain the queue and push pending network batches before exit.
	done := make(chan struct{})
	go func() {
		pipeline.Dispose()
		close(done)
	}()
	select {
	case <-done:
		diag.Info("msg", "Shutdown complete", "component", "main")
	case <-time.After(shutdownTimeout):
		fmt.Fprintln(os.Stderr, "Shutdown timeout exceeded - forcing exit")
		os.Exit(1)
	}
}

// splitLine recognizes an optional leading level token. Unrecognized
// tokens stay part of the message.
func splitLine(line string) (core.Level, string) {
	trimmed := strings.TrimSpace(line)
	token, rest, found := strings.Cut(trimmed, " ")
	if found {
		if level, err := core.ParseLevel(token); err == nil && level != core.LevelDisabled {
			return level, strings.TrimSpace(rest)
		}
	}
	return core.LevelInfo, trimmed
}
