// FILE: strategic-logger/logger/diagnostics.go
package logger

import (
	"fmt"
	"strings"

	"github.com/Hypn-Tech/strategic-logger/internal/config"

	"github.com/lixenwraith/log"
)

// NewDiagnostics builds the pipeline's internal diagnostics logger from
// configuration. Output "none" (the default) keeps it silent.
func NewDiagnostics(cfg config.LoggingConfig) (*log.Logger, error) {
	diag := log.NewLogger()

	var configArgs []string

	switch cfg.Output {
	case "", "none":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	default:
		return nil, fmt.Errorf("invalid diagnostics output mode: %s", cfg.Output)
	}

	levelValue, err := parseDiagLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	if err := diag.ApplyConfigString(configArgs...); err != nil {
		return nil, fmt.Errorf("failed to initialize diagnostics logger: %w", err)
	}
	return diag, nil
}

func parseDiagLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return int(log.LevelInfo), nil
	case "debug":
		return int(log.LevelDebug), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("invalid diagnostics level: %s", level)
	}
}
