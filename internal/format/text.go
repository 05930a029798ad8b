// FILE: strategic-logger/internal/format/text.go
package format

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/lixenwraith/log"
)

const (
	defaultTextTemplate    = "[{{FmtTime .Timestamp}}] [{{.Level}}]{{if .Event}} ({{.Event}}){{end}} {{.Message}}{{if .Context}} {{.Context}}{{end}}"
	defaultTimestampFormat = time.RFC3339
)

// TextFormatter produces human-readable log lines using templates.
type TextFormatter struct {
	template        *template.Template
	timestampFormat string
	logger          *log.Logger
}

// NewTextFormatter creates a text formatter. Options: "template" (Go
// text/template source) and "timestamp_format" (time layout string).
func NewTextFormatter(options map[string]any, logger *log.Logger) (*TextFormatter, error) {
	f := &TextFormatter{
		timestampFormat: defaultTimestampFormat,
		logger:          logger,
	}
	if tf, ok := options["timestamp_format"].(string); ok && tf != "" {
		f.timestampFormat = tf
	}

	source := defaultTextTemplate
	if tmpl, ok := options["template"].(string); ok && tmpl != "" {
		source = tmpl
	}

	funcMap := template.FuncMap{
		"FmtTime": func(t time.Time) string {
			return t.Format(f.timestampFormat)
		},
		"ToUpper":   strings.ToUpper,
		"ToLower":   strings.ToLower,
		"TrimSpace": strings.TrimSpace,
	}

	tmpl, err := template.New("entry").Funcs(funcMap).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	f.template = tmpl

	return f, nil
}

// Format renders the entry through the template. Template failures fall
// back to a fixed layout so a bad template never loses the line.
func (f *TextFormatter) Format(entry core.LogEntry) ([]byte, error) {
	data := map[string]any{
		"Timestamp": entry.Time,
		"Level":     entry.Level.String(),
		"Message":   stringifyMessage(entry.Message),
		"Event":     entry.EventName(),
		"Context":   renderContext(entry.MergedContext()),
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		f.logger.Debug("msg", "Template execution failed, using fallback",
			"component", "text_formatter",
			"error", err)

		fallback := fmt.Sprintf("[%s] [%s] %s",
			entry.Time.Format(f.timestampFormat),
			entry.Level.String(),
			stringifyMessage(entry.Message))
		return append([]byte(fallback), '\n'), nil
	}

	result := buf.Bytes()
	if len(result) == 0 || result[len(result)-1] != '\n' {
		result = append(result, '\n')
	}
	return result, nil
}

// Name returns the formatter name
func (f *TextFormatter) Name() string {
	return "text"
}

// renderContext flattens a merged context map to "k=v" pairs in key
// order, so renders are stable across runs.
func renderContext(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}

	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", k, ctx[k])
	}
	return sb.String()
}

func stringifyMessage(message any) string {
	switch m := message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", m)
	}
}
