// Package output assembles the event pipeline from CLI flags.
// It wires writers (file and console output) and hooks (webhooks, metrics,
// tracing) into a dispatcher the triage engine emits into.
package output

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/output/dispatcher"
	"github.com/scantriage/scantriage/pkg/output/hooks"
	"github.com/scantriage/scantriage/pkg/output/writers"
)

// Config configures the output dispatcher based on CLI flags.
type Config struct {
	// File exports
	JSONExport     string
	JSONLExport    string
	SARIFExport    string
	CSVExport      string
	TemplateExport string

	// Template selection for TemplateExport. TemplatePath points at a
	// custom template file; TemplateName picks a built-in. When both are
	// empty the text summary is used.
	TemplatePath string
	TemplateName string

	// Streaming
	JSONMode bool // JSONL events to stdout instead of the table
	Stream   bool // table prints groups as they arrive

	// Content
	OnlyReportable bool
	OmitFindings   bool

	// Console
	Silent  bool
	NoColor bool

	// Hooks
	WebhookURL         string
	WebhookAll         bool // deliver every event, not just reportable groups
	WebhookHeaders     []string
	WebhookMinSeverity finding.Severity
	MetricsPort        int
	OTelEndpoint       string
	OTelInsecure       bool
	Verbose            bool // mirror events into the structured log

	// Logger receives dispatcher, writer, and hook failures.
	Logger *slog.Logger

	// Version for report tool metadata.
	Version string
}

// BuildDispatcher creates a dispatcher configured with writers and hooks
// based on the config. It opens all output files and registers the
// appropriate writers and hooks. The caller is responsible for calling
// Close() on the dispatcher when done; writers close the files they own.
func BuildDispatcher(cfg Config) (*dispatcher.Dispatcher, error) {
	d := dispatcher.New(dispatcher.Config{
		Async:  true,
		Logger: cfg.Logger,
	})

	version := cfg.Version
	if version == "" {
		version = defaults.Version
	}

	// Track opened files for cleanup on error
	var openedFiles []*os.File
	cleanup := func() {
		for _, f := range openedFiles {
			f.Close()
		}
	}

	openFile := func(path string) (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		openedFiles = append(openedFiles, f)
		return f, nil
	}

	// === FILE WRITERS ===

	if cfg.JSONExport != "" {
		f, err := openFile(cfg.JSONExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONWriter(f, writers.JSONOptions{
			Pretty: true,
		}))
	}

	if cfg.JSONLExport != "" {
		f, err := openFile(cfg.JSONLExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONLWriter(f, writers.JSONLOptions{
			OnlyReportable: cfg.OnlyReportable,
			OmitFindings:   cfg.OmitFindings,
		}))
	}

	if cfg.SARIFExport != "" {
		f, err := openFile(cfg.SARIFExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewSARIFWriter(f, writers.SARIFOptions{
			ToolName:    defaults.ToolName,
			ToolVersion: version,
			ToolURI:     defaults.ToolURI,
		}))
	}

	if cfg.CSVExport != "" {
		f, err := openFile(cfg.CSVExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewCSVWriter(f, writers.CSVOptions{
			IncludeHeader:    true,
			SanitizeFormulas: true,
		}))
	}

	if cfg.TemplateExport != "" {
		f, err := openFile(cfg.TemplateExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		tmplCfg := writers.TemplateConfig{
			TemplatePath: cfg.TemplatePath,
			BuiltIn:      cfg.TemplateName,
		}
		if tmplCfg.TemplatePath == "" && tmplCfg.BuiltIn == "" {
			tmplCfg.BuiltIn = "text-summary"
		}
		writer, err := writers.NewTemplateWriter(f, tmplCfg)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("template writer: %w", err)
		}
		d.RegisterWriter(writer)
	}

	// === CONSOLE OUTPUT ===

	if !cfg.Silent && !cfg.JSONMode {
		mode := "summary"
		if cfg.Stream {
			mode = "streaming"
		}
		d.RegisterWriter(writers.NewTableWriter(consoleWriter{os.Stdout}, writers.TableConfig{
			Mode:               mode,
			ColorEnabled:       !cfg.NoColor,
			ShowOnlyReportable: cfg.OnlyReportable,
		}))
	}

	if cfg.JSONMode {
		d.RegisterWriter(writers.NewJSONLWriter(consoleWriter{os.Stdout}, writers.JSONLOptions{
			OnlyReportable: cfg.OnlyReportable,
			OmitFindings:   cfg.OmitFindings,
		}))
	}

	// === HOOKS ===

	if cfg.WebhookURL != "" {
		headers, err := ParseHeaders(cfg.WebhookHeaders)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("webhook headers: %w", err)
		}
		if cfg.WebhookMinSeverity != "" && !cfg.WebhookMinSeverity.IsValid() {
			cleanup()
			return nil, fmt.Errorf("webhook min severity: unknown level %q", cfg.WebhookMinSeverity)
		}
		d.RegisterHook(hooks.NewWebhookHook(cfg.WebhookURL, hooks.WebhookOptions{
			Headers:        headers,
			OnlyReportable: !cfg.WebhookAll,
			MinSeverity:    cfg.WebhookMinSeverity,
			Logger:         cfg.Logger,
		}))
	}

	if cfg.MetricsPort > 0 {
		hook, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{
			Port: cfg.MetricsPort,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create Prometheus hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	if cfg.OTelEndpoint != "" {
		hook, err := hooks.NewOTelHook(hooks.OTelOptions{
			Endpoint:    cfg.OTelEndpoint,
			ServiceName: defaults.ToolName,
			Insecure:    cfg.OTelInsecure,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create OpenTelemetry hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	if cfg.Verbose {
		d.RegisterHook(hooks.NewLoggerHook(cfg.Logger))
	}

	return d, nil
}

// ParseHeaders parses repeated "Name: Value" (or "Name=Value") header
// flags into a map. Names must be non-empty; later duplicates win.
func ParseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			name, value, ok = strings.Cut(h, "=")
		}
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("malformed header %q, want \"Name: Value\"", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// consoleWriter shields os.Stdout from writer Close. Writers close any
// io.Closer they were given, and the process still needs its stdout.
type consoleWriter struct {
	io.Writer
}
