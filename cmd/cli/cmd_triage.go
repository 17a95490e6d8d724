package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/duration"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/input"
	"github.com/scantriage/scantriage/pkg/output"
	"github.com/scantriage/scantriage/pkg/output/exitcode"
	"github.com/scantriage/scantriage/pkg/triage"
	"github.com/scantriage/scantriage/pkg/ui"
)

// headerSlice implements flag.Value for repeated -webhook-header flags.
// Does not split on commas since header values may contain them.
type headerSlice []string

func (h *headerSlice) String() string { return strings.Join(*h, "; ") }

func (h *headerSlice) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func runTriage() {
	fs := flag.NewFlagSet("triage", flag.ExitOnError)

	// Input
	resultsRoot := fs.String("results", "", "Directory of raw scanner documents (org/repo/scanner.ext)")
	org := fs.String("org", "", "Organization to triage")
	repo := fs.String("repo", "", "Repository to triage (inferred when the results root holds exactly one)")
	policyPath := fs.String("policy", "", "Triage policy YAML (embedded default when omitted)")
	workers := fs.Int("workers", 0, "Concurrent document normalizers (0 = default)")
	timeout := fs.Duration("timeout", duration.NormalizeTimeout, "Per-document read and normalize budget")
	runTimeout := fs.Duration("run-timeout", duration.RunTimeout, "Whole-run budget, 0 disables")

	// Lifecycle
	snapshotRoot := fs.String("snapshots", "", "Snapshot store for run-over-run lifecycle (empty = stateless)")
	dryRun := fs.Bool("dry-run", false, "Full pipeline, no snapshot written")

	// Output
	jsonExport := fs.String("o", "", "Write the full report as JSON to file")
	jsonlExport := fs.String("jsonl", "", "Write the event stream as JSON Lines to file")
	sarifExport := fs.String("sarif", "", "Write reportable groups as SARIF 2.1.0 to file")
	csvExport := fs.String("csv", "", "Write group rows as CSV to file")
	templateExport := fs.String("template-out", "", "Render a template to file")
	templatePath := fs.String("template", "", "Custom Go template file for -template-out")
	templateName := fs.String("template-name", "", "Built-in template for -template-out (csv, markdown, text-summary)")
	jsonMode := fs.Bool("json", false, "Stream events as JSON Lines to stdout instead of the console table")
	stream := fs.Bool("stream", false, "Print groups as they are classified instead of a final table")
	onlyReportable := fs.Bool("reportable-only", false, "Only reportable groups in streams and tables")
	omitFindings := fs.Bool("omit-findings", false, "Drop per-finding detail from exports")
	silent := fs.Bool("silent", false, "Suppress banner and console output")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	verbose := fs.Bool("verbose", false, "Mirror every event into the structured log")

	// Integrations
	webhookURL := fs.String("webhook", "", "POST group events to this webhook URL")
	webhookAll := fs.Bool("webhook-all", false, "Deliver every event to the webhook, not just reportable groups")
	var webhookHeaders headerSlice
	fs.Var(&webhookHeaders, "webhook-header", "Extra webhook header (repeatable, \"Name: Value\")")
	webhookMinSeverity := fs.String("webhook-min-severity", "", "Minimum severity for webhook delivery (critical, high, medium, low, info)")
	metricsPort := fs.Int("metrics-port", 0, "Expose Prometheus metrics on this port (0 = disabled)")
	otelEndpoint := fs.String("otel-endpoint", "", "Export OpenTelemetry spans via OTLP/gRPC to this endpoint")
	otelInsecure := fs.Bool("otel-insecure", false, "Plaintext OTLP connection")

	// CI gating
	failOnDegraded := fs.Bool("fail-degraded", true, "Exit 2 when a scanner document is missing or malformed")

	fs.Parse(os.Args[2:])

	if *silent || *jsonMode {
		ui.SetSilent(true)
	}
	if *noColor {
		ui.SetNoColor(true)
	}

	if *resultsRoot == "" {
		exitWithUsage("-results is required",
			"scantriage triage -results DIR [-snapshots DIR] [-org NAME] [-repo NAME]")
	}

	logLevel := slog.LevelInfo
	if ui.IsSilent() {
		logLevel = slog.LevelError
	}
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	policyLabel := *policyPath
	if policyLabel == "" {
		policyLabel = "default-triage (embedded)"
	}

	if !ui.IsSilent() {
		ui.PrintCompactBanner()
		ui.PrintSection("Finding Triage")

		banner := map[string]string{
			"Results":      *resultsRoot,
			"Snapshots":    *snapshotRoot,
			"Organization": *org,
			"Repository":   *repo,
			"Policy":       policyLabel,
			"Workers":      strconv.Itoa(effectiveWorkers(*workers)),
			"Timeout":      timeout.String(),
		}
		if *dryRun {
			banner["Dry Run"] = "true"
		}
		if *webhookURL != "" {
			banner["Webhook"] = *webhookURL
		}
		ui.PrintConfigBanner(banner)

		// Pre-run manifest is best effort; discovery errors surface
		// properly once the engine runs.
		if docs, err := input.Discover(*resultsRoot, *org, *repo); err == nil && len(docs) > 0 {
			m := ui.TriageManifest(*org, *repo, policyLabel, len(docs),
				uniqueScanners(docs), effectiveWorkers(*workers), *timeout)
			m.Print()
		}
	}

	outCfg := output.Config{
		JSONExport:         *jsonExport,
		JSONLExport:        *jsonlExport,
		SARIFExport:        *sarifExport,
		CSVExport:          *csvExport,
		TemplateExport:     *templateExport,
		TemplatePath:       *templatePath,
		TemplateName:       *templateName,
		JSONMode:           *jsonMode,
		Stream:             *stream,
		OnlyReportable:     *onlyReportable,
		OmitFindings:       *omitFindings,
		Silent:             *silent,
		NoColor:            *noColor,
		WebhookURL:         *webhookURL,
		WebhookAll:         *webhookAll,
		WebhookHeaders:     webhookHeaders,
		WebhookMinSeverity: finding.Severity(*webhookMinSeverity),
		MetricsPort:        *metricsPort,
		OTelEndpoint:       *otelEndpoint,
		OTelInsecure:       *otelInsecure,
		Verbose:            *verbose,
		Logger:             logger,
		Version:            ui.Version,
	}
	disp, err := output.BuildDispatcher(outCfg)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Output configuration: %v", err))
		os.Exit(int(exitcode.Configuration))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *runTimeout)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		ui.PrintWarning("Interrupt received, shutting down gracefully...")
		cancel()
	}()

	engine := triage.New(triage.Config{
		ResultsRoot:  *resultsRoot,
		SnapshotRoot: *snapshotRoot,
		Organization: *org,
		Repository:   *repo,
		PolicyPath:   *policyPath,
		Workers:      *workers,
		DryRun:       *dryRun,
		InputTimeout: *timeout,
	},
		triage.WithLogger(logger),
		triage.WithDispatcher(disp),
		triage.WithExitConfig(exitcode.Config{
			ReportableCode: int(exitcode.Reportable),
			FailOnDegraded: *failOnDegraded,
		}),
	)

	res, runErr := engine.Run(ctx)
	if cerr := disp.Close(); cerr != nil {
		logger.Warn("closing output dispatcher", slog.String("error", cerr.Error()))
	}

	if runErr != nil {
		ui.PrintError(runErr.Error())
	}
	if res == nil {
		os.Exit(int(exitcode.Configuration))
	}

	if !ui.IsSilent() {
		printRunOutcome(res)
	}
	os.Exit(int(res.ExitCode))
}

// effectiveWorkers mirrors the engine's worker default for display.
func effectiveWorkers(n int) int {
	if n <= 0 {
		return defaults.WorkersMedium
	}
	return n
}

// uniqueScanners returns the distinct scanner names in document order.
func uniqueScanners(docs []input.Document) []string {
	seen := make(map[string]bool, len(docs))
	var scanners []string
	for _, doc := range docs {
		if !seen[doc.Scanner] {
			seen[doc.Scanner] = true
			scanners = append(scanners, doc.Scanner)
		}
	}
	return scanners
}

// printRunOutcome renders the one-line run verdict under the table.
func printRunOutcome(res *triage.Result) {
	elapsed := res.Duration.Round(time.Millisecond)

	switch res.ExitCode {
	case exitcode.Success:
		ui.PrintSuccess(fmt.Sprintf("Clean run in %s: nothing reportable", elapsed))
	case exitcode.Reportable:
		n := 0
		if res.Report != nil {
			n = res.Report.Summary.ByTier[finding.TierReportable]
		}
		ui.PrintError(fmt.Sprintf("%d reportable group(s) in %s", n, elapsed))
	case exitcode.Interrupted:
		ui.PrintWarning("Run interrupted, no history written")
	default:
		ui.PrintWarning(fmt.Sprintf("%s (%s, exit %d)",
			exitcode.CodeDescription(res.ExitCode), elapsed, int(res.ExitCode)))
	}
}
