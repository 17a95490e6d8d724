package main

import (
	"fmt"
	"os"

	"github.com/scantriage/scantriage/pkg/ui"
)

func main() {
	// Check for subcommands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "triage", "run":
		runTriage()
	case "history", "snapshots":
		runHistory()
	case "policy":
		runPolicy()
	case "-h", "--help", "help":
		printUsage()
		os.Exit(0)
	case "-v", "--version", "version":
		ui.PrintMiniBanner()
		os.Exit(0)
	default:
		exitWithUsage(fmt.Sprintf("unknown command %q", os.Args[1]),
			"scantriage <triage|history|policy|version> [flags]")
	}
}

func printUsage() {
	ui.PrintBanner()
	os.Stderr.Sync() // Sync stderr before switching to stdout

	// Workflow overview
	fmt.Println(ui.SectionStyle.Render("FINDING CORRELATION & TRIAGE"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("The Workflow:"))
	fmt.Println()
	fmt.Printf("    %s  Drop raw scanner output under results/<org>/<repo>/\n", ui.ConfigValueStyle.Render("1. collect"))
	fmt.Printf("    %s  Normalize, correlate, and classify everything in one run\n", ui.ConfigValueStyle.Render("2. triage "))
	fmt.Printf("    %s  Inspect lifecycle state and regressions across runs\n", ui.ConfigValueStyle.Render("3. history"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Quick Example:"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("scantriage triage -results ./results -snapshots ./snapshots -org acme"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("scantriage triage -results ./results -o report.json -sarif report.sarif"))
	fmt.Printf("    %s\n", ui.ConfigValueStyle.Render("scantriage history diff -snapshots ./snapshots -org acme -repo billing-api"))
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("COMMANDS"))
	fmt.Println()
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("triage "), "Correlate scanner findings into triaged groups (the main pipeline)")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("history"), "List, show, and diff lifecycle snapshots")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("policy "), "Validate and inspect triage policies")
	fmt.Printf("  %s  %s\n", ui.StatValueStyle.Render("version"), "Print version information")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("TRIAGE COMMAND"))
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Input:"))
	fmt.Println("    -results DIR          Directory of raw scanner documents (org/repo/scanner.ext)")
	fmt.Println("    -org NAME             Organization to triage")
	fmt.Println("    -repo NAME            Repository (inferred when the results root holds exactly one)")
	fmt.Println("    -policy FILE          Triage policy YAML (embedded default when omitted)")
	fmt.Println("    -workers N            Concurrent document normalizers (default 10)")
	fmt.Println("    -timeout DUR          Per-document read and normalize budget (default 30s)")
	fmt.Println("    -run-timeout DUR      Whole-run budget, 0 disables (default 10m)")
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Lifecycle:"))
	fmt.Println("    -snapshots DIR        Snapshot store for run-over-run lifecycle (omit for stateless)")
	fmt.Println("    -dry-run              Full pipeline, no snapshot written")
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Output:"))
	fmt.Println("    -o FILE               Full report as JSON")
	fmt.Println("    -jsonl FILE           Event stream as JSON Lines")
	fmt.Println("    -sarif FILE           Reportable groups as SARIF 2.1.0")
	fmt.Println("    -csv FILE             Group rows as CSV")
	fmt.Println("    -template-out FILE    Render a template (-template FILE or -template-name NAME)")
	fmt.Println("    -json                 JSONL events to stdout instead of the console table")
	fmt.Println("    -stream               Print groups as they are classified")
	fmt.Println("    -reportable-only      Only reportable groups in streams and tables")
	fmt.Println("    -omit-findings        Drop per-finding detail from exports")
	fmt.Println("    -silent               No banner, no console table")
	fmt.Println("    -no-color             Disable colored output")
	fmt.Println("    -verbose              Mirror every event into the structured log")
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("Integrations:"))
	fmt.Println("    -webhook URL          POST group events to a webhook")
	fmt.Println("    -webhook-all          Deliver every event, not just reportable groups")
	fmt.Println("    -webhook-header H     Extra webhook header (repeatable, \"Name: Value\")")
	fmt.Println("    -webhook-min-severity Minimum severity for webhook delivery")
	fmt.Println("    -metrics-port N       Expose Prometheus metrics on :N/metrics")
	fmt.Println("    -otel-endpoint ADDR   Export OpenTelemetry spans via OTLP/gRPC")
	fmt.Println()
	fmt.Printf("  %s\n", ui.SubtitleStyle.Render("CI Gating:"))
	fmt.Println("    -fail-degraded        Exit 2 when a scanner document is missing or malformed (default true)")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("HISTORY COMMAND"))
	fmt.Println()
	fmt.Println("    list                  Repositories with persisted history")
	fmt.Println("    show                  Live findings and resolution ledger for one repository")
	fmt.Println("    diff                  Lifecycle delta between the two retained runs")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("POLICY COMMAND"))
	fmt.Println()
	fmt.Println("    validate              Parse a policy file and report problems")
	fmt.Println("    show                  Print the effective policy (embedded default when no -policy)")
	fmt.Println()

	fmt.Println(ui.SectionStyle.Render("EXIT CODES"))
	fmt.Println()
	fmt.Println("    0  clean: no reportable groups")
	fmt.Println("    1  reportable groups present")
	fmt.Println("    2  degraded: a scanner document was missing or malformed")
	fmt.Println("    3  configuration error (policy, flags, output files)")
	fmt.Println("    4  snapshot store error (run completed, history not persisted)")
	fmt.Println("    5  interrupted")
	fmt.Println()
}
