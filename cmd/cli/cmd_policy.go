package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/scantriage/scantriage/pkg/output/exitcode"
	"github.com/scantriage/scantriage/pkg/policy"
	"github.com/scantriage/scantriage/pkg/ui"
)

const policyUsage = "scantriage policy <validate|show> [-policy FILE]"

func runPolicy() {
	if len(os.Args) < 3 {
		exitWithUsage("policy needs a subcommand", policyUsage)
	}

	switch os.Args[2] {
	case "validate", "check":
		runPolicyValidate()
	case "show":
		runPolicyShow()
	case "-h", "--help", "help":
		fmt.Fprintln(os.Stderr, "Usage:", policyUsage)
		os.Exit(0)
	default:
		exitWithUsage(fmt.Sprintf("unknown policy subcommand %q", os.Args[2]), policyUsage)
	}
}

func runPolicyValidate() {
	fs := flag.NewFlagSet("policy validate", flag.ExitOnError)
	policyPath := fs.String("policy", "", "Triage policy YAML to validate")
	fs.Parse(os.Args[3:])

	if *policyPath == "" {
		exitWithUsage("-policy is required", "scantriage policy validate -policy FILE")
	}

	pol, err := policy.Load(*policyPath)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Policy invalid: %v", err))
		os.Exit(int(exitcode.Configuration))
	}

	ui.PrintSuccess(fmt.Sprintf("Policy %q is valid", pol.Name))
	ui.PrintConfigLine("Version", pol.Version)
	ui.PrintConfigLine("Severity mappings", strconv.Itoa(len(pol.SeverityMap)))
	ui.PrintConfigLine("Scope rules", strconv.Itoa(len(pol.ScopeRules)))
	ui.PrintConfigLine("Correlation rules", strconv.Itoa(len(pol.CorrelationRules)))
	if pol.MinReportableSeverity != "" {
		ui.PrintConfigLine("Min reportable", string(pol.MinReportableSeverity))
	}
}

func runPolicyShow() {
	fs := flag.NewFlagSet("policy show", flag.ExitOnError)
	policyPath := fs.String("policy", "", "Triage policy YAML (embedded default when omitted)")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(os.Args[3:])

	if *noColor {
		ui.SetNoColor(true)
	}

	var (
		pol *policy.Policy
		err error
	)
	if *policyPath != "" {
		pol, err = policy.Load(*policyPath)
	} else {
		pol, err = policy.Default()
	}
	if err != nil {
		ui.PrintError(fmt.Sprintf("Loading policy: %v", err))
		os.Exit(int(exitcode.Configuration))
	}

	ui.PrintSection("Policy: " + pol.Name)
	ui.PrintConfigLine("Version", pol.Version)
	if pol.SeverityDefault != "" {
		ui.PrintConfigLine("Default severity", string(pol.SeverityDefault))
	}
	if pol.MinReportableSeverity != "" {
		ui.PrintConfigLine("Min reportable", string(pol.MinReportableSeverity))
	}

	if len(pol.SeverityMap) > 0 {
		ui.PrintSection("Severity Map")
		labels := make([]string, 0, len(pol.SeverityMap))
		for label := range pol.SeverityMap {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			shown := label
			if shown == "" {
				shown = "(empty)"
			}
			fmt.Fprintf(os.Stderr, "  %-12s -> %s\n", shown,
				ui.SeverityStyle(string(pol.SeverityMap[label])).Render(string(pol.SeverityMap[label])))
		}
	}

	if len(pol.ScopeRules) > 0 {
		ui.PrintSection("Scope Rules")
		for _, rule := range pol.ScopeRules {
			line := fmt.Sprintf("  %-34s -> %s", rule.Path,
				ui.TierStyle(string(rule.Tier)).Render(string(rule.Tier)))
			if rule.Scope != "" {
				line += ui.SubtitleStyle.Render(fmt.Sprintf("  scope=%s", rule.Scope))
			}
			if len(rule.Kinds) > 0 {
				line += ui.SubtitleStyle.Render(fmt.Sprintf("  kinds=%v", rule.Kinds))
			}
			if rule.Disabled {
				line += ui.SubtitleStyle.Render("  (disabled)")
			}
			fmt.Fprintln(os.Stderr, line)
		}
	}

	if len(pol.CorrelationRules) > 0 {
		ui.PrintSection("Correlation Rules")
		for _, rule := range pol.CorrelationRules {
			detail := fmt.Sprintf("key=%s  %s <-> %s", rule.Key, rule.A.Kind, rule.B.Kind)
			if rule.MaxDistance > 0 {
				detail += fmt.Sprintf("  max_distance=%d", rule.MaxDistance)
			}
			fmt.Fprintf(os.Stderr, "  %-34s %s\n",
				ui.StatValueStyle.Render(rule.Name), ui.SubtitleStyle.Render(detail))
		}
	}
}
