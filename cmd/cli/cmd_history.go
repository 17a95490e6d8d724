package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/scantriage/scantriage/pkg/lifecycle"
	"github.com/scantriage/scantriage/pkg/snapshot"
	"github.com/scantriage/scantriage/pkg/ui"
)

const historyUsage = "scantriage history <list|show|diff> -snapshots DIR [flags]"

func runHistory() {
	if len(os.Args) < 3 {
		exitWithUsage("history needs a subcommand", historyUsage)
	}

	switch os.Args[2] {
	case "list", "ls":
		runHistoryList()
	case "show":
		runHistoryShow()
	case "diff":
		runHistoryDiff()
	case "-h", "--help", "help":
		fmt.Fprintln(os.Stderr, "Usage:", historyUsage)
		os.Exit(0)
	default:
		exitWithUsage(fmt.Sprintf("unknown history subcommand %q", os.Args[2]), historyUsage)
	}
}

// historyStore opens the snapshot store shared by all subcommands.
func historyStore(root string) *snapshot.Store {
	if root == "" {
		exitWithUsage("-snapshots is required", historyUsage)
	}
	store, err := snapshot.NewStore(root)
	if err != nil {
		exitWithError("Opening snapshot store: %v", err)
	}
	return store
}

func runHistoryList() {
	fs := flag.NewFlagSet("history list", flag.ExitOnError)
	snapshotRoot := fs.String("snapshots", "", "Snapshot store directory")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(os.Args[3:])

	if *noColor {
		ui.SetNoColor(true)
	}

	store := historyStore(*snapshotRoot)
	refs, err := store.List()
	if err != nil {
		exitWithError("Listing snapshot store: %v", err)
	}
	if len(refs) == 0 {
		ui.PrintInfo("No snapshot history yet. Run a triage with -snapshots to start one.")
		return
	}

	ui.PrintSection("Tracked Repositories")
	for _, ref := range refs {
		snap, err := store.Load(ref.Organization, ref.Repository)
		if err != nil || snap == nil {
			ui.PrintWarning(fmt.Sprintf("%s: unreadable history (%v)", ref, err))
			continue
		}
		fmt.Printf("  %s  %s live, %s resolved  %s\n",
			ui.StatValueStyle.Render(fmt.Sprintf("%-36s", ref.String())),
			ui.StatLabelStyle.Render(fmt.Sprintf("%3d", len(snap.Live))),
			ui.StatLabelStyle.Render(fmt.Sprintf("%3d", len(snap.Resolved))),
			ui.SubtitleStyle.Render(snap.CreatedAt.Format(time.RFC3339)),
		)
	}
}

func runHistoryShow() {
	fs := flag.NewFlagSet("history show", flag.ExitOnError)
	snapshotRoot := fs.String("snapshots", "", "Snapshot store directory")
	org := fs.String("org", "", "Organization")
	repo := fs.String("repo", "", "Repository")
	showResolved := fs.Bool("resolved", false, "Include the resolution ledger")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(os.Args[3:])

	if *noColor {
		ui.SetNoColor(true)
	}
	if *repo == "" {
		exitWithUsage("-repo is required", "scantriage history show -snapshots DIR -org NAME -repo NAME")
	}

	store := historyStore(*snapshotRoot)
	snap, err := store.Load(*org, *repo)
	if err != nil {
		exitWithError("Loading history for %s/%s: %v", *org, *repo, err)
	}
	if snap == nil {
		exitWithError("No history for %s/%s", *org, *repo)
	}

	ui.HistoryManifest(*org, *repo, len(snap.Live), len(snap.Resolved)).Print()
	ui.PrintConfigLine("Run", snap.RunID)
	ui.PrintConfigLine("Created", snap.CreatedAt.Format(time.RFC3339))

	if len(snap.Live) > 0 {
		ui.PrintSection("Live Findings")
		for _, entry := range snap.Live {
			ui.PrintBracketedInfo(
				ui.SeverityBracket(string(entry.Severity)),
				ui.TierBracket(string(entry.Tier)),
				ui.TextBracket(entry.Fingerprint),
				ui.MutedBracket("last seen "+entry.LastSeen.Format("2006-01-02")),
			)
		}
	}

	if *showResolved && len(snap.Resolved) > 0 {
		ui.PrintSection("Resolution Ledger")
		for _, entry := range snap.Resolved {
			ui.PrintBracketedInfo(
				ui.LifecycleBracket("resolved"),
				ui.TextBracket(entry.Fingerprint),
				ui.MutedBracket("since "+entry.ResolvedAt.Format("2006-01-02")),
			)
		}
	}
}

func runHistoryDiff() {
	fs := flag.NewFlagSet("history diff", flag.ExitOnError)
	snapshotRoot := fs.String("snapshots", "", "Snapshot store directory")
	org := fs.String("org", "", "Organization")
	repo := fs.String("repo", "", "Repository")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	fs.Parse(os.Args[3:])

	if *noColor {
		ui.SetNoColor(true)
	}
	if *repo == "" {
		exitWithUsage("-repo is required", "scantriage history diff -snapshots DIR -org NAME -repo NAME")
	}

	store := historyStore(*snapshotRoot)
	latest, err := store.Load(*org, *repo)
	if err != nil {
		exitWithError("Loading history for %s/%s: %v", *org, *repo, err)
	}
	if latest == nil {
		exitWithError("No history for %s/%s", *org, *repo)
	}
	previous, err := store.LoadPrevious(*org, *repo)
	if err != nil {
		exitWithError("Loading previous run for %s/%s: %v", *org, *repo, err)
	}

	current := make([]string, 0, len(latest.Live))
	for _, entry := range latest.Live {
		current = append(current, entry.Fingerprint)
	}
	delta := lifecycle.Diff(current, previous)

	ui.PrintSection(fmt.Sprintf("Lifecycle Delta: %s/%s", *org, *repo))
	if previous == nil {
		ui.PrintHelp("Only one run retained so far; every live finding counts as new.")
	}

	printDeltaGroup("regressed", delta.Regressed)
	printDeltaGroup("new", delta.New)
	printDeltaGroup("persistent", delta.Persistent)
	printDeltaGroup("resolved", delta.Resolved)

	ui.PrintInfo(fmt.Sprintf("%d new, %d persistent, %d resolved, %d regressed",
		len(delta.New), len(delta.Persistent), len(delta.Resolved), len(delta.Regressed)))
}

func printDeltaGroup(state string, fingerprints []string) {
	for _, fp := range fingerprints {
		ui.PrintBracketedInfo(
			ui.LifecycleBracket(state),
			ui.TextBracket(fp),
		)
	}
}
