// pkg/ui/manifest.go - Execution manifest display for pre-run info
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ManifestItem represents a single item in the execution manifest
type ManifestItem struct {
	Label    string
	Value    interface{}
	Icon     string
	Emphasis bool // If true, highlight this item
}

// ExecutionManifest displays what will be executed before a run starts
type ExecutionManifest struct {
	Title       string
	Description string
	Items       []ManifestItem
	Writer      io.Writer
	BoxStyle    bool // If true, draw a box around the manifest
}

// NewExecutionManifest creates a new manifest with default settings
func NewExecutionManifest(title string) *ExecutionManifest {
	return &ExecutionManifest{
		Title:    title,
		Items:    make([]ManifestItem, 0),
		Writer:   os.Stdout,
		BoxStyle: true,
	}
}

// SetDescription sets a description line under the title
func (m *ExecutionManifest) SetDescription(desc string) *ExecutionManifest {
	m.Description = desc
	return m
}

// Add adds an item to the manifest
func (m *ExecutionManifest) Add(label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Label: label, Value: value})
	return m
}

// AddWithIcon adds an item with an icon
func (m *ExecutionManifest) AddWithIcon(icon, label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Icon: icon, Label: label, Value: value})
	return m
}

// AddEmphasis adds an emphasized item (highlighted)
func (m *ExecutionManifest) AddEmphasis(icon, label string, value interface{}) *ExecutionManifest {
	m.Items = append(m.Items, ManifestItem{Icon: icon, Label: label, Value: value, Emphasis: true})
	return m
}

// AddRepoInfo adds the organization/repository a run will triage
func (m *ExecutionManifest) AddRepoInfo(organization, repository string) *ExecutionManifest {
	if repository != "" {
		m.AddWithIcon("🎯", "Repository", fmt.Sprintf("%s/%s", organization, repository))
	} else {
		m.AddWithIcon("🎯", "Organization", organization)
	}
	return m
}

// AddDocumentInfo adds scanner document counts (common pattern)
func (m *ExecutionManifest) AddDocumentInfo(count int, scanners []string) *ExecutionManifest {
	m.AddEmphasis("📄", "Documents", fmt.Sprintf("%d scanner documents", count))
	if len(scanners) > 0 {
		m.AddWithIcon("🔬", "Scanners", strings.Join(scanners, ", "))
	}
	return m
}

// AddPolicyInfo adds the active triage policy
func (m *ExecutionManifest) AddPolicyInfo(name string) *ExecutionManifest {
	if name != "" {
		m.AddWithIcon("📋", "Policy", name)
	}
	return m
}

// AddWorkerInfo adds normalization concurrency info
func (m *ExecutionManifest) AddWorkerInfo(workers int) *ExecutionManifest {
	m.AddWithIcon("⚡", "Workers", fmt.Sprintf("%d concurrent", workers))
	return m
}

// Print displays the manifest
func (m *ExecutionManifest) Print() {
	if m.BoxStyle {
		m.printBoxed()
	} else {
		m.printSimple()
	}
}

// printBoxed displays manifest in a Unicode box
func (m *ExecutionManifest) printBoxed() {
	w := m.Writer

	// Calculate max width
	maxWidth := len(m.Title) + 4
	for _, item := range m.Items {
		width := len(item.Label) + len(fmt.Sprintf("%v", item.Value)) + 10
		if width > maxWidth {
			maxWidth = width
		}
	}
	if maxWidth > 70 {
		maxWidth = 70
	}
	if maxWidth < 50 {
		maxWidth = 50
	}

	// Box characters
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ╔%s╗\n", strings.Repeat("═", maxWidth))

	// Title
	titlePadding := (maxWidth - len(m.Title)) / 2
	fmt.Fprintf(w, "  ║%s\033[1m%s\033[0m%s║\n",
		strings.Repeat(" ", titlePadding),
		m.Title,
		strings.Repeat(" ", maxWidth-titlePadding-len(m.Title)))

	// Description
	if m.Description != "" {
		descPadding := (maxWidth - len(m.Description)) / 2
		fmt.Fprintf(w, "  ║%s\033[2m%s\033[0m%s║\n",
			strings.Repeat(" ", descPadding),
			m.Description,
			strings.Repeat(" ", maxWidth-descPadding-len(m.Description)))
	}

	fmt.Fprintf(w, "  ╠%s╣\n", strings.Repeat("═", maxWidth))

	// Items
	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)

		// Apply emphasis styling
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		// Calculate padding
		labelPart := fmt.Sprintf("%s%s:", icon, item.Label)
		displayLen := len(icon) + len(item.Label) + 1 + len(fmt.Sprintf("%v", item.Value))
		padding := maxWidth - displayLen - 4
		if padding < 1 {
			padding = 1
		}

		fmt.Fprintf(w, "  ║  %s%s%s  ║\n", labelPart, strings.Repeat(" ", padding), valueStr)
	}

	fmt.Fprintf(w, "  ╚%s╝\n", strings.Repeat("═", maxWidth))
	fmt.Fprintln(w)
}

// printSimple displays manifest as simple key-value pairs
func (m *ExecutionManifest) printSimple() {
	w := m.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  \033[1m%s\033[0m\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(w, "  \033[2m%s\033[0m\n", m.Description)
	}
	fmt.Fprintln(w)

	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		fmt.Fprintf(w, "    %s%s: %s\n", icon, item.Label, valueStr)
	}
	fmt.Fprintln(w)
}

// === Pre-built Manifest Templates ===

// TriageManifest creates a manifest for triage runs
func TriageManifest(organization, repository, policy string, documents int, scanners []string, workers int, timeout time.Duration) *ExecutionManifest {
	m := NewExecutionManifest("TRIAGE MANIFEST")
	m.SetDescription("Finding correlation and triage configuration")
	m.AddRepoInfo(organization, repository)
	m.AddDocumentInfo(documents, scanners)
	m.AddPolicyInfo(policy)
	m.AddWorkerInfo(workers)
	m.AddWithIcon("⏰", "Timeout", timeout.String())
	return m
}

// HistoryManifest creates a manifest for snapshot history operations
func HistoryManifest(organization, repository string, live, resolved int) *ExecutionManifest {
	m := NewExecutionManifest("SNAPSHOT HISTORY")
	m.SetDescription("Lifecycle state across triage runs")
	m.AddRepoInfo(organization, repository)
	m.AddEmphasis("🔎", "Live", fmt.Sprintf("%d tracked findings", live))
	m.AddWithIcon("✅", "Resolved", fmt.Sprintf("%d in resolution ledger", resolved))
	return m
}
