package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewExecutionManifest(t *testing.T) {
	m := NewExecutionManifest("TRIAGE MANIFEST")
	if m.Title != "TRIAGE MANIFEST" {
		t.Errorf("Title = %q", m.Title)
	}
	if !m.BoxStyle {
		t.Error("BoxStyle should default to true")
	}
	if m.Writer != os.Stdout {
		t.Error("Writer should default to stdout")
	}
	if len(m.Items) != 0 {
		t.Errorf("new manifest has %d items", len(m.Items))
	}
}

func TestExecutionManifestAdd(t *testing.T) {
	m := NewExecutionManifest("TEST")
	m.Add("Repository", "acme/billing-api")

	if len(m.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(m.Items))
	}
	if m.Items[0].Label != "Repository" || m.Items[0].Value != "acme/billing-api" {
		t.Errorf("item = %+v", m.Items[0])
	}
	if m.Items[0].Emphasis {
		t.Error("Add should not set emphasis")
	}
}

func TestExecutionManifestFluentAPI(t *testing.T) {
	m := NewExecutionManifest("TEST").
		SetDescription("run configuration").
		Add("Policy", "default-triage").
		AddWithIcon("⚡", "Workers", 10).
		AddEmphasis("📄", "Documents", "3 scanner documents")

	if m.Description != "run configuration" {
		t.Errorf("Description = %q", m.Description)
	}
	if len(m.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(m.Items))
	}
	if !m.Items[2].Emphasis {
		t.Error("AddEmphasis should set emphasis")
	}
	if m.Items[1].Icon != "⚡" {
		t.Errorf("icon = %q", m.Items[1].Icon)
	}
}

func TestAddRepoInfo(t *testing.T) {
	t.Run("with_repository", func(t *testing.T) {
		m := NewExecutionManifest("TEST").AddRepoInfo("acme", "billing-api")
		if len(m.Items) != 1 {
			t.Fatalf("items = %d", len(m.Items))
		}
		if m.Items[0].Value != "acme/billing-api" {
			t.Errorf("value = %v", m.Items[0].Value)
		}
	})

	t.Run("organization_only", func(t *testing.T) {
		m := NewExecutionManifest("TEST").AddRepoInfo("acme", "")
		if m.Items[0].Label != "Organization" {
			t.Errorf("label = %q", m.Items[0].Label)
		}
	})
}

func TestAddDocumentInfo(t *testing.T) {
	m := NewExecutionManifest("TEST").AddDocumentInfo(3, []string{"gitleaks", "semgrep", "nuclei"})

	if len(m.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.Items))
	}
	if !m.Items[0].Emphasis {
		t.Error("document count should be emphasized")
	}
	if m.Items[1].Value != "gitleaks, semgrep, nuclei" {
		t.Errorf("scanners = %v", m.Items[1].Value)
	}

	// No scanner list means no second row.
	m2 := NewExecutionManifest("TEST").AddDocumentInfo(0, nil)
	if len(m2.Items) != 1 {
		t.Errorf("items = %d, want 1", len(m2.Items))
	}
}

func TestAddPolicyInfo(t *testing.T) {
	m := NewExecutionManifest("TEST").AddPolicyInfo("default-triage")
	if len(m.Items) != 1 || m.Items[0].Value != "default-triage" {
		t.Errorf("items = %+v", m.Items)
	}

	// Empty name is a no-op.
	m2 := NewExecutionManifest("TEST").AddPolicyInfo("")
	if len(m2.Items) != 0 {
		t.Error("empty policy should not add an item")
	}
}

func TestManifestPrintBoxed(t *testing.T) {
	var buf bytes.Buffer
	m := NewExecutionManifest("TRIAGE MANIFEST")
	m.Writer = &buf
	m.Add("Repository", "acme/billing-api")
	m.Print()

	out := buf.String()
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╚") {
		t.Error("boxed output missing box corners")
	}
	if !strings.Contains(out, "TRIAGE MANIFEST") {
		t.Error("boxed output missing title")
	}
	if !strings.Contains(out, "acme/billing-api") {
		t.Error("boxed output missing item value")
	}
}

func TestManifestPrintSimple(t *testing.T) {
	var buf bytes.Buffer
	m := NewExecutionManifest("TRIAGE MANIFEST")
	m.Writer = &buf
	m.BoxStyle = false
	m.Add("Workers", 10)
	m.Print()

	out := buf.String()
	if strings.Contains(out, "╔") {
		t.Error("simple output should not draw a box")
	}
	if !strings.Contains(out, "Workers: 10") {
		t.Errorf("simple output = %q", out)
	}
}

func TestTriageManifest(t *testing.T) {
	m := TriageManifest("acme", "billing-api", "default-triage", 3,
		[]string{"gitleaks", "semgrep"}, 10, 30*time.Second)

	if m.Title != "TRIAGE MANIFEST" {
		t.Errorf("Title = %q", m.Title)
	}

	var buf bytes.Buffer
	m.Writer = &buf
	m.Print()
	out := buf.String()

	for _, want := range []string{"acme/billing-api", "3 scanner documents", "default-triage", "10 concurrent", "30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("manifest missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryManifest(t *testing.T) {
	m := HistoryManifest("acme", "billing-api", 12, 4)

	var buf bytes.Buffer
	m.Writer = &buf
	m.Print()
	out := buf.String()

	if !strings.Contains(out, "12 tracked findings") {
		t.Errorf("missing live count:\n%s", out)
	}
	if !strings.Contains(out, "4 in resolution ledger") {
		t.Errorf("missing resolved count:\n%s", out)
	}
}
