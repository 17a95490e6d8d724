package fingerprint

import (
	"testing"
	"time"

	"github.com/scantriage/scantriage/pkg/finding"
)

func baseFinding() finding.Finding {
	return finding.Finding{
		Kind:        finding.KindStatic,
		Repository:  "billing-api",
		Scanner:     "semgrep",
		RuleID:      "python-sql-format-string",
		FilePath:    "app/db.py",
		StartLine:   42,
		EndLine:     42,
		RawSeverity: "ERROR",
		Evidence:    []string{`cursor.execute("SELECT * FROM users WHERE id = %s" % uid)`},
		DetectedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	f := baseFinding()
	first := Compute(f)
	for i := 0; i < 100; i++ {
		if got := Compute(f); got != first {
			t.Fatalf("iteration %d: fingerprint changed: %s != %s", i, got, first)
		}
	}
	if len(first) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(first))
	}
}

func TestComputeIgnoresLineNumbers(t *testing.T) {
	t.Parallel()

	f := baseFinding()
	shifted := baseFinding()
	shifted.StartLine = 57
	shifted.EndLine = 57

	if Compute(f) != Compute(shifted) {
		t.Error("line shift with unchanged evidence must not change the fingerprint")
	}
}

func TestComputeIgnoresScanTime(t *testing.T) {
	t.Parallel()

	f := baseFinding()
	later := baseFinding()
	later.DetectedAt = later.DetectedAt.Add(30 * 24 * time.Hour)

	if Compute(f) != Compute(later) {
		t.Error("scan timestamp must not enter the fingerprint")
	}
}

func TestComputeSensitivity(t *testing.T) {
	t.Parallel()

	base := Compute(baseFinding())

	tests := []struct {
		name   string
		mutate func(*finding.Finding)
	}{
		{"rule id", func(f *finding.Finding) { f.RuleID = "python-sql-concat" }},
		{"evidence", func(f *finding.Finding) {
			f.Evidence = []string{`cursor.execute("SELECT * FROM orders WHERE id = %s" % uid)`}
		}},
		{"file path", func(f *finding.Finding) { f.FilePath = "app/legacy_db.py" }},
		{"scanner kind", func(f *finding.Finding) { f.Kind = finding.KindIaC }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := baseFinding()
			tt.mutate(&f)
			if got := Compute(f); got == base {
				t.Errorf("changing %s must change the fingerprint", tt.name)
			}
		})
	}
}

func TestComputeWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	f := baseFinding()
	reindented := baseFinding()
	reindented.Evidence = []string{"\tcursor.execute(\"SELECT * FROM users WHERE id = %s\"   %  uid)  "}

	if Compute(f) != Compute(reindented) {
		t.Error("whitespace-only evidence changes must not change the fingerprint")
	}
}

func TestComputeDynamicUsesEndpoint(t *testing.T) {
	t.Parallel()

	f := finding.Finding{
		Kind:     finding.KindDynamic,
		RuleID:   "ssrf-oob-callback",
		Target:   "https://api.example.com/v1/fetch?url=test",
		Evidence: []string{"interaction: dns query from 10.1.2.3"},
	}
	same := f
	same.Target = "HTTPS://API.EXAMPLE.COM:443/v1/fetch?url=test"

	if Compute(f) != Compute(same) {
		t.Error("cosmetic URL differences must not change the fingerprint")
	}

	other := f
	other.Target = "https://api.example.com/v2/fetch?url=test"
	if Compute(f) == Compute(other) {
		t.Error("different endpoint must change the fingerprint")
	}
}

func TestEvidenceSignatureEmpty(t *testing.T) {
	t.Parallel()

	if EvidenceSignature(nil) != EvidenceSignature([]string{}) {
		t.Error("nil and empty evidence must share a signature")
	}
	if EvidenceSignature(nil) != EvidenceSignature([]string{"", "  "}) {
		t.Error("blank-only evidence must normalize to the empty signature")
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"app/db.py", "app/db.py"},
		{"./app/db.py", "app/db.py"},
		{"/app/db.py", "app/db.py"},
		{`app\db.py`, "app/db.py"},
		{"app/../app/db.py", "app/db.py"},
		{"dist/app.jar!config/secrets.properties", "config/secrets.properties"},
		{"a.zip!b.jar!lib/x.conf", "lib/x.conf"},
		{"", ""},
		{".", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePath(tt.in); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/api/", "https://example.com/api"},
		{"https://example.com:443/api", "https://example.com/api"},
		{"http://example.com:80/", "http://example.com/"},
		{"https://example.com/api#frag", "https://example.com/api"},
		{"https://example.com/s?b=2&a=1", "https://example.com/s?a=1&b=2"},
		{"example.com/path/", "example.com/path"},
		{"  https://example.com/x ", "https://example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeEndpoint(tt.in); got != tt.want {
				t.Errorf("NormalizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEvidence(t *testing.T) {
	t.Parallel()

	got := NormalizeEvidence([]string{"  aws_key =\t'AKIA...'  ", "", "next  line"})
	want := "aws_key = 'AKIA...'\nnext line"
	if got != want {
		t.Errorf("NormalizeEvidence = %q, want %q", got, want)
	}
}
