package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantriage/scantriage/pkg/finding"
)

const semgrepReport = `{
  "results": [
    {
      "check_id": "python.lang.security.dangerous-subprocess-use",
      "path": "app/handlers.py",
      "start": {"line": 42, "col": 5},
      "end": {"line": 44, "col": 20},
      "extra": {
        "message": "Detected subprocess call with shell=True",
        "severity": "ERROR",
        "lines": "subprocess.call(user_cmd, shell=True)",
        "metadata": {
          "cwe": "CWE-78",
          "endpoint": "https://api.example.com/v1/run",
          "parameter": "cmd"
        }
      }
    },
    {
      "check_id": "python-path-join-absolute-bypass",
      "path": "app/files.py",
      "start": {"line": 10},
      "end": {"line": 10},
      "extra": {
        "severity": "WARNING",
        "lines": "os.path.join(base, user_path)"
      }
    }
  ],
  "errors": [
    {"message": "Syntax error in vendored/minified.js"}
  ]
}`

func TestNormalizeStatic(t *testing.T) {
	t.Parallel()

	src := testSource()
	src.Scanner = "semgrep"
	findings, err := Normalize(finding.KindStatic, src, []byte(semgrepReport))
	require.NoError(t, err)
	require.Len(t, findings, 2)

	f := findings[0]
	assert.Equal(t, finding.KindStatic, f.Kind)
	assert.Equal(t, "python.lang.security.dangerous-subprocess-use", f.RuleID)
	assert.Equal(t, "app/handlers.py", f.FilePath)
	assert.Equal(t, 42, f.StartLine)
	assert.Equal(t, 44, f.EndLine)
	assert.Equal(t, "ERROR", f.RawSeverity)
	assert.Equal(t, []string{"subprocess.call(user_cmd, shell=True)"}, f.Evidence)
	assert.Equal(t, "cmd", f.Parameter)
	assert.Equal(t, "https://api.example.com/v1/run", f.Metadata["endpoint"])
	assert.Equal(t, "Detected subprocess call with shell=True", f.Metadata["message"])
	assert.Equal(t, "CWE-78", f.Metadata["cwe"])

	// Second result carries no rule metadata.
	assert.Empty(t, findings[1].Parameter)
	assert.Empty(t, findings[1].Metadata["cwe"])
	assert.Equal(t, "WARNING", findings[1].RawSeverity)
}

func TestCWEOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"bare id", "CWE-78", "CWE-78"},
		{"id with title", "CWE-798: Use of Hard-coded Credentials", "CWE-798"},
		{"list", []any{"CWE-89: SQL Injection", "CWE-564"}, "CWE-89"},
		{"empty list", []any{}, ""},
		{"non string", 78, ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cweOf(tt.in))
		})
	}
}

func TestNormalizeStaticEmptyResults(t *testing.T) {
	t.Parallel()

	findings, err := Normalize(finding.KindStatic, testSource(), []byte(`{"results": [], "errors": []}`))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestNormalizeStaticMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		doc        string
		wantRecord int
	}{
		{"not json", `{"results": [`, 0},
		{"missing check id", `{"results": [{"path": "a.py"}]}`, 1},
		{"missing path", `{"results": [{"check_id": "x", "path": "a.py", "extra": {}}, {"check_id": "y"}]}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(finding.KindStatic, testSource(), []byte(tt.doc))
			var malErr *MalformedInputError
			require.True(t, errors.As(err, &malErr), "want *MalformedInputError, got %v", err)
			assert.Equal(t, tt.wantRecord, malErr.Record)
		})
	}
}
