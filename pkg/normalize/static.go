package normalize

import (
	"strings"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// semgrepDoc is a semgrep-style results document. The document also
// carries an errors array of per-file parse failures inside the
// scanned repository; those reduce scanner coverage but do not
// invalidate the results present, so they are ignored here.
type semgrepDoc struct {
	Results []semgrepResult `json:"results"`
}

type semgrepResult struct {
	CheckID string `json:"check_id"`
	Path    string `json:"path"`
	Start   struct {
		Line int `json:"line"`
	} `json:"start"`
	End struct {
		Line int `json:"line"`
	} `json:"end"`
	Extra struct {
		Message  string         `json:"message"`
		Severity string         `json:"severity"`
		Lines    string         `json:"lines"`
		Metadata map[string]any `json:"metadata"`
	} `json:"extra"`
}

func normalizeStatic(src Source, data []byte) ([]finding.Finding, error) {
	var doc semgrepDoc
	if err := jsonutil.Unmarshal(data, &doc); err != nil {
		return nil, malformed(src, finding.KindStatic, 0, "invalid static analysis report", err)
	}

	findings := make([]finding.Finding, 0, len(doc.Results))
	for i, r := range doc.Results {
		if r.CheckID == "" {
			return nil, malformed(src, finding.KindStatic, i+1, "missing check id", nil)
		}
		if r.Path == "" {
			return nil, malformed(src, finding.KindStatic, i+1, "missing path", nil)
		}
		f := src.base(finding.KindStatic)
		f.RuleID = r.CheckID
		f.FilePath = r.Path
		f.StartLine = r.Start.Line
		f.EndLine = r.End.Line
		f.RawSeverity = r.Extra.Severity
		if r.Extra.Lines != "" {
			f.Evidence = []string{r.Extra.Lines}
		}
		metaSet(&f, "message", r.Extra.Message)
		metaSet(&f, "cwe", cweOf(r.Extra.Metadata["cwe"]))
		// Rule authors annotate injection sinks with the reachable
		// endpoint and parameter; correlation keys read these back.
		if v, ok := r.Extra.Metadata["parameter"].(string); ok {
			f.Parameter = v
		}
		if v, ok := r.Extra.Metadata["endpoint"].(string); ok {
			metaSet(&f, "endpoint", v)
		}
		findings = append(findings, f)
	}
	return findings, nil
}

// cweOf extracts the leading CWE identifier from rule metadata, which
// carries either a string or a list of strings in the form
// "CWE-798: Use of Hard-coded Credentials".
func cweOf(v any) string {
	s, ok := v.(string)
	if !ok {
		list, isList := v.([]any)
		if !isList || len(list) == 0 {
			return ""
		}
		if s, ok = list[0].(string); !ok {
			return ""
		}
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
