package normalize

import (
	"bytes"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// artifactRecord is one archive-inspector JSONL line: a rule match
// against a member inside a scanned build artifact.
type artifactRecord struct {
	Archive  string `json:"archive"`
	Member   string `json:"member"`
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Snippet  string `json:"snippet"`
	Line     int    `json:"line"`
	SHA256   string `json:"sha256"`
}

// normalizeArtifact parses archive-inspector records. The member path
// joins its archive as "archive!member" so same-named members in
// different archives stay distinct findings.
func normalizeArtifact(src Source, data []byte) ([]finding.Finding, error) {
	var findings []finding.Finding
	err := jsonutil.ForEachLine(bytes.NewReader(data), func(n int, line []byte) error {
		var r artifactRecord
		if err := jsonutil.Unmarshal(line, &r); err != nil {
			return malformed(src, finding.KindArtifact, n, "invalid artifact record", err)
		}
		if r.RuleID == "" {
			return malformed(src, finding.KindArtifact, n, "missing rule id", nil)
		}
		if r.Archive == "" {
			return malformed(src, finding.KindArtifact, n, "missing archive path", nil)
		}
		f := src.base(finding.KindArtifact)
		f.RuleID = r.RuleID
		f.FilePath = r.Archive
		if r.Member != "" {
			f.FilePath = r.Archive + "!" + r.Member
		}
		f.StartLine = r.Line
		f.RawSeverity = r.Severity
		if r.Snippet != "" {
			f.Evidence = []string{r.Snippet}
		}
		metaSet(&f, "sha256", r.SHA256)
		findings = append(findings, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}
