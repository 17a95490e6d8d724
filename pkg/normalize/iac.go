package normalize

import (
	"strings"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// checkovDoc is a checkov-style report: failed checks nested under
// results. Passed and skipped checks never become findings.
type checkovDoc struct {
	CheckType string `json:"check_type"`
	Results   struct {
		FailedChecks []checkovCheck `json:"failed_checks"`
	} `json:"results"`
}

type checkovCheck struct {
	CheckID       string  `json:"check_id"`
	CheckName     string  `json:"check_name"`
	FilePath      string  `json:"file_path"`
	FileLineRange []int   `json:"file_line_range"`
	Resource      string  `json:"resource"`
	Severity      string  `json:"severity"`
	CodeBlock     [][]any `json:"code_block"`
	Guideline     string  `json:"guideline"`
}

// tfsecDoc is a tfsec-style report: a flat results array.
type tfsecDoc struct {
	Results []tfsecResult `json:"results"`
}

type tfsecResult struct {
	RuleID      string `json:"rule_id"`
	LongID      string `json:"long_id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Resource    string `json:"resource"`
	Location    struct {
		Filename  string `json:"filename"`
		StartLine int    `json:"start_line"`
		EndLine   int    `json:"end_line"`
	} `json:"location"`
}

// normalizeIaC parses IaC analyzer output. The two supported shapes
// differ in the type of the results field: checkov nests an object of
// check lists, tfsec holds a flat array, so whichever decode succeeds
// names the format.
func normalizeIaC(src Source, data []byte) ([]finding.Finding, error) {
	var checkov checkovDoc
	if err := jsonutil.Unmarshal(data, &checkov); err == nil {
		return normalizeCheckov(src, checkov)
	}
	var tfsec tfsecDoc
	if err := jsonutil.Unmarshal(data, &tfsec); err != nil {
		return nil, malformed(src, finding.KindIaC, 0, "unrecognized iac report shape", err)
	}
	return normalizeTfsec(src, tfsec)
}

func normalizeCheckov(src Source, doc checkovDoc) ([]finding.Finding, error) {
	findings := make([]finding.Finding, 0, len(doc.Results.FailedChecks))
	for i, c := range doc.Results.FailedChecks {
		if c.CheckID == "" {
			return nil, malformed(src, finding.KindIaC, i+1, "missing check id", nil)
		}
		if c.FilePath == "" {
			return nil, malformed(src, finding.KindIaC, i+1, "missing file path", nil)
		}
		f := src.base(finding.KindIaC)
		f.RuleID = c.CheckID
		// Checkov reports paths rooted at the scan directory.
		f.FilePath = strings.TrimPrefix(c.FilePath, "/")
		if len(c.FileLineRange) == 2 {
			f.StartLine = c.FileLineRange[0]
			f.EndLine = c.FileLineRange[1]
		}
		f.RawSeverity = c.Severity
		// The resource address distinguishes two violations of the
		// same check in one file once line numbers are dropped.
		if c.Resource != "" {
			f.Evidence = append(f.Evidence, c.Resource)
		}
		f.Evidence = append(f.Evidence, codeBlockLines(c.CodeBlock)...)
		metaSet(&f, "check_name", c.CheckName)
		metaSet(&f, "resource", c.Resource)
		metaSet(&f, "guideline", c.Guideline)
		metaSet(&f, "check_type", doc.CheckType)
		findings = append(findings, f)
	}
	return findings, nil
}

func normalizeTfsec(src Source, doc tfsecDoc) ([]finding.Finding, error) {
	findings := make([]finding.Finding, 0, len(doc.Results))
	for i, r := range doc.Results {
		ruleID := r.LongID
		if ruleID == "" {
			ruleID = r.RuleID
		}
		if ruleID == "" {
			return nil, malformed(src, finding.KindIaC, i+1, "missing rule id", nil)
		}
		if r.Location.Filename == "" {
			return nil, malformed(src, finding.KindIaC, i+1, "missing location", nil)
		}
		f := src.base(finding.KindIaC)
		f.RuleID = ruleID
		f.FilePath = strings.TrimPrefix(r.Location.Filename, "/")
		f.StartLine = r.Location.StartLine
		f.EndLine = r.Location.EndLine
		f.RawSeverity = r.Severity
		if r.Resource != "" {
			f.Evidence = append(f.Evidence, r.Resource)
		}
		if r.Description != "" {
			f.Evidence = append(f.Evidence, r.Description)
		}
		metaSet(&f, "resource", r.Resource)
		metaSet(&f, "description", r.Description)
		findings = append(findings, f)
	}
	return findings, nil
}

// codeBlockLines extracts the source text from a checkov code_block,
// which pairs each line with its number as [line, text]. The numbers
// are dropped so the evidence survives line shifts.
func codeBlockLines(block [][]any) []string {
	var lines []string
	for _, pair := range block {
		if len(pair) < 2 {
			continue
		}
		if text, ok := pair[1].(string); ok {
			lines = append(lines, text)
		}
	}
	return lines
}
