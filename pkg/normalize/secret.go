package normalize

import (
	"bytes"
	"strconv"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// gitleaksRecord is the subset of a gitleaks report entry the engine
// consumes. Gitleaks reports no severity; the policy severity map
// supplies one for the empty label.
type gitleaksRecord struct {
	RuleID      string  `json:"RuleID"`
	Description string  `json:"Description"`
	File        string  `json:"File"`
	StartLine   int     `json:"StartLine"`
	EndLine     int     `json:"EndLine"`
	Match       string  `json:"Match"`
	Secret      string  `json:"Secret"`
	Entropy     float64 `json:"Entropy"`
	Commit      string  `json:"Commit"`
}

// trufflehogRecord is the subset of a trufflehog JSONL line the
// engine consumes. Verified carries the scanner's own live-credential
// check; this engine never probes credentials itself.
type trufflehogRecord struct {
	DetectorName   string `json:"DetectorName"`
	Verified       bool   `json:"Verified"`
	Raw            string `json:"Raw"`
	Redacted       string `json:"Redacted"`
	SourceMetadata struct {
		Data struct {
			Filesystem struct {
				File string `json:"file"`
				Line int    `json:"line"`
			} `json:"Filesystem"`
		} `json:"Data"`
	} `json:"SourceMetadata"`
}

// normalizeSecret parses secret-scanner output. The two supported
// shapes are told apart by the first byte: a JSON array is a
// gitleaks-style report, anything else is trufflehog-style JSONL.
func normalizeSecret(src Source, data []byte) ([]finding.Finding, error) {
	if firstByte(data) == '[' {
		return normalizeGitleaks(src, data)
	}
	return normalizeTrufflehog(src, data)
}

func normalizeGitleaks(src Source, data []byte) ([]finding.Finding, error) {
	var records []gitleaksRecord
	if err := jsonutil.Unmarshal(data, &records); err != nil {
		return nil, malformed(src, finding.KindSecret, 0, "invalid gitleaks report", err)
	}

	findings := make([]finding.Finding, 0, len(records))
	for i, r := range records {
		if r.RuleID == "" {
			return nil, malformed(src, finding.KindSecret, i+1, "missing rule id", nil)
		}
		if r.File == "" {
			return nil, malformed(src, finding.KindSecret, i+1, "missing file path", nil)
		}
		f := src.base(finding.KindSecret)
		f.RuleID = r.RuleID
		f.FilePath = r.File
		f.StartLine = r.StartLine
		f.EndLine = r.EndLine
		// The matched line is the evidence; the bare secret is the
		// fallback when no surrounding match is reported.
		switch {
		case r.Match != "":
			f.Evidence = []string{r.Match}
		case r.Secret != "":
			f.Evidence = []string{r.Secret}
		}
		metaSet(&f, "description", r.Description)
		metaSet(&f, "commit", r.Commit)
		if r.Entropy > 0 {
			metaSet(&f, "entropy", strconv.FormatFloat(r.Entropy, 'f', 2, 64))
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func normalizeTrufflehog(src Source, data []byte) ([]finding.Finding, error) {
	var findings []finding.Finding
	err := jsonutil.ForEachLine(bytes.NewReader(data), func(n int, line []byte) error {
		var r trufflehogRecord
		if err := jsonutil.Unmarshal(line, &r); err != nil {
			return malformed(src, finding.KindSecret, n, "invalid trufflehog record", err)
		}
		if r.DetectorName == "" {
			return malformed(src, finding.KindSecret, n, "missing detector name", nil)
		}
		fs := r.SourceMetadata.Data.Filesystem
		if fs.File == "" {
			return malformed(src, finding.KindSecret, n, "missing file path", nil)
		}
		f := src.base(finding.KindSecret)
		f.RuleID = r.DetectorName
		f.FilePath = fs.File
		f.StartLine = fs.Line
		f.Verified = r.Verified
		switch {
		case r.Raw != "":
			f.Evidence = []string{r.Raw}
		case r.Redacted != "":
			f.Evidence = []string{r.Redacted}
		}
		findings = append(findings, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// firstByte returns the first non-whitespace byte of data, 0 when
// there is none.
func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
