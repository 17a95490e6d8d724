package normalize

import (
	"bytes"
	"strings"
	"time"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// nucleiRecord is the subset of a nuclei-style JSONL result the
// engine consumes.
type nucleiRecord struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Name           string   `json:"name"`
		Severity       string   `json:"severity"`
		Tags           []string `json:"tags"`
		Classification struct {
			CWEID []string `json:"cwe-id"`
		} `json:"classification"`
	} `json:"info"`
	Type             string             `json:"type"`
	Host             string             `json:"host"`
	MatchedAt        string             `json:"matched-at"`
	MatcherName      string             `json:"matcher-name"`
	ExtractedResults []string           `json:"extracted-results"`
	Request          string             `json:"request"`
	Response         string             `json:"response"`
	Meta             map[string]any     `json:"meta"`
	Timestamp        time.Time          `json:"timestamp"`
	Interaction      *nucleiInteraction `json:"interaction"`
}

// nucleiInteraction is an out-of-band callback captured by the
// scanner's interaction server. Its presence is ground truth that the
// target reached out.
type nucleiInteraction struct {
	Protocol      string `json:"protocol"`
	FullID        string `json:"full-id"`
	RemoteAddress string `json:"remote-address"`
}

// normalizeDynamic parses dynamic web scan results. Evidence holds
// only stable match content (matcher name, extracted values); the raw
// request and response transcripts carry timestamps and nonces, so
// they travel as metadata excerpts where fingerprints never see them.
func normalizeDynamic(src Source, data []byte) ([]finding.Finding, error) {
	var findings []finding.Finding
	err := jsonutil.ForEachLine(bytes.NewReader(data), func(n int, line []byte) error {
		var r nucleiRecord
		if err := jsonutil.Unmarshal(line, &r); err != nil {
			return malformed(src, finding.KindDynamic, n, "invalid dynamic scan record", err)
		}
		if r.TemplateID == "" {
			return malformed(src, finding.KindDynamic, n, "missing template id", nil)
		}
		target := r.MatchedAt
		if target == "" {
			target = r.Host
		}
		if target == "" {
			return malformed(src, finding.KindDynamic, n, "missing target", nil)
		}
		f := src.base(finding.KindDynamic)
		f.RuleID = r.TemplateID
		f.Target = target
		f.RawSeverity = r.Info.Severity
		if !r.Timestamp.IsZero() {
			f.DetectedAt = r.Timestamp
		}
		if r.MatcherName != "" {
			f.Evidence = append(f.Evidence, r.MatcherName)
		}
		f.Evidence = append(f.Evidence, r.ExtractedResults...)
		if r.Interaction != nil {
			f.OOB = true
			metaSet(&f, "interaction_protocol", r.Interaction.Protocol)
			metaSet(&f, "interaction_id", r.Interaction.FullID)
			metaSet(&f, "interaction_remote", r.Interaction.RemoteAddress)
		}
		if v, ok := r.Meta["parameter"].(string); ok {
			f.Parameter = v
		}
		metaSet(&f, "name", r.Info.Name)
		metaSet(&f, "tags", strings.Join(r.Info.Tags, ","))
		// Templates list classification ids lowercase ("cwe-89").
		if ids := r.Info.Classification.CWEID; len(ids) > 0 {
			metaSet(&f, "cwe", strings.ToUpper(ids[0]))
		}
		metaSet(&f, "request", excerpt(r.Request))
		metaSet(&f, "response", excerpt(r.Response))
		findings = append(findings, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// excerpt caps a transcript at BufferTiny bytes for metadata storage.
func excerpt(s string) string {
	if len(s) <= defaults.BufferTiny {
		return s
	}
	return s[:defaults.BufferTiny]
}
