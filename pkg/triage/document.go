package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scantriage/scantriage/pkg/finding"
	"github.com/scantriage/scantriage/pkg/fingerprint"
	"github.com/scantriage/scantriage/pkg/input"
	"github.com/scantriage/scantriage/pkg/normalize"
	"github.com/scantriage/scantriage/pkg/report"
	"github.com/scantriage/scantriage/pkg/workerpool"
)

// docOutcome is the result of reading and normalizing one scanner
// document. Degraded documents carry no findings, only a status and
// detail for the report's input annotations.
type docOutcome struct {
	doc      input.Document
	findings []finding.Finding
	status   report.InputStatus
	detail   string
}

// normalizeAll reads and normalizes every document in parallel. The
// result slice is indexed like docs, so downstream iteration keeps
// Discover's path order no matter how the pool schedules the work.
func (e *Engine) normalizeAll(ctx context.Context, docs []input.Document, scanTime time.Time) []docOutcome {
	if len(docs) == 0 {
		return nil
	}
	outcomes := make([]docOutcome, len(docs))
	pool := workerpool.New(e.config.Workers)
	defer pool.Close()
	pool.ParallelFor(len(docs), func(i int) {
		outcomes[i] = e.processDocument(ctx, docs[i], scanTime)
	})
	return outcomes
}

// processDocument runs the per-document pipeline: bounded read,
// normalization, fingerprinting. Every failure degrades the document
// rather than the run.
func (e *Engine) processDocument(ctx context.Context, doc input.Document, scanTime time.Time) docOutcome {
	rctx, cancel := context.WithTimeout(ctx, e.config.InputTimeout)
	defer cancel()

	data, err := input.Read(rctx, doc)
	if err != nil {
		return docOutcome{doc: doc, status: report.InputUnavailable, detail: err.Error()}
	}

	src := normalize.Source{
		Organization: doc.Organization,
		Repository:   doc.Repository,
		Scanner:      doc.Scanner,
		ScanTime:     scanTime,
	}
	found, err := normalize.Normalize(doc.Kind, src, data)
	if err != nil {
		status := report.InputMalformed
		if errors.Is(err, finding.ErrScannerUnavailable) {
			status = report.InputUnavailable
		}
		return docOutcome{doc: doc, status: status, detail: err.Error()}
	}

	// Fingerprints are computed exactly once, here at ingestion.
	for i := range found {
		found[i].Fingerprint = fingerprint.Compute(found[i])
	}
	return docOutcome{doc: doc, findings: found, status: report.InputOK}
}

// runTarget resolves the repository the run covers. An explicit
// repository in the configuration wins; otherwise the discovered
// documents must all belong to a single one.
func runTarget(org, repo string, docs []input.Document) (string, string, error) {
	if repo != "" {
		return org, repo, nil
	}
	if len(docs) == 0 {
		return "", "", errors.New("triage: no scanner documents found and no repository configured")
	}
	o, r := docs[0].Organization, docs[0].Repository
	for _, d := range docs[1:] {
		if d.Organization != o || d.Repository != r {
			return "", "", fmt.Errorf("triage: results root holds multiple repositories (%s/%s, %s/%s), select one",
				o, r, d.Organization, d.Repository)
		}
	}
	return o, r, nil
}
