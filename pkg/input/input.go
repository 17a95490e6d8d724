// Package input discovers and reads scanner output documents under a
// results root laid out as <org>/<repo>/<scanner>.{json,jsonl}. The
// scanner name in the file stem decides which normalizer handles the
// document; files with unrecognized stems are skipped.
package input

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/finding"
)

// Document is one discovered scanner output file.
type Document struct {
	Organization string
	Repository   string

	// Scanner is the file stem: "gitleaks", "semgrep", "nuclei".
	Scanner string

	Kind finding.ScannerKind
	Path string
}

// scannerKinds maps known scanner names onto the kind whose
// normalizer understands their output.
var scannerKinds = map[string]finding.ScannerKind{
	"gitleaks":          finding.KindSecret,
	"trufflehog":        finding.KindSecret,
	"semgrep":           finding.KindStatic,
	"checkov":           finding.KindIaC,
	"tfsec":             finding.KindIaC,
	"archive-inspector": finding.KindArtifact,
	"artifact":          finding.KindArtifact,
	"nuclei":            finding.KindDynamic,
}

// KindFor resolves a scanner name to its kind. Versioned stems like
// "gitleaks-v8" resolve through the token before the first dash.
func KindFor(scanner string) (finding.ScannerKind, bool) {
	if k, ok := scannerKinds[scanner]; ok {
		return k, true
	}
	if head, _, found := strings.Cut(scanner, "-"); found {
		if k, ok := scannerKinds[head]; ok {
			return k, true
		}
	}
	return "", false
}

// Discover walks root for scanner documents. Empty org or repo
// matches everything at that level. The result is sorted by path, so
// repeated runs see the same documents in the same order.
func Discover(root, org, repo string) ([]Document, error) {
	orgs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("input: reading results root: %w", err)
	}

	var docs []Document
	for _, o := range orgs {
		if !o.IsDir() || (org != "" && o.Name() != org) {
			continue
		}
		repos, err := os.ReadDir(filepath.Join(root, o.Name()))
		if err != nil {
			return nil, fmt.Errorf("input: reading %s: %w", o.Name(), err)
		}
		for _, r := range repos {
			if !r.IsDir() || (repo != "" && r.Name() != repo) {
				continue
			}
			files, err := os.ReadDir(filepath.Join(root, o.Name(), r.Name()))
			if err != nil {
				return nil, fmt.Errorf("input: reading %s/%s: %w", o.Name(), r.Name(), err)
			}
			for _, f := range files {
				if f.IsDir() {
					continue
				}
				doc, ok := document(root, o.Name(), r.Name(), f.Name())
				if !ok {
					continue
				}
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

func document(root, org, repo, name string) (Document, bool) {
	ext := filepath.Ext(name)
	if ext != ".json" && ext != ".jsonl" {
		return Document{}, false
	}
	scanner := strings.TrimSuffix(name, ext)
	kind, ok := KindFor(scanner)
	if !ok {
		return Document{}, false
	}
	return Document{
		Organization: org,
		Repository:   repo,
		Scanner:      scanner,
		Kind:         kind,
		Path:         filepath.Join(root, org, repo, name),
	}, true
}

// Read loads one document, capped at defaults.BufferMax bytes and
// abandoned if ctx expires mid-read. Every failure wraps
// finding.ErrScannerUnavailable so the engine degrades that scanner
// instead of aborting the run.
func Read(ctx context.Context, doc Document) ([]byte, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, unavailable(doc, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > defaults.BufferMax {
		return nil, unavailable(doc, fmt.Errorf("document is %d bytes, limit %d", info.Size(), defaults.BufferMax))
	}

	var buf bytes.Buffer
	chunk := make([]byte, defaults.BufferLarge)
	for {
		if err := ctx.Err(); err != nil {
			return nil, unavailable(doc, err)
		}
		n, err := f.Read(chunk)
		buf.Write(chunk[:n])
		if int64(buf.Len()) > defaults.BufferMax {
			return nil, unavailable(doc, fmt.Errorf("document exceeds %d bytes", defaults.BufferMax))
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, unavailable(doc, err)
		}
	}
}

func unavailable(doc Document, err error) error {
	return fmt.Errorf("%w: %s: %v", finding.ErrScannerUnavailable, doc.Scanner, err)
}
