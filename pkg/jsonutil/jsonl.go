package jsonutil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/scantriage/scantriage/pkg/defaults"
)

// ForEachLine streams line-delimited JSON from r, invoking fn once per
// non-blank line with the 1-based line number and the trimmed raw
// bytes. The callback's error stops the scan and is returned as-is,
// so typed errors survive for the caller to unwrap.
//
// Lines up to defaults.BufferMax are accepted; a longer line fails the
// whole stream, matching how a truncated document should be treated.
func ForEachLine(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, defaults.BufferLarge), defaults.BufferMax)

	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("jsonutil: line %d: %w", n+1, err)
	}
	return nil
}
