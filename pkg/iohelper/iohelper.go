// Package iohelper provides helpers for reading and draining delivery
// response bodies. Webhook endpoints are operator-configured but still
// untrusted input, so reads are always size-capped.
package iohelper

import "io"

const (
	// SmallMaxBodySize caps error snippets read from delivery responses (8KB)
	SmallMaxBodySize int64 = 8 * 1024

	// drainLimit caps how much residual body DrainAndClose consumes (64KB)
	drainLimit int64 = 64 * 1024
)

// ReadBody reads from an io.Reader with a size limit.
// If r is nil, returns empty slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodySmall reads from an io.Reader with an 8KB limit.
// Suitable for capturing the error detail an endpoint returns with a
// failed delivery.
func ReadBodySmall(r io.Reader) ([]byte, error) {
	return ReadBody(r, SmallMaxBodySize)
}

// DrainAndClose reads any remaining data from r and closes it if it's a
// ReadCloser. Draining lets the connection return to the keep-alive pool.
// Always returns nil error to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(r, drainLimit))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
