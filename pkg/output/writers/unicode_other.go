//go:build !windows

package writers

import "io"

// unicodeSupported reports whether the writer can render UTF-8 box-drawing
// characters. Non-Windows terminals handle UTF-8 natively.
func unicodeSupported(_ io.Writer) bool {
	return true
}
