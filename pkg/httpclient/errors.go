package httpclient

import "errors"

// ErrProxyConnect indicates the client failed to connect through the
// configured egress proxy. Callers should use errors.Is() to check for it,
// since delivery code wraps it with dial detail.
var ErrProxyConnect = errors.New("httpclient: proxy connection failed")
