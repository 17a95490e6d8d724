package fingerprint

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEvidence collapses the evidence snippets into one canonical
// string: NFKC unicode normalization, whitespace runs squeezed to a
// single space, blank snippets dropped. Evidence that merely moved
// lines or gained indentation keeps its signature; evidence whose
// content changed does not.
func NormalizeEvidence(evidence []string) string {
	parts := make([]string, 0, len(evidence))
	for _, e := range evidence {
		collapsed := strings.Join(strings.Fields(norm.NFKC.String(e)), " ")
		if collapsed == "" {
			continue
		}
		parts = append(parts, collapsed)
	}
	return strings.Join(parts, "\n")
}

// NormalizePath cleans a repository-relative file path for
// fingerprinting: backslashes become slashes, "." and ".." segments
// collapse, leading "/" and "./" are stripped. For archive members in
// "archive!member" form only the member path is kept, so the same
// member moving between archives keeps its fingerprint the way a file
// moving lines keeps its line-free target.
func NormalizePath(p string) string {
	if i := strings.LastIndex(p, "!"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// NormalizeEndpoint canonicalizes an endpoint URL: scheme and host
// lowercased, default ports dropped, trailing slash trimmed, fragment
// removed, query keys sorted. Unparseable targets are returned
// trimmed rather than rejected, since a stable wrong key still beats
// losing the finding.
func NormalizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return strings.TrimSuffix(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.RawQuery != "" {
		u.RawQuery = sortQuery(u.RawQuery)
	}
	return u.String()
}

// sortQuery reorders query parameters by key so logically identical
// URLs hash identically. Values within one key keep their order.
func sortQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String()
}
