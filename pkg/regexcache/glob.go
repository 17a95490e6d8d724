package regexcache

import (
	"regexp"
	"strings"
	"sync"
)

// globs holds compiled path globs, separate from the regex cache so a
// string that is both a valid glob and a valid regex never collides.
var globs sync.Map

// GetGlob returns an anchored regexp for a slash-separated path glob.
//
// Glob syntax follows gitignore conventions:
//
//	**/	zero or more leading directories
//	/**	everything below a directory
//	*	any run of characters within one segment
//	?	one character within a segment
//
// Matching is against clean, slash-separated relative paths.
func GetGlob(pattern string) (*regexp.Regexp, error) {
	if cached, ok := globs.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(globToRegex(pattern))
	if err != nil {
		return nil, err
	}

	actual, _ := globs.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

func globToRegex(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			if strings.HasPrefix(pattern[i:], "**/") {
				sb.WriteString(`(?:.*/)?`)
				i += 3
				continue
			}
			if strings.HasPrefix(pattern[i:], "**") {
				sb.WriteString(`.*`)
				i += 2
				continue
			}
			sb.WriteString(`[^/]*`)
		case '?':
			sb.WriteString(`[^/]`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
		i++
	}
	sb.WriteString("$")
	return sb.String()
}
