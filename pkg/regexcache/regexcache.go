// Package regexcache provides a thread-safe cache for compiled regular
// expressions and path globs. Policy evaluation matches every finding
// against every scope and correlation rule, so patterns compile once
// and are shared across the run.
//
// Usage:
//
//	re, err := regexcache.Get("cmdi|command-injection")
//	if err != nil {
//	    // handle error
//	}
//	matched := re.MatchString(ruleID)
package regexcache

import (
	"regexp"
	"sync"
)

// cache holds compiled regular expressions keyed by pattern string.
// Using sync.Map for concurrent access without explicit locking.
var cache sync.Map

// Get returns a compiled regexp for the given pattern.
// If the pattern was previously compiled, it returns the cached version.
// If the pattern is invalid, it returns an error.
func Get(pattern string) (*regexp.Regexp, error) {
	// Fast path: check if already cached
	if cached, ok := cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	// LoadOrStore handles concurrent compilation of the same pattern
	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// MustGet returns a compiled regexp for the given pattern.
// It panics if the pattern is invalid.
func MustGet(pattern string) *regexp.Regexp {
	re, err := Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Precompile compiles and caches multiple patterns at once, useful for
// validating a rule set at load time. Returns one error per pattern
// that failed to compile.
func Precompile(patterns ...string) []error {
	var errs []error
	for _, pattern := range patterns {
		if _, err := Get(pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Clear removes all cached expressions and globs.
// This is primarily useful for testing.
func Clear() {
	cache.Range(func(key, _ interface{}) bool {
		cache.Delete(key)
		return true
	})
	globs.Range(func(key, _ interface{}) bool {
		globs.Delete(key)
		return true
	})
}

// Size returns the number of cached regular expressions, not counting
// compiled globs.
func Size() int {
	count := 0
	cache.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
