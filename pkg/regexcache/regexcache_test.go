package regexcache

import (
	"sync"
	"testing"
)

func TestGet_ValidPattern(t *testing.T) {
	Clear()
	re, err := Get(`\d+`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if re == nil {
		t.Fatal("expected non-nil regexp")
	}
	if !re.MatchString("123") {
		t.Error("expected match for '123'")
	}
}

func TestGet_InvalidPattern(t *testing.T) {
	Clear()
	_, err := Get(`[invalid`)
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestGet_Caching(t *testing.T) {
	Clear()
	pattern := `cmdi|command-injection`

	re1, _ := Get(pattern)
	re2, _ := Get(pattern)

	if re1 != re2 {
		t.Error("expected same regexp instance from cache")
	}

	if Size() != 1 {
		t.Errorf("expected 1 cached pattern, got %d", Size())
	}
}

func TestGet_Concurrent(t *testing.T) {
	Clear()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			re, err := Get(`ssrf-.*`)
			if err != nil || re == nil {
				t.Errorf("Get() = %v, %v", re, err)
			}
		}()
	}
	wg.Wait()

	if Size() != 1 {
		t.Errorf("expected 1 cached pattern after concurrent gets, got %d", Size())
	}
}

func TestMustGet_PanicsOnInvalid(t *testing.T) {
	Clear()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid pattern")
		}
	}()
	MustGet(`[invalid`)
}

func TestPrecompile(t *testing.T) {
	Clear()
	errs := Precompile(`a+`, `[bad`, `c?`)
	if len(errs) != 1 {
		t.Errorf("expected 1 error, got %d", len(errs))
	}
	if Size() != 2 {
		t.Errorf("expected 2 cached patterns, got %d", Size())
	}
}
