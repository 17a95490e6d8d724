package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	snap, err := store.Load("acme", "billing-api")
	require.NoError(t, err, "missing history is a first run, not an error")
	assert.Nil(t, snap)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	want := Next(nil, "acme", "billing-api", "run-1",
		[]Entry{entry("aaa"), entry("bbb")}, []string{"zzz"}, t0)
	require.NoError(t, store.Save(want))

	got, err := store.Load("acme", "billing-api")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.LiveFingerprints(), got.LiveFingerprints())
	require.Len(t, got.Resolved, 1)
	assert.Equal(t, "zzz", got.Resolved[0].Fingerprint)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreRotation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	first := Next(nil, "acme", "billing-api", "run-1", []Entry{entry("aaa")}, nil, t0)
	require.NoError(t, store.Save(first))

	second := Next(first, "acme", "billing-api", "run-2", []Entry{entry("bbb")}, []string{"aaa"}, t0.Add(time.Hour))
	require.NoError(t, store.Save(second))

	latest, err := store.Load("acme", "billing-api")
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)

	previous, err := store.LoadPrevious("acme", "billing-api")
	require.NoError(t, err)
	require.NotNil(t, previous, "rotation keeps the prior snapshot")
	assert.Equal(t, "run-1", previous.RunID)

	// A third save drops the oldest: only two snapshots remain.
	third := Next(second, "acme", "billing-api", "run-3", nil, []string{"bbb"}, t0.Add(2*time.Hour))
	require.NoError(t, store.Save(third))

	previous, err = store.LoadPrevious("acme", "billing-api")
	require.NoError(t, err)
	assert.Equal(t, "run-2", previous.RunID)
}

func TestStoreCorruption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"truncated json", `{"version": 1, "repository": "billing-api", "live": [`},
		{"future version", `{"version": 99, "repository": "billing-api", "live": []}`},
		{"missing repository", `{"version": 1, "live": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			store, err := NewStore(root)
			require.NoError(t, err)

			dir := filepath.Join(root, "acme", "billing-api")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "latest.json"), []byte(tt.data), 0o644))

			_, err = store.Load("acme", "billing-api")
			var corrupt *CorruptionError
			require.True(t, errors.As(err, &corrupt), "want *CorruptionError, got %v", err)
			assert.Contains(t, corrupt.Path, "latest.json")
		})
	}
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)
	require.NoError(t, store.Save(Next(nil, "acme", "billing-api", "run-1", nil, nil, t0)))

	entries, err := os.ReadDir(filepath.Join(root, "acme", "billing-api"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "latest.json", entries[0].Name())
}

func TestStoreOrgLessRepository(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Save(Next(nil, "", "standalone", "run-1", []Entry{entry("aaa")}, nil, t0)))

	snap, err := store.Load("", "standalone")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "standalone", snap.Repository)
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Save(Next(nil, "acme", "billing-api", "r1", nil, nil, t0)))
	require.NoError(t, store.Save(Next(nil, "acme", "auth-svc", "r2", nil, nil, t0)))
	require.NoError(t, store.Save(Next(nil, "", "standalone", "r3", nil, nil, t0)))

	refs, err := store.List()
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "acme/auth-svc", refs[0].String())
	assert.Equal(t, "acme/billing-api", refs[1].String())
	assert.Equal(t, "standalone", refs[2].String())
}
