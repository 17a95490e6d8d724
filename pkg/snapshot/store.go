package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/scantriage/scantriage/pkg/defaults"
	"github.com/scantriage/scantriage/pkg/jsonutil"
)

// Store manages snapshot files under a root directory, one
// subdirectory per (organization, repository). Each holds the latest
// snapshot and the one before it.
type Store struct {
	mu   sync.Mutex
	root string
}

// NewStore creates a snapshot store rooted at the given directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, defaults.SnapshotDirPerm); err != nil {
		return nil, fmt.Errorf("snapshot: creating store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Ref names one repository with persisted history.
type Ref struct {
	Organization string
	Repository   string
}

// String renders the ref as "org/repo", or the bare repository name
// when no organization is set.
func (r Ref) String() string {
	if r.Organization == "" {
		return r.Repository
	}
	return r.Organization + "/" + r.Repository
}

func (s *Store) dir(org, repo string) string {
	return filepath.Join(s.root, org, repo)
}

// Load returns the latest snapshot for a repository, nil when none
// exists yet. Unreadable or invalid history returns a
// *CorruptionError; the caller decides how loudly to proceed.
func (s *Store) Load(org, repo string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(filepath.Join(s.dir(org, repo), defaults.SnapshotLatestFile))
}

// LoadPrevious returns the rotated prior snapshot, nil when none
// exists.
func (s *Store) LoadPrevious(org, repo string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(filepath.Join(s.dir(org, repo), defaults.SnapshotPreviousFile))
}

func (s *Store) read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &CorruptionError{Path: path, Err: err}
	}
	var snap Snapshot
	if err := jsonutil.Unmarshal(data, &snap); err != nil {
		return nil, &CorruptionError{Path: path, Err: err}
	}
	if snap.Version > Version {
		return nil, &CorruptionError{Path: path, Err: fmt.Errorf("unsupported version %d", snap.Version)}
	}
	if snap.Repository == "" {
		return nil, &CorruptionError{Path: path, Err: fmt.Errorf("missing repository")}
	}
	return &snap, nil
}

// Save persists snap, rotating the existing latest snapshot into the
// previous slot. The new snapshot lands in a temporary file before
// any existing file moves, so a failure at any point leaves the prior
// history intact.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.dir(snap.Organization, snap.Repository)
	if err := os.MkdirAll(dir, defaults.SnapshotDirPerm); err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", dir, err)
	}

	data, err := jsonutil.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encoding: %w", err)
	}

	latest := filepath.Join(dir, defaults.SnapshotLatestFile)
	tmp := latest + ".tmp"
	if err := os.WriteFile(tmp, data, defaults.SnapshotFilePerm); err != nil {
		return fmt.Errorf("snapshot: writing %s: %w", tmp, err)
	}

	if _, err := os.Stat(latest); err == nil {
		if err := os.Rename(latest, filepath.Join(dir, defaults.SnapshotPreviousFile)); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("snapshot: rotating %s: %w", latest, err)
		}
	}
	if err := os.Rename(tmp, latest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("snapshot: replacing %s: %w", latest, err)
	}
	return nil
}

// List returns every repository with persisted history, sorted.
func (s *Store) List() ([]Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refs []Ref
	orgs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing store: %w", err)
	}
	for _, org := range orgs {
		if !org.IsDir() {
			continue
		}
		// A directory holding latest.json directly is an org-less
		// repository; otherwise its subdirectories are repositories.
		if s.hasSnapshot(filepath.Join(s.root, org.Name())) {
			refs = append(refs, Ref{Repository: org.Name()})
			continue
		}
		repos, err := os.ReadDir(filepath.Join(s.root, org.Name()))
		if err != nil {
			continue
		}
		for _, repo := range repos {
			if repo.IsDir() && s.hasSnapshot(filepath.Join(s.root, org.Name(), repo.Name())) {
				refs = append(refs, Ref{Organization: org.Name(), Repository: repo.Name()})
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs, nil
}

func (s *Store) hasSnapshot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, defaults.SnapshotLatestFile))
	return err == nil
}
