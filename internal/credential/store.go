package credential

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const fileExt = ".json"

var (
	// ErrNoCredentials is returned when discovery finds no credential files
	// in either tier. Callers keep running with an empty slot set.
	ErrNoCredentials = errors.New("no credential files found")

	// ErrInvalidCredentialFile rejects uploads that are not well-formed
	// credential JSON before they reach the store.
	ErrInvalidCredentialFile = errors.New("invalid credential file")

	// ErrNotFound is returned when deleting a file the repository tier
	// does not contain.
	ErrNotFound = errors.New("credential file not found")
)

// Store discovers credential files from the repository directory and the
// active-slot directory, deduplicated by file name with repository
// precedence. The last discovery result is cached; a filesystem watcher or
// an upload marks the cache stale so the next read rescans.
type Store struct {
	repositoryDir string
	activeDir     string
	logger        *slog.Logger

	mu      sync.Mutex
	records []Record
	scanned bool
	stale   bool
}

func NewStore(repositoryDir, activeDir string, logger *slog.Logger) *Store {
	return &Store{
		repositoryDir: filepath.Clean(repositoryDir),
		activeDir:     filepath.Clean(activeDir),
		logger:        logger,
	}
}

func (s *Store) RepositoryDir() string { return s.repositoryDir }
func (s *Store) ActiveDir() string     { return s.activeDir }

// Discover scans both tiers and returns the sorted, deduplicated union of
// credential records. The previous cache is replaced wholesale. Returns
// ErrNoCredentials together with an empty slice when nothing is found.
func (s *Store) Discover() ([]Record, error) {
	merged := make(map[string]Record)
	order := make([]string, 0)

	for _, tier := range []struct {
		dir  string
		tier Tier
	}{
		{s.repositoryDir, TierRepository},
		{s.activeDir, TierActiveSlot},
	} {
		for _, rec := range s.scanTier(tier.dir, tier.tier) {
			if prev, ok := merged[rec.Name]; ok {
				s.logger.Warn("duplicate credential identity, keeping repository copy",
					slog.String("name", rec.Name),
					slog.String("kept", string(prev.Tier)),
					slog.String("dropped", string(rec.Tier)))
				continue
			}
			merged[rec.Name] = rec
			order = append(order, rec.Name)
		}
	}

	sort.Strings(order)
	records := make([]Record, 0, len(merged))
	for _, name := range order {
		records = append(records, merged[name])
	}

	s.mu.Lock()
	s.records = records
	s.scanned = true
	s.stale = false
	s.mu.Unlock()

	if len(records) == 0 {
		return nil, ErrNoCredentials
	}
	return records, nil
}

// scanTier lists the credential files of one directory, sorted
// lexicographically. A missing directory yields an empty tier; unreadable
// entries are skipped with a warning.
func (s *Store) scanTier(dir string, tier Tier) []Record {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read credential directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()))
		}
		return nil
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to stat credential file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			path = filepath.Join(dir, entry.Name())
		}
		records = append(records, Record{
			Name: entry.Name(),
			Path: path,
			Size: info.Size(),
			Tier: tier,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records
}

// Records returns the cached discovery result, rescanning first if the
// cache is stale or discovery has never run.
func (s *Store) Records() []Record {
	s.mu.Lock()
	needScan := s.stale || !s.scanned
	s.mu.Unlock()

	if needScan {
		if _, err := s.Discover(); err != nil && !errors.Is(err, ErrNoCredentials) {
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// PickNext returns the lexicographically smallest record whose identity key
// is not in excluding. The excluding set carries every key currently bound
// to a slot, so a hit is always a spare credential. One call makes at most
// one rescan and one pass; there is no retry.
func (s *Store) PickNext(excluding map[string]bool) (Record, bool) {
	for _, rec := range s.Records() {
		if !excluding[rec.Name] {
			return rec, true
		}
	}
	return Record{}, false
}

// MarkStale forces the next Records or PickNext call to rescan.
func (s *Store) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Delete removes a credential file from the repository tier only. The name
// must be a bare file name; anything resolving outside the repository
// directory is rejected.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	path := filepath.Join(s.repositoryDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("stat credential file %s: %w", name, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete credential file %s: %w", name, err)
	}

	s.logger.Info("credential file deleted", slog.String("name", name))
	s.MarkStale()
	return nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: bad file name %q", ErrInvalidCredentialFile, name)
	}
	if filepath.Ext(name) != fileExt {
		return fmt.Errorf("%w: file name must end in %s", ErrInvalidCredentialFile, fileExt)
	}
	return nil
}
