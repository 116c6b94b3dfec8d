package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// State describes what the store found at a document path.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult reports the on-disk status of a document.
type CheckResult struct {
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// Store persists rendered documents with their provenance frontmatter.
type Store struct {
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a document store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Write persists the rendered document at path, creating parent directories.
func (s *Store) Write(path string, rendered Rendered) error {
	if path == "" {
		return fmt.Errorf("document: empty output path")
	}
	meta := Metadata{
		Template: rendered.Template,
		SeedKind: rendered.SeedKind,
		Rounds:   rendered.Rounds,
	}.WithDefaults(rendered.Body, s.now())
	content, err := WriteFrontMatter(meta, rendered.Body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

// Check inspects the document on disk and returns its status and metadata.
func (s *Store) Check(path string) (CheckResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Path: path, State: StateMissing}, nil
		}
		return CheckResult{Path: path, State: StateError, Err: err}, err
	}
	if info.IsDir() {
		return invalidResult(path, fmt.Errorf("document: expected file got directory"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{Path: path, State: StateError, Err: err}, err
	}
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return invalidResult(path, err)
	}
	if meta.Checksum != "" && meta.Checksum != Checksum(body) {
		return invalidResult(path, fmt.Errorf("document: body does not match recorded checksum"))
	}
	return CheckResult{Path: path, State: StateReady, Metadata: &meta}, nil
}

func invalidResult(path string, err error) (CheckResult, error) {
	return CheckResult{Path: path, State: StateInvalid, Err: err}, err
}
