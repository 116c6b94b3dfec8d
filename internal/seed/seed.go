// Package seed captures the input that starts an interview session: either a
// reference to an existing document or a free-text description. Reference
// seeds are mined for facts so the interview never re-asks what the document
// already answers.
package seed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind distinguishes the two seed shapes.
type Kind string

const (
	// KindReference points at an existing document on disk.
	KindReference Kind = "reference"
	// KindDescription is a free-text description of the activity.
	KindDescription Kind = "description"
)

// ErrUnresolvable indicates a referenced input could not be read. The session
// never starts when this is returned.
var ErrUnresolvable = errors.New("seed: referenced input cannot be read")

// Input is the immutable seed of a session.
type Input struct {
	Kind    Kind
	Payload string
	// Path records the origin file for reference seeds.
	Path string
}

// Resolve turns a raw argument into a seed. With describe set, the argument
// is taken verbatim as a description; otherwise it must be a readable file.
func Resolve(raw string, describe bool) (Input, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Input{}, fmt.Errorf("seed: input is required")
	}
	if describe {
		return Input{Kind: KindDescription, Payload: trimmed}, nil
	}
	path := filepath.Clean(trimmed)
	info, err := os.Stat(path)
	if err != nil {
		return Input{}, fmt.Errorf("%w: %s", ErrUnresolvable, path)
	}
	if info.IsDir() {
		return Input{}, fmt.Errorf("%w: %s is a directory", ErrUnresolvable, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("%w: %s", ErrUnresolvable, path)
	}
	return Input{Kind: KindReference, Payload: string(data), Path: path}, nil
}

// stackMarkers maps well-known build files to a stack label.
var stackMarkers = []struct {
	file  string
	stack string
}{
	{"go.mod", "go"},
	{"package.json", "node"},
	{"composer.json", "php"},
	{"Cargo.toml", "rust"},
	{"Gemfile", "ruby"},
	{"pyproject.toml", "python"},
}

// InspectProject gathers inferable context from the target codebase. Only
// cheap marker-file checks: the result seeds facts, it never blocks a session.
func InspectProject(dir string) []string {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	var stacks []string
	for _, marker := range stackMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker.file)); err == nil && !info.IsDir() {
			stacks = append(stacks, marker.stack)
		}
	}
	return stacks
}

// kindSignals maps descriptive vocabulary to an activity kind. First match by
// signal order wins; an ambiguous description leaves the kind open for the
// interview to settle.
var kindSignals = []struct {
	kind  string
	words []string
}{
	{"endpoint", []string{"endpoint", "api", "route", "http", "webhook"}},
	{"command", []string{"command", "cli", "script", "console"}},
	{"job", []string{"job", "cron", "worker", "queue", "scheduled"}},
	{"library", []string{"library", "package", "helper", "utility"}},
}

// InferKind guesses the activity kind from free text. The bool reports
// whether exactly one kind matched.
func InferKind(text string) (string, bool) {
	lower := strings.ToLower(text)
	matched := ""
	for _, signal := range kindSignals {
		for _, word := range signal.words {
			if !containsWord(lower, word) {
				continue
			}
			if matched != "" && matched != signal.kind {
				return "", false
			}
			matched = signal.kind
		}
	}
	return matched, matched != ""
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
