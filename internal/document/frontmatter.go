package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("document: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block could not be parsed.
	ErrMalformedFrontMatter = errors.New("document: malformed frontmatter")
)

// Metadata is the provenance record stored in a document's frontmatter.
type Metadata struct {
	Template  string
	SeedKind  string
	Rounds    int
	CreatedAt time.Time
	Checksum  string
}

// WithDefaults fills the timestamp and checksum when the caller left them empty.
func (m Metadata) WithDefaults(body []byte, now time.Time) Metadata {
	prepared := m
	if prepared.CreatedAt.IsZero() {
		prepared.CreatedAt = now
	}
	if prepared.Checksum == "" {
		prepared.Checksum = Checksum(body)
	}
	return prepared
}

// Validate checks that the metadata carries the required provenance fields.
func (m Metadata) Validate() error {
	if m.Template == "" {
		return fmt.Errorf("document: metadata missing template id")
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("document: metadata missing created timestamp")
	}
	return nil
}

// Checksum returns the hex sha256 of the rendered body.
func Checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ParseFrontMatter extracts the metadata block and body from a document that starts
// with `---` YAML fences.
func ParseFrontMatter(content []byte) (Metadata, []byte, error) {
	if len(content) == 0 {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Metadata{}, nil, ErrMalformedFrontMatter
	}
	var envelope specloomEnvelope
	if err := yaml.Unmarshal(parts[0], &envelope); err != nil {
		return Metadata{}, nil, fmt.Errorf("document: parse frontmatter: %w", err)
	}
	meta, err := envelope.toMetadata()
	if err != nil {
		return Metadata{}, nil, err
	}
	body := bytes.TrimPrefix(parts[1], []byte("\n"))
	return meta, body, nil
}

// WriteFrontMatter renders metadata + body with YAML fences.
func WriteFrontMatter(meta Metadata, body []byte) ([]byte, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	envelope := specloomEnvelope{}
	envelope.fromMetadata(meta)
	data, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("document: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

type specloomEnvelope struct {
	Specloom specloomMetadata `yaml:"specloom"`
}

type specloomMetadata struct {
	Template string `yaml:"template"`
	Seed     string `yaml:"seed,omitempty"`
	Rounds   int    `yaml:"rounds"`
	Created  string `yaml:"created"`
	Checksum string `yaml:"checksum,omitempty"`
}

func (e specloomEnvelope) toMetadata() (Metadata, error) {
	if e.Specloom.Template == "" {
		return Metadata{}, ErrMalformedFrontMatter
	}
	created, err := parseTime(e.Specloom.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("document: parse created timestamp: %w", err)
	}
	return Metadata{
		Template:  e.Specloom.Template,
		SeedKind:  e.Specloom.Seed,
		Rounds:    e.Specloom.Rounds,
		CreatedAt: created,
		Checksum:  e.Specloom.Checksum,
	}, nil
}

func (e *specloomEnvelope) fromMetadata(meta Metadata) {
	e.Specloom.Template = meta.Template
	e.Specloom.Seed = meta.SeedKind
	e.Specloom.Rounds = meta.Rounds
	e.Specloom.Created = meta.CreatedAt.UTC().Format(timeLayout)
	e.Specloom.Checksum = meta.Checksum
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func parseTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("document: empty created timestamp")
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
