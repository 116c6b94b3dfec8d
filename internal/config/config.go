// internal/config/config.go
//
// This package handles configuration and the .specloom directory structure.
// Every project that uses specloom gets a .specloom/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SpecloomDir is the name of the directory we create in each project
	SpecloomDir = ".specloom"

	defaultTemplateID = "spec-document"
	defaultMaxRounds  = 8
	defaultOutputFile = "SPEC.md"
)

const defaultProjectConfigYAML = `# specloom project configuration
version: 1

templates:
  # Template used when --template is not given. Custom templates live in
  # .specloom/templates/*.yaml and are addressed by their id.
  default: spec-document

interview:
  # Hard cap on question rounds. A session that still has open questions
  # after this many rounds is aborted rather than looping forever.
  max_rounds: 8

output:
  # Directory for rendered documents when no explicit path is given and the
  # seed was a free-text description. Relative paths resolve against the
  # project root.
  dir: .specloom/out
  file: SPEC.md
`

// TemplateConfig captures template preferences.
type TemplateConfig struct {
	Default   string   `yaml:"default"`
	Available []string `yaml:"available,omitempty"`
}

// InterviewConfig bounds the question loop.
type InterviewConfig struct {
	MaxRounds int `yaml:"max_rounds"`
}

// OutputConfig controls where rendered documents land.
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// ProjectConfig models .specloom/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Templates TemplateConfig  `yaml:"templates"`
	Interview InterviewConfig `yaml:"interview"`
	Output    OutputConfig    `yaml:"output"`
}

// Config holds the runtime configuration for specloom.
type Config struct {
	// ProjectDir is the directory where the user ran `specloom` from
	ProjectDir string

	// SpecloomProjectDir is ProjectDir/.specloom
	SpecloomProjectDir string

	Project ProjectConfig
}

// InitSpecloomDir creates the .specloom directory structure in the given
// project directory. This is called before a session starts.
//
// Structure created:
// .specloom/
// ├── templates/   <- Custom document templates (*.yaml)
// ├── logs/        <- Session journal
// └── out/         <- Rendered documents for description seeds
func InitSpecloomDir(projectDir string) error {
	specloomDir := filepath.Join(projectDir, SpecloomDir)

	dirs := []string{
		filepath.Join(specloomDir, "templates"),
		filepath.Join(specloomDir, "logs"),
		filepath.Join(specloomDir, "out"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(specloomDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		SpecloomProjectDir: filepath.Join(projectDir, SpecloomDir),
		Project:            defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// TemplatesDir returns the directory holding custom template definitions.
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.SpecloomProjectDir, "templates")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.SpecloomProjectDir, "logs")
}

// JournalPath returns the session journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// OutputDir returns the resolved directory for rendered documents.
func (c *Config) OutputDir() string {
	dir := strings.TrimSpace(c.Project.Output.Dir)
	if dir == "" {
		return filepath.Join(c.SpecloomProjectDir, "out")
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Clean(filepath.Join(c.ProjectDir, dir))
}

// DefaultOutputPath returns where a description-seeded document lands when
// the answerer did not pick a path.
func (c *Config) DefaultOutputPath() string {
	file := strings.TrimSpace(c.Project.Output.File)
	if file == "" {
		file = defaultOutputFile
	}
	return filepath.Join(c.OutputDir(), file)
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.SpecloomProjectDir, "config.yaml")
}

// DefaultTemplate returns the configured default template identifier.
func (c *Config) DefaultTemplate() string {
	return c.Project.Templates.Default
}

// MaxRounds returns the interview round cap.
func (c *Config) MaxRounds() int {
	return c.Project.Interview.MaxRounds
}

// SetDefaultTemplate updates the default template identifier and persists the
// value back to .specloom/config.yaml. The template ID is also appended to
// the available list so selectors can display it on future runs.
func (c *Config) SetDefaultTemplate(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: template id is required")
	}
	c.Project.Templates.Default = id
	if !contains(c.Project.Templates.Available, id) {
		c.Project.Templates.Available = append(c.Project.Templates.Available, id)
	}
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Templates: TemplateConfig{
			Default: defaultTemplateID,
		},
		Interview: InterviewConfig{
			MaxRounds: defaultMaxRounds,
		},
		Output: OutputConfig{
			Dir:  filepath.Join(SpecloomDir, "out"),
			File: defaultOutputFile,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Interview.MaxRounds == 0 {
		pc.Interview.MaxRounds = defaultMaxRounds
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Templates.Default = strings.TrimSpace(pc.Templates.Default)
	if pc.Templates.Default == "" {
		pc.Templates.Default = defaultTemplateID
	}
	if len(pc.Templates.Available) > 0 && !contains(pc.Templates.Available, pc.Templates.Default) {
		pc.Templates.Available = append(pc.Templates.Available, pc.Templates.Default)
	}
	pc.Output.Dir = strings.TrimSpace(pc.Output.Dir)
	pc.Output.File = strings.TrimSpace(pc.Output.File)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.TrimSpace(pc.Templates.Default) == "" {
		return fmt.Errorf("templates.default is required")
	}
	if pc.Interview.MaxRounds < 1 {
		return fmt.Errorf("interview.max_rounds must be >= 1")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.SpecloomProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure specloom dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
