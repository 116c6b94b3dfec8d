package template

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File pairs a parsed template with its on-disk source.
type File struct {
	Template Template
	Path     string
}

// ParseYAML decodes and validates a single template payload.
func ParseYAML(data []byte) (Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Template{}, fmt.Errorf("template: payload is empty")
	}
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("template: decode: %w", err)
	}
	tpl = tpl.normalized()
	if err := tpl.Validate(); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

// LoadFile reads a YAML file from disk and returns the parsed template.
func LoadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("template: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("template: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	tpl, err := ParseYAML(data)
	if err != nil {
		return File{}, fmt.Errorf("template: %s: %w", path, err)
	}
	return File{Template: tpl, Path: filepath.Clean(path)}, nil
}

// LoadDir scans a directory for *.yaml templates. Missing directories are
// treated as "no custom templates" to simplify startup.
func LoadDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read %s: %w", trimmed, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isYAMLFile(entry.Name()) {
			continue
		}
		file, err := LoadFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Registry resolves templates by ID, with the builtin always present.
type Registry struct {
	templates map[string]Template
	order     []string
}

// NewRegistry seeds a registry with the builtin template plus any custom
// templates found in dir. A custom template may not reuse the builtin ID.
func NewRegistry(dir string) (*Registry, error) {
	reg := &Registry{templates: map[string]Template{}}
	reg.add(Builtin())
	files, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if _, exists := reg.templates[file.Template.ID]; exists {
			return nil, fmt.Errorf("template: %s: duplicate id %s", file.Path, file.Template.ID)
		}
		reg.add(file.Template)
	}
	return reg, nil
}

func (r *Registry) add(tpl Template) {
	r.templates[tpl.ID] = tpl
	r.order = append(r.order, tpl.ID)
}

// Resolve returns the template with the given ID.
func (r *Registry) Resolve(id string) (Template, error) {
	tpl, ok := r.templates[strings.TrimSpace(id)]
	if !ok {
		return Template{}, fmt.Errorf("template: unknown id %s", id)
	}
	return tpl, nil
}

// All returns registered templates in registration order (builtin first).
func (r *Registry) All() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

func (t Template) normalized() Template {
	clone := t
	clone.ID = strings.TrimSpace(t.ID)
	clone.Name = strings.TrimSpace(t.Name)
	clone.Description = strings.TrimSpace(t.Description)
	if len(t.Sections) > 0 {
		clone.Sections = make([]Section, len(t.Sections))
		for i, section := range t.Sections {
			clone.Sections[i] = section.normalized()
		}
	}
	return clone
}

func (s Section) normalized() Section {
	clone := s
	clone.ID = strings.TrimSpace(s.ID)
	clone.Title = strings.TrimSpace(s.Title)
	if len(s.Fields) > 0 {
		clone.Fields = make([]Field, len(s.Fields))
		for i, field := range s.Fields {
			field.Key = strings.TrimSpace(field.Key)
			field.Prompt = strings.TrimSpace(field.Prompt)
			clone.Fields[i] = field
		}
	}
	return clone
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
