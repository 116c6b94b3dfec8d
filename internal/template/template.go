// Package template defines the document templates an interview fills in.
// A template is a named list of optional sections; each section declares the
// decision fields that must be resolved before the section can render.
package template

import (
	"fmt"
	"strings"
)

// ActivityKind classifies what is being specified. Section applicability is
// decided against this value: a pure utility script never gets an Endpoints
// section.
type ActivityKind string

const (
	KindEndpoint ActivityKind = "endpoint"
	KindCommand  ActivityKind = "command"
	KindJob      ActivityKind = "job"
	KindLibrary  ActivityKind = "library"
)

// Kinds lists every known activity kind in presentation order.
func Kinds() []ActivityKind {
	return []ActivityKind{KindEndpoint, KindCommand, KindJob, KindLibrary}
}

// ParseKind maps a stored fact value back to an ActivityKind.
func ParseKind(value string) (ActivityKind, bool) {
	switch ActivityKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindEndpoint:
		return KindEndpoint, true
	case KindCommand:
		return KindCommand, true
	case KindJob:
		return KindJob, true
	case KindLibrary:
		return KindLibrary, true
	default:
		return "", false
	}
}

// Option is one selectable answer for a field.
type Option struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
	Recommended bool   `yaml:"recommended,omitempty"`
}

// Field is a single decision the interview must resolve. The field key doubles
// as the fact key under which the answer is recorded.
type Field struct {
	Key           string   `yaml:"key"`
	Prompt        string   `yaml:"prompt"`
	Options       []Option `yaml:"options,omitempty"`
	AllowMultiple bool     `yaml:"allow_multiple,omitempty"`
	// FreeForm fields take a typed answer instead of (or in addition to) the
	// offered options.
	FreeForm bool `yaml:"free_form,omitempty"`
}

// Section is a named, independently includable part of the rendered document.
type Section struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	// AppliesTo restricts the section to certain activity kinds. Empty means
	// the section applies to every activity.
	AppliesTo []ActivityKind `yaml:"applies_to,omitempty"`
	Fields    []Field        `yaml:"fields"`
}

// AppliesToKind reports whether the section should appear for the given kind.
func (s Section) AppliesToKind(kind ActivityKind) bool {
	if len(s.AppliesTo) == 0 {
		return true
	}
	for _, k := range s.AppliesTo {
		if k == kind {
			return true
		}
	}
	return false
}

// Template is a complete document template.
type Template struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Sections    []Section `yaml:"sections"`
}

// Section returns the section with the given ID.
func (t Template) Section(id string) (Section, bool) {
	for _, section := range t.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// SectionByTitle matches a section by its rendered title, case-insensitively.
// Used when harvesting facts from a previously rendered document.
func (t Template) SectionByTitle(title string) (Section, bool) {
	target := strings.ToLower(strings.TrimSpace(title))
	for _, section := range t.Sections {
		if strings.ToLower(section.Title) == target {
			return section, true
		}
	}
	return Section{}, false
}

// Validate ensures the template is well-formed: stable IDs, at least one
// section, and exactly one recommended option wherever options are offered.
func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template: id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template: name is required for %s", t.ID)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template: %s declares no sections", t.ID)
	}
	sectionIDs := map[string]struct{}{}
	fieldKeys := map[string]struct{}{}
	for _, section := range t.Sections {
		if strings.TrimSpace(section.ID) == "" {
			return fmt.Errorf("template: %s contains a section without an id", t.ID)
		}
		if strings.TrimSpace(section.Title) == "" {
			return fmt.Errorf("template: section %s is missing a title", section.ID)
		}
		if _, dup := sectionIDs[section.ID]; dup {
			return fmt.Errorf("template: duplicate section id %s", section.ID)
		}
		sectionIDs[section.ID] = struct{}{}
		if len(section.Fields) == 0 {
			return fmt.Errorf("template: section %s declares no fields", section.ID)
		}
		for _, field := range section.Fields {
			if err := field.validate(section.ID); err != nil {
				return err
			}
			if _, dup := fieldKeys[field.Key]; dup {
				return fmt.Errorf("template: duplicate field key %s", field.Key)
			}
			fieldKeys[field.Key] = struct{}{}
		}
	}
	return nil
}

func (f Field) validate(sectionID string) error {
	if strings.TrimSpace(f.Key) == "" {
		return fmt.Errorf("template: section %s contains a field without a key", sectionID)
	}
	if strings.TrimSpace(f.Prompt) == "" {
		return fmt.Errorf("template: field %s is missing a prompt", f.Key)
	}
	if len(f.Options) == 0 && !f.FreeForm {
		return fmt.Errorf("template: field %s offers no options and is not free-form", f.Key)
	}
	if len(f.Options) > 1 {
		recommended := 0
		for _, opt := range f.Options {
			if strings.TrimSpace(opt.Label) == "" {
				return fmt.Errorf("template: field %s has an option without a label", f.Key)
			}
			if opt.Recommended {
				recommended++
			}
		}
		if recommended != 1 {
			return fmt.Errorf("template: field %s must mark exactly one recommended option, has %d", f.Key, recommended)
		}
	}
	return nil
}

// RecommendedIndex returns the position of the recommended option, or 0 when
// the field has a single option or none is marked.
func (f Field) RecommendedIndex() int {
	for i, opt := range f.Options {
		if opt.Recommended {
			return i
		}
	}
	return 0
}
