package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/session"
	"github.com/specloom/specloom/internal/template"
)

// ErrIncomplete indicates a render was attempted while applicable sections still
// have unresolved decisions.
var ErrIncomplete = errors.New("document: decision state has open questions")

// Rendered is the output of a completed interview: a markdown body plus the
// facts that shaped it.
type Rendered struct {
	Title    string
	Template string
	SeedKind string
	Rounds   int
	Body     []byte
}

// Render produces the final markdown document from a resolved decision state.
// It is pure: the same state always yields a byte-identical body. Sections
// harvested from a reference seed are emitted verbatim.
func Render(syn *session.Synthesizer, in seed.Input, state session.State) (Rendered, error) {
	if open := syn.Open(state); open > 0 {
		return Rendered{}, fmt.Errorf("%w: %d unresolved", ErrIncomplete, open)
	}
	tpl := syn.Template()
	title := strings.TrimSpace(state.First(template.KeyActivitySummary))
	if title == "" {
		title = tpl.Name
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n")
	for _, section := range syn.Applicable(state) {
		b.WriteString("\n## ")
		b.WriteString(section.Title)
		b.WriteString("\n\n")
		if body := state.First(seed.SectionFactKey(section.ID)); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
			continue
		}
		renderFields(&b, section, state)
	}
	return Rendered{
		Title:    title,
		Template: tpl.ID,
		SeedKind: string(in.Kind),
		Rounds:   state.Rounds(),
		Body:     []byte(b.String()),
	}, nil
}

func renderFields(b *strings.Builder, section template.Section, state session.State) {
	if len(section.Fields) == 1 && section.Fields[0].FreeForm && len(section.Fields[0].Options) == 0 {
		// A lone prose field reads better as a paragraph than a one-item list.
		b.WriteString(strings.Join(state.Values(section.Fields[0].Key), "\n"))
		b.WriteString("\n")
		return
	}
	for _, field := range section.Fields {
		b.WriteString("- ")
		b.WriteString(fieldLabel(field.Key))
		b.WriteString(": ")
		b.WriteString(strings.Join(state.Values(field.Key), ", "))
		b.WriteString("\n")
		if field.Key == template.KeyActivityKind {
			if stack := state.Values(session.KeyProjectStack); len(stack) > 0 {
				b.WriteString("- Stack: ")
				b.WriteString(strings.Join(stack, ", "))
				b.WriteString("\n")
			}
		}
	}
}

// fieldLabel derives a human label from the last segment of a fact key,
// so "decisions.storage" renders as "Storage".
func fieldLabel(key string) string {
	segment := key
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		segment = key[idx+1:]
	}
	segment = strings.ReplaceAll(segment, "_", " ")
	if segment == "" {
		return key
	}
	return strings.ToUpper(segment[:1]) + segment[1:]
}
