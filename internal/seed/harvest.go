package seed

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/specloom/specloom/internal/template"
)

const docSectionPrefix = "doc.section."

// SectionFactKey returns the fact key under which a harvested section body is
// stored for the given template section ID.
func SectionFactKey(sectionID string) string {
	return docSectionPrefix + sectionID
}

// IsSectionFactKey reports whether key holds a harvested section body and
// returns the section ID when it does.
func IsSectionFactKey(key string) (string, bool) {
	if !strings.HasPrefix(key, docSectionPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, docSectionPrefix), true
}

// Harvest extracts starting facts from the seed. Description seeds yield the
// activity summary and, when the vocabulary is unambiguous, the activity
// kind. Reference seeds are parsed as markdown: the top heading becomes the
// summary and every second-level section matching a template section is
// captured verbatim so the interview can skip it.
func Harvest(in Input, tpl template.Template) map[string][]string {
	facts := map[string][]string{}
	switch in.Kind {
	case KindDescription:
		facts[template.KeyActivitySummary] = []string{in.Payload}
		if kind, ok := InferKind(in.Payload); ok {
			facts[template.KeyActivityKind] = []string{kind}
		}
	case KindReference:
		harvestDocument(in.Payload, tpl, facts)
	}
	return facts
}

func harvestDocument(source string, tpl template.Template, facts map[string][]string) {
	raw := stripFrontMatter([]byte(source))
	doc := goldmark.New().Parser().Parse(gtext.NewReader(raw))

	type headingMark struct {
		level int
		title string
		// start is the offset of the heading line, end the offset just past it.
		start, end int
	}
	var marks []headingMark
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		heading, ok := child.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			continue
		}
		seg := heading.Lines().At(0)
		marks = append(marks, headingMark{
			level: heading.Level,
			title: strings.TrimSpace(string(seg.Value(raw))),
			start: lineStart(raw, seg.Start),
			end:   seg.Stop,
		})
	}

	for i, mark := range marks {
		if mark.level == 1 {
			if _, exists := facts[template.KeyActivitySummary]; !exists && mark.title != "" {
				facts[template.KeyActivitySummary] = []string{mark.title}
			}
			continue
		}
		if mark.level != 2 {
			continue
		}
		section, ok := tpl.SectionByTitle(mark.title)
		if !ok {
			continue
		}
		// Deeper headings belong to the section body. The body runs to the
		// next heading of level two or shallower.
		bodyEnd := len(raw)
		for j := i + 1; j < len(marks); j++ {
			if marks[j].level <= 2 {
				bodyEnd = marks[j].start
				break
			}
		}
		body := strings.TrimSpace(string(raw[mark.end:bodyEnd]))
		if body == "" {
			continue
		}
		facts[SectionFactKey(section.ID)] = []string{body}
	}

	inferDocumentKind(tpl, facts)
}

// inferDocumentKind settles the activity kind from the harvested sections so
// applicability checks do not re-ask what the document structure implies.
func inferDocumentKind(tpl template.Template, facts map[string][]string) {
	if _, exists := facts[template.KeyActivityKind]; exists {
		return
	}
	if _, ok := facts[SectionFactKey("endpoints")]; ok {
		facts[template.KeyActivityKind] = []string{string(template.KindEndpoint)}
		return
	}
	if summary, ok := facts[template.KeyActivitySummary]; ok && len(summary) > 0 {
		if kind, inferred := InferKind(summary[0]); inferred {
			facts[template.KeyActivityKind] = []string{kind}
		}
	}
}

// stripFrontMatter drops a leading `---` YAML envelope so re-seeding a
// previously rendered document harvests the body, not the metadata.
func stripFrontMatter(raw []byte) []byte {
	if !bytes.HasPrefix(raw, []byte("---\n")) {
		return raw
	}
	rest := raw[4:]
	idx := bytes.Index(rest, []byte("\n---\n"))
	if idx < 0 {
		return raw
	}
	return bytes.TrimLeft(rest[idx+len("\n---\n"):], "\n")
}

func lineStart(raw []byte, offset int) int {
	for offset > 0 && raw[offset-1] != '\n' {
		offset--
	}
	return offset
}
