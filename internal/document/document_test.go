package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/session"
	"github.com/specloom/specloom/internal/template"
)

func newSynthesizer(t *testing.T) *session.Synthesizer {
	t.Helper()
	syn, err := session.New(template.Builtin())
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	return syn
}

// completeInterview runs rounds to exhaustion, answering every question with
// its recommended option or a canned free-form value.
func completeInterview(t *testing.T, syn *session.Synthesizer, state session.State) session.State {
	t.Helper()
	for {
		round, err := syn.NextRound(state)
		if err != nil {
			t.Fatalf("next round: %v", err)
		}
		if round == nil {
			return state
		}
		answers := session.AnswerRecord{}
		for _, q := range round.Questions {
			if len(q.Options) > 0 {
				answers[q.ID] = session.Answer{Selected: []string{q.Options[0].Label}}
				continue
			}
			answers[q.ID] = session.Answer{FreeText: "resolved"}
		}
		state, err = syn.Apply(state, round, answers)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
}

func TestRenderRejectsOpenQuestions(t *testing.T) {
	syn := newSynthesizer(t)
	in := seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}
	state := syn.Begin(in, "")

	_, err := Render(syn, in, state)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	syn := newSynthesizer(t)
	in := seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}
	state := completeInterview(t, syn, syn.Begin(in, ""))

	first, err := Render(syn, in, state)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := Render(syn, in, state)
	if err != nil {
		t.Fatalf("render again: %v", err)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Fatalf("same state produced different bodies")
	}
	if first.Rounds != 1 {
		t.Fatalf("expected 1 round recorded, got %d", first.Rounds)
	}
	if !strings.HasPrefix(string(first.Body), "# rate limiter for login endpoint\n") {
		t.Fatalf("title not taken from summary:\n%s", first.Body)
	}
}

// One pass over a fresh description seed: concrete answers must land
// verbatim in the rendered body, grouped under the section that asked them.
func TestInterviewAnswersLandInRenderedBody(t *testing.T) {
	syn := newSynthesizer(t)
	in := seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}
	state := syn.Begin(in, "")

	round, err := syn.NextRound(state)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	answers := session.AnswerRecord{}
	for _, q := range round.Questions {
		switch q.ID {
		case "decisions.approach":
			answers[q.ID] = session.Answer{FreeText: "sliding window"}
		case "decisions.storage":
			answers[q.ID] = session.Answer{FreeText: "Redis-backed"}
		case "decisions.limits":
			answers[q.ID] = session.Answer{FreeText: "5/min per account"}
		default:
			if len(q.Options) > 0 {
				answers[q.ID] = session.Answer{Selected: []string{q.Options[0].Label}}
				continue
			}
			answers[q.ID] = session.Answer{FreeText: "resolved"}
		}
	}
	state, err = syn.Apply(state, round, answers)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if next, err := syn.NextRound(state); err != nil || next != nil {
		t.Fatalf("interview should finish in one round, got %v, %v", next, err)
	}

	rendered, err := Render(syn, in, state)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(rendered.Body)
	want := "## Technical Decisions\n\n- Approach: sliding window\n- Storage: Redis-backed\n- Limits: 5/min per account\n"
	if !strings.Contains(body, want) {
		t.Fatalf("decisions not rendered from answers:\n%s", body)
	}
	if !strings.Contains(body, "## Endpoints") {
		t.Fatalf("endpoint section missing for an endpoint activity:\n%s", body)
	}
}

// A rendered document fed back in as a reference seed must come out
// byte-identical without a single question.
func TestRenderedDocumentRoundTrips(t *testing.T) {
	syn := newSynthesizer(t)
	in := seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}
	state := completeInterview(t, syn, syn.Begin(in, ""))
	first, err := Render(syn, in, state)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	refSyn := newSynthesizer(t)
	ref := seed.Input{Kind: seed.KindReference, Payload: string(first.Body)}
	refState := refSyn.Begin(ref, "")
	round, err := refSyn.NextRound(refState)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if round != nil {
		t.Fatalf("complete reference seed still asked %d question(s)", len(round.Questions))
	}
	second, err := Render(refSyn, ref, refState)
	if err != nil {
		t.Fatalf("re-render: %v", err)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Fatalf("roundtrip changed the body:\n--- first\n%s\n--- second\n%s", first.Body, second.Body)
	}
	if second.Rounds != 0 {
		t.Fatalf("reference roundtrip should take zero rounds, got %d", second.Rounds)
	}
}

func TestRenderOmitsInapplicableSections(t *testing.T) {
	syn := newSynthesizer(t)
	in := seed.Input{Kind: seed.KindDescription, Payload: "nightly cleanup job for stale sessions"}
	state := completeInterview(t, syn, syn.Begin(in, ""))

	rendered, err := Render(syn, in, state)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	body := string(rendered.Body)
	if strings.Contains(body, "## Endpoints") {
		t.Fatalf("endpoint section rendered for a job:\n%s", body)
	}
	if !strings.Contains(body, "## Migrations") {
		t.Fatalf("migrations section missing for a job:\n%s", body)
	}
}

func TestFrontMatterRoundTrip(t *testing.T) {
	meta := Metadata{
		Template:  "spec-document",
		SeedKind:  "description",
		Rounds:    2,
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Checksum:  Checksum([]byte("# Body\n")),
	}
	content, err := WriteFrontMatter(meta, []byte("# Body\n"))
	if err != nil {
		t.Fatalf("write frontmatter: %v", err)
	}
	parsed, body, err := ParseFrontMatter(content)
	if err != nil {
		t.Fatalf("parse frontmatter: %v", err)
	}
	if parsed.Template != meta.Template || parsed.SeedKind != meta.SeedKind || parsed.Rounds != meta.Rounds {
		t.Fatalf("metadata mismatch: %+v", parsed)
	}
	if !parsed.CreatedAt.Equal(meta.CreatedAt) {
		t.Fatalf("timestamp mismatch: %v", parsed.CreatedAt)
	}
	if string(body) != "# Body\n" {
		t.Fatalf("body mismatch: %q", body)
	}
}

func TestParseFrontMatterErrors(t *testing.T) {
	if _, _, err := ParseFrontMatter(nil); !errors.Is(err, ErrMissingFrontMatter) {
		t.Fatalf("empty content: %v", err)
	}
	if _, _, err := ParseFrontMatter([]byte("# no fences\n")); !errors.Is(err, ErrMissingFrontMatter) {
		t.Fatalf("missing fence: %v", err)
	}
	if _, _, err := ParseFrontMatter([]byte("---\nspecloom:\n  template: x\n")); !errors.Is(err, ErrMalformedFrontMatter) {
		t.Fatalf("unterminated fence: %v", err)
	}
}

func TestWriteFrontMatterRequiresTemplate(t *testing.T) {
	_, err := WriteFrontMatter(Metadata{CreatedAt: time.Now()}, []byte("x"))
	if err == nil {
		t.Fatalf("expected validation error for missing template id")
	}
}

func TestStoreWriteAndCheck(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	store := NewStore(WithClock(clock))
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "SPEC.md")

	result, err := store.Check(path)
	if err != nil {
		t.Fatalf("check missing: %v", err)
	}
	if result.State != StateMissing {
		t.Fatalf("expected missing, got %s", result.State)
	}

	rendered := Rendered{
		Title:    "Login Rate Limiter",
		Template: "spec-document",
		SeedKind: "description",
		Rounds:   1,
		Body:     []byte("# Login Rate Limiter\n\n## Overview\n\n- Kind: endpoint\n"),
	}
	if err := store.Write(path, rendered); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err = store.Check(path)
	if err != nil {
		t.Fatalf("check ready: %v", err)
	}
	if result.State != StateReady {
		t.Fatalf("expected ready, got %s (%v)", result.State, result.Err)
	}
	if result.Metadata == nil || result.Metadata.Template != "spec-document" {
		t.Fatalf("metadata not recovered: %+v", result.Metadata)
	}
	if result.Metadata.Rounds != 1 {
		t.Fatalf("rounds not recorded: %d", result.Metadata.Rounds)
	}
	if !result.Metadata.CreatedAt.Equal(clock()) {
		t.Fatalf("created timestamp mismatch: %v", result.Metadata.CreatedAt)
	}
}

func TestStoreDetectsTamperedBody(t *testing.T) {
	store := NewStore()
	dir := t.TempDir()
	path := filepath.Join(dir, "SPEC.md")
	rendered := Rendered{Template: "spec-document", Body: []byte("# Untouched\n")}
	if err := store.Write(path, rendered); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	data = append(data, []byte("\nedited by hand\n")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	result, _ := store.Check(path)
	if result.State != StateInvalid {
		t.Fatalf("expected invalid after tamper, got %s", result.State)
	}
}
