package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/template"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestSynthesizer(t *testing.T, opts ...Option) *Synthesizer {
	t.Helper()
	syn, err := New(template.Builtin(), opts...)
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	return syn
}

// answerAll resolves every question in the round with either its recommended
// option or a canned free-form answer.
func answerAll(round *Round, freeForm map[string]string) AnswerRecord {
	answers := AnswerRecord{}
	for _, q := range round.Questions {
		if text, ok := freeForm[q.ID]; ok {
			answers[q.ID] = Answer{FreeText: text}
			continue
		}
		if len(q.Options) > 0 {
			answers[q.ID] = Answer{Selected: []string{q.Options[0].Label}}
			continue
		}
		answers[q.ID] = Answer{FreeText: "resolved"}
	}
	return answers
}

func TestInterviewResolvesDescriptionSeedInOneRound(t *testing.T) {
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}, "")

	if !state.Resolved(template.KeyActivityKind) {
		t.Fatalf("kind should be inferred from the description")
	}
	round, err := syn.NextRound(state)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if round == nil {
		t.Fatalf("expected open questions")
	}
	if round.Number != 1 {
		t.Fatalf("unexpected round number %d", round.Number)
	}

	answers := answerAll(round, map[string]string{
		"decisions.approach": "sliding window",
		"decisions.storage":  "Redis-backed",
		"decisions.limits":   "5/min",
	})
	next, err := syn.Apply(state, round, answers)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	done, err := syn.NextRound(next)
	if err != nil {
		t.Fatalf("next round after apply: %v", err)
	}
	if done != nil {
		t.Fatalf("expected Done after one full round, got %d question(s)", len(done.Questions))
	}
	if got := next.First("decisions.limits"); got != "5/min" {
		t.Fatalf("answer not recorded: %q", got)
	}
	if next.Rounds() != 1 {
		t.Fatalf("expected 1 applied round, got %d", next.Rounds())
	}
}

func TestNoQuestionForResolvedFact(t *testing.T) {
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "rate limiter for login endpoint"}, "")
	round, err := syn.NextRound(state)
	if err != nil || round == nil {
		t.Fatalf("next round: %v %v", round, err)
	}
	for _, q := range round.Questions {
		if state.Resolved(q.ID) {
			t.Fatalf("question %s generated for an already resolved fact", q.ID)
		}
		if q.ID == template.KeyActivitySummary || q.ID == template.KeyActivityKind {
			t.Fatalf("seeded intake fact %s must not be re-asked", q.ID)
		}
	}
}

func TestCompleteReferenceSeedIsImmediatelyDone(t *testing.T) {
	doc := `# Login Rate Limiter

## Overview

A sliding-window rate limiter for the login endpoint.

## Flow Overview

Request arrives, limiter counts it, excess is rejected with 429.

## Technical Decisions

- sliding window
- Redis-backed
- 5/min

## Endpoints

- POST /login

## Migrations

No schema changes.

## Components

RateLimiter middleware, Redis client wrapper.

## Implementation Tasks

1. Middleware
2. Counter
3. Wire-up

## Tests

Burst of six requests inside a minute, sixth rejected.
`
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindReference, Payload: doc, Path: "SPEC.md"}, "")
	round, err := syn.NextRound(state)
	if err != nil {
		t.Fatalf("next round: %v", err)
	}
	if round != nil {
		ids := make([]string, 0, len(round.Questions))
		for _, q := range round.Questions {
			ids = append(ids, q.ID)
		}
		t.Fatalf("a complete prior document must yield Done, got questions: %s", strings.Join(ids, ", "))
	}
	if state.First(seed.SectionFactKey("decisions")) == "" {
		t.Fatalf("decisions body should be captured for lossless rendering")
	}
}

func TestKindGatedSectionsDeferUntilKindResolves(t *testing.T) {
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "something vague"}, "")

	round, err := syn.NextRound(state)
	if err != nil || round == nil {
		t.Fatalf("next round: %v %v", round, err)
	}
	for _, q := range round.Questions {
		if q.ID == "endpoints.routes" || q.ID == "migrations.changes" {
			t.Fatalf("kind-gated question %s asked before the kind resolved", q.ID)
		}
	}

	answers := answerAll(round, nil)
	answers[template.KeyActivityKind] = Answer{Selected: []string{string(template.KindEndpoint)}}
	state, err = syn.Apply(state, round, answers)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	round, err = syn.NextRound(state)
	if err != nil || round == nil {
		t.Fatalf("expected a second round for endpoint sections: %v %v", round, err)
	}
	if round.Number != 2 {
		t.Fatalf("unexpected round number %d", round.Number)
	}
	found := false
	for _, q := range round.Questions {
		if q.ID == "endpoints.routes" {
			found = true
		}
	}
	if !found {
		t.Fatalf("endpoints questions should surface once the kind is endpoint")
	}
}

func TestApplyRejectsPartialAnswers(t *testing.T) {
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "nightly cleanup job"}, "")
	round, err := syn.NextRound(state)
	if err != nil || round == nil {
		t.Fatalf("next round: %v %v", round, err)
	}
	answers := answerAll(round, nil)
	delete(answers, round.Questions[0].ID)
	if _, err := syn.Apply(state, round, answers); err == nil {
		t.Fatalf("expected partial answers to fail")
	}
}

func TestApplyValidatesAnswers(t *testing.T) {
	syn := newTestSynthesizer(t)
	round := &Round{Number: 1, Questions: []Question{{
		ID:      "decisions.storage",
		Text:    "Where does runtime state live?",
		Options: []template.Option{{Label: "Redis", Recommended: true}, {Label: "in memory"}},
	}}}

	if _, err := syn.Apply(NewState(), round, AnswerRecord{
		"decisions.storage": {Selected: []string{"carrier pigeon"}},
	}); err == nil {
		t.Fatalf("unknown option must be rejected")
	}
	if _, err := syn.Apply(NewState(), round, AnswerRecord{
		"decisions.storage": {Selected: []string{"Redis", "in memory"}},
	}); err == nil {
		t.Fatalf("multiple choices must be rejected for single-choice questions")
	}
	if _, err := syn.Apply(NewState(), round, AnswerRecord{
		"decisions.storage": {},
	}); err == nil {
		t.Fatalf("empty answer must be rejected")
	}
}

func TestRoundLimit(t *testing.T) {
	syn := newTestSynthesizer(t, WithMaxRounds(1))
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "something vague"}, "")
	round, err := syn.NextRound(state)
	if err != nil || round == nil {
		t.Fatalf("next round: %v %v", round, err)
	}
	answers := answerAll(round, nil)
	answers[template.KeyActivityKind] = Answer{Selected: []string{string(template.KindEndpoint)}}
	state, err = syn.Apply(state, round, answers)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// The endpoint sections opened new questions, but the cap is exhausted.
	if _, err := syn.NextRound(state); !errors.Is(err, ErrRoundLimit) {
		t.Fatalf("expected ErrRoundLimit, got %v", err)
	}
}

func TestMonotonicityAcrossRounds(t *testing.T) {
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "something vague"}, "")
	for {
		round, err := syn.NextRound(state)
		if err != nil {
			t.Fatalf("next round: %v", err)
		}
		if round == nil {
			break
		}
		before := state
		answers := answerAll(round, nil)
		state, err = syn.Apply(state, round, answers)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		for _, key := range before.Keys() {
			if !state.Resolved(key) {
				t.Fatalf("round %d lost fact %s", round.Number, key)
			}
		}
		if state.Len() <= before.Len() {
			t.Fatalf("round %d did not grow the record", round.Number)
		}
	}
}

func TestBeginRecordsProjectStack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example\n")
	syn := newTestSynthesizer(t)
	state := syn.Begin(seed.Input{Kind: seed.KindDescription, Payload: "cache helper"}, dir)
	if got := state.First(KeyProjectStack); got != "go" {
		t.Fatalf("expected go stack fact, got %q", got)
	}
	fact, _ := state.Get(KeyProjectStack)
	if fact.Source != SourceProject {
		t.Fatalf("unexpected source: %s", fact.Source)
	}
}
