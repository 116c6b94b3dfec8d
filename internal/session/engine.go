package session

import (
	"fmt"
	"strings"

	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/template"
)

const defaultMaxRounds = 8

// KeyProjectStack records detected build stacks of the surrounding codebase.
const KeyProjectStack = "project.stack"

// Question is a single prompt in a round. Its ID doubles as the fact key the
// answer lands under, so a question can never be produced for a resolved key.
type Question struct {
	ID            string
	Text          string
	Topic         string
	Options       []template.Option
	AllowMultiple bool
	FreeForm      bool
}

// Round is one batch of questions, grouped by section topic.
type Round struct {
	Number    int
	Questions []Question
}

// Synthesizer drives the interview for one template. It is stateless across
// calls: every operation takes and returns an explicit State.
type Synthesizer struct {
	tpl       template.Template
	maxRounds int
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithMaxRounds overrides the round cap.
func WithMaxRounds(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// New builds a Synthesizer for the given template.
func New(tpl template.Template, opts ...Option) (*Synthesizer, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	s := &Synthesizer{tpl: tpl, maxRounds: defaultMaxRounds}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Template returns the template the interview fills in.
func (s *Synthesizer) Template() template.Template {
	return s.tpl
}

// MaxRounds returns the configured round cap.
func (s *Synthesizer) MaxRounds() int {
	return s.maxRounds
}

// Begin seeds a fresh decision record from the resolved seed input plus any
// inferable context from the surrounding project. The seed itself must
// already be resolved; an unreadable reference never reaches this point.
func (s *Synthesizer) Begin(in seed.Input, projectDir string) State {
	facts := map[string]Fact{}
	for key, values := range seed.Harvest(in, s.tpl) {
		facts[key] = Fact{Values: values, Source: SourceSeed}
	}
	if stacks := seed.InspectProject(projectDir); len(stacks) > 0 {
		facts[KeyProjectStack] = Fact{Values: stacks, Source: SourceProject}
	}
	return NewState().Merge(facts)
}

// NextRound produces the next batch of questions, or nil when no open
// question remains and the session is done. Hitting the round cap with open
// questions returns ErrRoundLimit.
func (s *Synthesizer) NextRound(state State) (*Round, error) {
	questions := s.openQuestions(state)
	if len(questions) == 0 {
		return nil, nil
	}
	if state.Rounds() >= s.maxRounds {
		return nil, fmt.Errorf("%w: %d round(s) asked, %d question(s) open", ErrRoundLimit, state.Rounds(), len(questions))
	}
	return &Round{Number: state.Rounds() + 1, Questions: questions}, nil
}

// Open returns how many questions the next round would carry.
func (s *Synthesizer) Open(state State) int {
	return len(s.openQuestions(state))
}

// Apply folds a fully answered round into the record and returns the new
// state. Every question in the round must be answered: the exchange is
// synchronous and an unanswered question would keep the open set from
// shrinking.
func (s *Synthesizer) Apply(state State, round *Round, answers AnswerRecord) (State, error) {
	if round == nil || len(round.Questions) == 0 {
		return state, fmt.Errorf("session: apply requires a round with questions")
	}
	facts := make(map[string]Fact, len(round.Questions))
	for _, question := range round.Questions {
		answer, ok := answers[question.ID]
		if !ok {
			return state, fmt.Errorf("session: question %s was not answered", question.ID)
		}
		values, err := validateAnswer(question, answer)
		if err != nil {
			return state, err
		}
		if state.Resolved(question.ID) {
			// A resolved key can never have been asked; treat it as a caller bug.
			return state, fmt.Errorf("session: answer for already resolved fact %s", question.ID)
		}
		facts[question.ID] = Fact{Values: values, Source: SourceAnswer, Round: round.Number}
	}
	return state.Merge(facts).withRounds(round.Number), nil
}

func validateAnswer(question Question, answer Answer) ([]string, error) {
	values := answer.Values()
	if len(values) == 0 {
		return nil, fmt.Errorf("session: empty answer for %s", question.ID)
	}
	if !question.AllowMultiple && len(answer.Selected) > 1 {
		return nil, fmt.Errorf("session: %s accepts a single choice, got %d", question.ID, len(answer.Selected))
	}
	if answer.FreeText != "" && !question.FreeForm && len(question.Options) > 0 {
		return nil, fmt.Errorf("session: %s does not take free-form input", question.ID)
	}
	for _, selected := range answer.Selected {
		if !optionExists(question.Options, selected) {
			return nil, fmt.Errorf("session: %s has no option %q", question.ID, selected)
		}
	}
	return values, nil
}

func optionExists(options []template.Option, label string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt.Label, label) {
			return true
		}
	}
	return false
}

// openQuestions walks the template and collects a question for every
// unresolved field of every applicable section. Sections pre-resolved from a
// reference document are skipped wholesale; sections whose applicability
// cannot be judged yet (activity kind still open) are deferred to a later
// round, after the intake questions settle the kind.
func (s *Synthesizer) openQuestions(state State) []Question {
	kind, kindKnown := s.activityKind(state)
	var questions []Question
	for _, section := range s.tpl.Sections {
		if state.Resolved(seed.SectionFactKey(section.ID)) {
			continue
		}
		if len(section.AppliesTo) > 0 {
			// With the kind still open the section is deferred: the intake
			// questions of this same loop settle the kind, and a later round
			// picks the section up. A template that cannot settle a kind at
			// all simply leaves kind-gated sections out.
			if !kindKnown || !section.AppliesToKind(kind) {
				continue
			}
		}
		for _, field := range section.Fields {
			if state.Resolved(field.Key) {
				continue
			}
			questions = append(questions, Question{
				ID:            field.Key,
				Text:          field.Prompt,
				Topic:         section.Title,
				Options:       field.Options,
				AllowMultiple: field.AllowMultiple,
				FreeForm:      field.FreeForm,
			})
		}
	}
	return questions
}

func (s *Synthesizer) activityKind(state State) (template.ActivityKind, bool) {
	value := state.First(template.KeyActivityKind)
	if value == "" {
		return "", false
	}
	return template.ParseKind(value)
}

// Applicable reports which template sections apply to the current state:
// either pre-resolved from the seed document or matching the settled
// activity kind. Used by rendering and by the TUI progress panel.
func (s *Synthesizer) Applicable(state State) []template.Section {
	kind, kindKnown := s.activityKind(state)
	var sections []template.Section
	for _, section := range s.tpl.Sections {
		if state.Resolved(seed.SectionFactKey(section.ID)) {
			sections = append(sections, section)
			continue
		}
		if len(section.AppliesTo) == 0 {
			sections = append(sections, section)
			continue
		}
		if kindKnown && section.AppliesToKind(kind) {
			sections = append(sections, section)
		}
	}
	return sections
}
