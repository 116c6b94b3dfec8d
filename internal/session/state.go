// Package session implements the interview loop that turns a seed into a
// fully specified decision record: rounds of questions, append-only fact
// accumulation, and an explicit termination bound.
package session

import "sort"

// Fact sources, recorded for provenance.
const (
	SourceSeed    = "seed"
	SourceProject = "project"
	SourceAnswer  = "answer"
)

// Fact is one resolved decision or observation. Facts are never removed and
// never overwritten: the first recording wins.
type Fact struct {
	Values []string
	Source string
	// Round is the question round that produced the fact; zero for facts
	// seeded before the first round.
	Round int
}

// State is the cumulative decision record of a session. The zero value is an
// empty record. All mutating operations return a new State; the receiver is
// never touched.
type State struct {
	facts  map[string]Fact
	rounds int
}

// NewState returns an empty decision record.
func NewState() State {
	return State{facts: map[string]Fact{}}
}

// Resolved reports whether a fact exists for the key.
func (s State) Resolved(key string) bool {
	_, ok := s.facts[key]
	return ok
}

// Get returns the fact stored under key.
func (s State) Get(key string) (Fact, bool) {
	fact, ok := s.facts[key]
	return fact, ok
}

// Values returns the stored values for key, or nil.
func (s State) Values(key string) []string {
	fact, ok := s.facts[key]
	if !ok {
		return nil
	}
	out := make([]string, len(fact.Values))
	copy(out, fact.Values)
	return out
}

// First returns the first stored value for key, or "".
func (s State) First(key string) string {
	values := s.facts[key].Values
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Keys returns every fact key in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.facts))
	for key := range s.facts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of recorded facts.
func (s State) Len() int {
	return len(s.facts)
}

// Rounds returns how many answer rounds have been folded in.
func (s State) Rounds() int {
	return s.rounds
}

// Merge returns a new State containing the receiver's facts plus the given
// ones. Existing keys are kept as-is: the record only grows.
func (s State) Merge(facts map[string]Fact) State {
	next := State{facts: make(map[string]Fact, len(s.facts)+len(facts)), rounds: s.rounds}
	for key, fact := range s.facts {
		next.facts[key] = fact
	}
	for key, fact := range facts {
		if _, exists := next.facts[key]; exists {
			continue
		}
		next.facts[key] = cloneFact(fact)
	}
	return next
}

func (s State) withRounds(rounds int) State {
	s.rounds = rounds
	return s
}

func cloneFact(fact Fact) Fact {
	clone := fact
	clone.Values = make([]string, len(fact.Values))
	copy(clone.Values, fact.Values)
	return clone
}

// Answer is the response to a single question: selected option labels and/or
// typed free text.
type Answer struct {
	Selected []string
	FreeText string
}

// Values flattens the answer into fact values.
func (a Answer) Values() []string {
	values := make([]string, 0, len(a.Selected)+1)
	values = append(values, a.Selected...)
	if a.FreeText != "" {
		values = append(values, a.FreeText)
	}
	return values
}

// AnswerRecord maps question identity (the field key) to the chosen answer.
// It accumulates across a round; entries are only ever added.
type AnswerRecord map[string]Answer
