package session

import "errors"

var (
	// ErrAbandoned indicates the answerer stopped responding mid-session.
	// Nothing is rendered and nothing is written.
	ErrAbandoned = errors.New("session: abandoned by answerer")

	// ErrRoundLimit indicates the interview hit its round cap while open
	// questions remained. The cap exists because "keep asking until no
	// ambiguity remains" needs an explicit termination bound.
	ErrRoundLimit = errors.New("session: round limit reached with open questions")
)
