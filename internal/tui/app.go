// internal/tui/app.go
//
// The interview TUI follows The Elm Architecture via bubbletea:
// model state, an Update function reacting to messages, and a View
// rendering the current screen. One question is shown at a time;
// answering the last question of a round applies the whole round to
// the decision state and fetches the next one.

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/specloom/specloom/internal/config"
	"github.com/specloom/specloom/internal/document"
	"github.com/specloom/specloom/internal/logbook"
	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/session"
)

// appState represents which screen is active.
type appState int

const (
	stateSeedEntry  appState = iota // asking for the seed when none was given
	stateInterview                  // walking through the current round's questions
	stateOutputPath                 // asking where to write the document
	stateSummary                    // interview finished, document written
	stateFailed                     // unrecoverable error, shown before quit
)

// freeFormChoice is the synthetic last entry on option questions that also
// accept a typed answer.
const freeFormChoice = "something else…"

// AppOption customizes App construction.
type AppOption func(*App)

// WithSeed provides a pre-resolved seed so the entry screen is skipped.
func WithSeed(in seed.Input) AppOption {
	return func(a *App) {
		a.input = in
		a.hasSeed = true
	}
}

// WithOutputPath fixes the output location so the path screen is skipped.
func WithOutputPath(path string) AppOption {
	return func(a *App) {
		if strings.TrimSpace(path) != "" {
			a.outputPath = path
		}
	}
}

// WithLogbook attaches a journal for the activity panel.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithStore overrides the document store, mainly for tests with a fixed clock.
func WithStore(store *document.Store) AppOption {
	return func(a *App) {
		if store != nil {
			a.store = store
		}
	}
}

// App is the interview application model.
type App struct {
	state   appState
	config  *config.Config
	syn     *session.Synthesizer
	logbook *logbook.Logbook
	store   *document.Store

	input    seed.Input
	hasSeed  bool
	decision session.State

	round    *session.Round
	qIndex   int
	pending  session.AnswerRecord
	cursor   int
	selected map[int]bool
	text     textinput.Model
	typing   bool

	outputPath string
	written    string
	runErr     error
	statusMsg  string

	width  int
	height int
}

// NewApp builds the interview model. The interview itself starts in Init.
func NewApp(cfg *config.Config, syn *session.Synthesizer, opts ...AppOption) *App {
	input := textinput.New()
	input.CharLimit = 0
	input.Width = 60
	app := &App{
		state:   stateSeedEntry,
		config:  cfg,
		syn:     syn,
		store:   document.NewStore(),
		pending: session.AnswerRecord{},
		text:    input,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Aborted reports whether the answerer walked away before the document was written.
func (a *App) Aborted() bool {
	return a.written == "" && a.runErr == nil
}

// Err returns the failure that ended the session, if any.
func (a *App) Err() error { return a.runErr }

// WrittenPath returns the output location once the document has been persisted.
func (a *App) WrittenPath() string { return a.written }

// Decision exposes the final decision state for logging and inspection.
func (a *App) Decision() session.State { return a.decision }

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.hasSeed {
		return a.beginInterview()
	}
	a.state = stateSeedEntry
	a.text.Placeholder = "path to a draft document, or a one-line description"
	a.text.Focus()
	return textinput.Blink
}

// beginInterview seeds the decision state and moves to the first round.
func (a *App) beginInterview() tea.Cmd {
	a.decision = a.syn.Begin(a.input, a.config.ProjectDir)
	a.logInfo("Interview started · template %s · seed %s", a.syn.Template().ID, a.input.Kind)
	return a.advance()
}

// advance fetches the next round or, when the interview is complete, moves on
// to writing the document.
func (a *App) advance() tea.Cmd {
	round, err := a.syn.NextRound(a.decision)
	if err != nil {
		return a.fail(err)
	}
	if round == nil {
		return a.finish()
	}
	a.round = round
	a.qIndex = 0
	a.pending = session.AnswerRecord{}
	a.logbookRound(round)
	a.prepareQuestion()
	a.state = stateInterview
	return nil
}

func (a *App) logbookRound(round *session.Round) {
	if a.logbook == nil {
		return
	}
	a.logbook.Round(round.Number, len(round.Questions))
}

// prepareQuestion resets the per-question widgets, pre-selecting the
// recommended option when the question has one.
func (a *App) prepareQuestion() {
	q := a.currentQuestion()
	a.cursor = 0
	a.selected = map[int]bool{}
	a.typing = false
	a.text.SetValue("")
	a.text.Blur()
	if len(q.Options) == 0 {
		a.typing = true
		a.text.Placeholder = "type your answer"
		a.text.Focus()
		return
	}
	for i, opt := range q.Options {
		if opt.Recommended {
			a.cursor = i
			if q.AllowMultiple {
				a.selected[i] = true
			}
			break
		}
	}
}

func (a *App) currentQuestion() session.Question {
	return a.round.Questions[a.qIndex]
}

// choiceCount includes the synthetic free-form entry when present.
func (a *App) choiceCount() int {
	q := a.currentQuestion()
	count := len(q.Options)
	if q.FreeForm && count > 0 {
		count++
	}
	return count
}

func (a *App) isFreeFormChoice(idx int) bool {
	q := a.currentQuestion()
	return q.FreeForm && len(q.Options) > 0 && idx == len(q.Options)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if a.state == stateSummary || a.state == stateFailed {
				return a, tea.Quit
			}
			a.logInfo("Interview abandoned · nothing written")
			return a, tea.Quit
		}
		switch a.state {
		case stateSeedEntry:
			return a.updateSeedEntry(msg)
		case stateInterview:
			return a.updateInterview(msg)
		case stateOutputPath:
			return a.updateOutputPath(msg)
		case stateSummary, stateFailed:
			if msg.String() == "enter" || msg.String() == "q" {
				return a, tea.Quit
			}
		}
	}

	if a.typing || a.state == stateSeedEntry || a.state == stateOutputPath {
		var cmd tea.Cmd
		a.text, cmd = a.text.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateSeedEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		raw := strings.TrimSpace(a.text.Value())
		if raw == "" {
			a.statusMsg = "A seed is required to start"
			return a, nil
		}
		in, err := seed.Resolve(raw, false)
		if err != nil {
			if looksLikePath(raw) {
				a.statusMsg = err.Error()
				a.logError("Seed rejected: %v", err)
				return a, nil
			}
			// Not a file on disk and not path-shaped: take it as a description.
			in, err = seed.Resolve(raw, true)
			if err != nil {
				a.statusMsg = err.Error()
				return a, nil
			}
		}
		a.input = in
		a.hasSeed = true
		a.statusMsg = ""
		a.text.Blur()
		return a, a.beginInterview()
	}
	var cmd tea.Cmd
	a.text, cmd = a.text.Update(msg)
	return a, cmd
}

func (a *App) updateInterview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := a.currentQuestion()
	if a.typing {
		if msg.String() == "enter" {
			value := strings.TrimSpace(a.text.Value())
			if value == "" {
				a.statusMsg = "An answer is required"
				return a, nil
			}
			return a, a.recordAnswer(session.Answer{FreeText: value})
		}
		var cmd tea.Cmd
		a.text, cmd = a.text.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < a.choiceCount()-1 {
			a.cursor++
		}
	case " ":
		if q.AllowMultiple && !a.isFreeFormChoice(a.cursor) {
			a.selected[a.cursor] = !a.selected[a.cursor]
		}
	case "enter":
		if a.isFreeFormChoice(a.cursor) {
			a.typing = true
			a.text.SetValue("")
			a.text.Placeholder = "type your answer"
			a.text.Focus()
			return a, textinput.Blink
		}
		if q.AllowMultiple {
			var labels []string
			for i, opt := range q.Options {
				if a.selected[i] {
					labels = append(labels, opt.Label)
				}
			}
			if len(labels) == 0 {
				labels = []string{q.Options[a.cursor].Label}
			}
			return a, a.recordAnswer(session.Answer{Selected: labels})
		}
		return a, a.recordAnswer(session.Answer{Selected: []string{q.Options[a.cursor].Label}})
	}
	return a, nil
}

// recordAnswer stores the current answer and either moves to the next question
// or applies the completed round.
func (a *App) recordAnswer(answer session.Answer) tea.Cmd {
	q := a.currentQuestion()
	a.pending[q.ID] = answer
	a.statusMsg = ""
	if a.qIndex+1 < len(a.round.Questions) {
		a.qIndex++
		a.prepareQuestion()
		return nil
	}
	next, err := a.syn.Apply(a.decision, a.round, a.pending)
	if err != nil {
		return a.fail(err)
	}
	a.decision = next
	a.logInfo("Round %d applied · %d fact(s) resolved", a.round.Number, len(a.pending))
	a.round = nil
	return a.advance()
}

// finish resolves the output path, renders, and writes the document.
func (a *App) finish() tea.Cmd {
	if a.outputPath == "" && a.input.Kind == seed.KindReference && a.input.Path != "" {
		// Reference seeds are refined in place.
		a.outputPath = a.input.Path
	}
	if a.outputPath == "" {
		a.state = stateOutputPath
		a.text.SetValue(a.config.DefaultOutputPath())
		a.text.Placeholder = "output path"
		a.text.Focus()
		return textinput.Blink
	}
	return a.writeDocument()
}

func (a *App) updateOutputPath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		path := strings.TrimSpace(a.text.Value())
		if path == "" {
			a.statusMsg = "An output path is required"
			return a, nil
		}
		a.outputPath = path
		a.text.Blur()
		return a, a.writeDocument()
	}
	var cmd tea.Cmd
	a.text, cmd = a.text.Update(msg)
	return a, cmd
}

func (a *App) writeDocument() tea.Cmd {
	rendered, err := document.Render(a.syn, a.input, a.decision)
	if err != nil {
		return a.fail(err)
	}
	if err := a.store.Write(a.outputPath, rendered); err != nil {
		return a.fail(err)
	}
	a.written = a.outputPath
	a.state = stateSummary
	a.logInfo("Document written · %s · %d round(s)", a.outputPath, a.decision.Rounds())
	return nil
}

func (a *App) fail(err error) tea.Cmd {
	a.runErr = err
	a.state = stateFailed
	a.logError("Interview failed: %v", err)
	if errors.Is(err, session.ErrRoundLimit) {
		a.statusMsg = fmt.Sprintf("Round limit of %d reached with questions still open", a.syn.MaxRounds())
	} else {
		a.statusMsg = err.Error()
	}
	return nil
}

// looksLikePath guards against silently treating a mistyped file path as a
// description. Anything with a separator or a markdown extension is a path.
func looksLikePath(raw string) bool {
	return strings.ContainsRune(raw, '/') || strings.HasSuffix(raw, ".md")
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}
