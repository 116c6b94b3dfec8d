package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/specloom/specloom/internal/config"
	"github.com/specloom/specloom/internal/document"
	"github.com/specloom/specloom/internal/logbook"
	"github.com/specloom/specloom/internal/seed"
	"github.com/specloom/specloom/internal/session"
	"github.com/specloom/specloom/internal/template"
	"github.com/specloom/specloom/internal/tui"
)

var (
	interviewTemplate  string
	interviewOutput    string
	interviewMaxRounds int
	interviewDescribe  bool
)

var interviewCmd = &cobra.Command{
	Use:   "interview [seed]",
	Short: "Run an interview session and write the resulting document",
	Long: "Starts an interview from the given seed. A seed that names a readable file\n" +
		"is harvested as a draft document; with --describe (or when no file matches\n" +
		"inside the UI) the text is taken as a free-form description. Without a seed\n" +
		"argument the UI asks for one.",
	Args: cobra.MaximumNArgs(1),
	RunE: runInterview,
}

func init() {
	interviewCmd.Flags().StringVarP(&interviewTemplate, "template", "t", "", "template id (default from .specloom/config.yaml)")
	interviewCmd.Flags().StringVarP(&interviewOutput, "output", "o", "", "output path (reference seeds default to their own file)")
	interviewCmd.Flags().IntVar(&interviewMaxRounds, "max-rounds", 0, "cap on question rounds (default from config)")
	interviewCmd.Flags().BoolVar(&interviewDescribe, "describe", false, "treat the seed argument as a description, never a path")
}

func runInterview(_ *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	if err := config.InitSpecloomDir(cwd); err != nil {
		return fmt.Errorf("initialize %s: %w", config.SpecloomDir, err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return err
	}

	lb, lbErr := logbook.New(cfg.JournalPath())
	if lbErr == nil {
		lb.Info("Session opened · template %s", templateID(cfg))
	}

	registry, err := template.NewRegistry(cfg.TemplatesDir())
	if err != nil {
		return err
	}
	tpl, err := registry.Resolve(templateID(cfg))
	if err != nil {
		return err
	}

	maxRounds := cfg.MaxRounds()
	if interviewMaxRounds > 0 {
		maxRounds = interviewMaxRounds
	}
	syn, err := session.New(tpl, session.WithMaxRounds(maxRounds))
	if err != nil {
		return err
	}

	opts := []tui.AppOption{tui.WithLogbook(lb)}
	if len(args) == 1 {
		// A bad seed fails here, before any UI comes up.
		in, err := seed.Resolve(args[0], interviewDescribe)
		if err != nil {
			return err
		}
		if in.Kind == seed.KindReference && lbErr == nil {
			logPriorDocument(lb, in.Path)
		}
		opts = append(opts, tui.WithSeed(in))
	}
	if interviewOutput != "" {
		opts = append(opts, tui.WithOutputPath(interviewOutput))
	}

	app := tui.NewApp(cfg, syn, opts...)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interview ui: %w", err)
	}
	if err := app.Err(); err != nil {
		if errors.Is(err, session.ErrRoundLimit) {
			return fmt.Errorf("%w after %d round(s); nothing was written", session.ErrRoundLimit, maxRounds)
		}
		return err
	}
	if app.Aborted() {
		return session.ErrAbandoned
	}
	fmt.Printf("✓ Document written to %s\n", app.WrittenPath())
	return nil
}

// logPriorDocument records whether the reference seed is one of our own
// rendered documents. Plain drafts without frontmatter are fine; a document
// whose body no longer matches its checksum gets a warning before the
// interview rewrites it.
func logPriorDocument(lb *logbook.Logbook, path string) {
	result, err := document.NewStore().Check(path)
	if err != nil {
		if errors.Is(err, document.ErrMissingFrontMatter) {
			// A plain draft, not one of ours.
			return
		}
		lb.Warn("Prior document %s failed validation: %v", path, err)
		return
	}
	if result.State == document.StateReady && result.Metadata != nil {
		lb.Info("Refining prior document %s · template %s · %d earlier round(s)",
			path, result.Metadata.Template, result.Metadata.Rounds)
	}
}

func templateID(cfg *config.Config) string {
	if interviewTemplate != "" {
		return interviewTemplate
	}
	return cfg.DefaultTemplate()
}
