package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specloom/specloom/internal/config"
	"github.com/specloom/specloom/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List available document templates",
	RunE:  runTemplatesList,
}

var templatesUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Set the default template for this project",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesUse,
}

func init() {
	templatesCmd.AddCommand(templatesUseCmd)
}

func runTemplatesList(_ *cobra.Command, _ []string) error {
	cfg, registry, err := projectTemplates()
	if err != nil {
		return err
	}
	for _, tpl := range registry.All() {
		marker := " "
		if tpl.ID == cfg.DefaultTemplate() {
			marker = "*"
		}
		fmt.Printf("%s %-16s %s\n", marker, tpl.ID, tpl.Description)
	}
	return nil
}

func runTemplatesUse(_ *cobra.Command, args []string) error {
	cfg, registry, err := projectTemplates()
	if err != nil {
		return err
	}
	tpl, err := registry.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := cfg.SetDefaultTemplate(tpl.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Default template set to %s\n", tpl.ID)
	return nil
}

func projectTemplates() (*config.Config, *template.Registry, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve working directory: %w", err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return nil, nil, err
	}
	registry, err := template.NewRegistry(cfg.TemplatesDir())
	if err != nil {
		return nil, nil, err
	}
	return cfg, registry, nil
}
