// Package setup is the first-run configuration wizard. It asks for the
// backend connection, writes config.yaml, and leaves everything else at
// defaults the user can edit later.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/graphpane/pkg/config"
)

// isTerminal checks if stdin is connected to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run walks the user through initial configuration and writes it to the
// given path (or the default config location when path is empty). The
// resulting config is returned.
func Run(path string) (config.Config, error) {
	cfg := config.DefaultConfig()

	kind := cfg.Backend.Kind
	uri := cfg.Backend.URI
	database := cfg.Backend.Database
	username := cfg.Backend.Username
	passwordEnv := cfg.Backend.PasswordEnv
	fixture := cfg.Backend.FixturePath
	maxVertices := strconv.Itoa(cfg.Graph.MaxVertices)
	defaultView := cfg.UI.DefaultView

	backendForm := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Graph backend").
				Description("Where should queries run?").
				Options(
					huh.NewOption("Neo4j / Bolt server", "neo4j"),
					huh.NewOption("Records file (offline fixture)", "file"),
				).
				Value(&kind),
		),
	)
	if err := backendForm.Run(); err != nil {
		return cfg, fmt.Errorf("setup aborted: %w", err)
	}

	switch kind {
	case "neo4j":
		form := newForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Server URI").
					Placeholder("neo4j://localhost:7687").
					Value(&uri),
				huh.NewInput().
					Title("Database").
					Value(&database),
				huh.NewInput().
					Title("Username").
					Value(&username),
				huh.NewInput().
					Title("Password environment variable").
					Description("The password itself never goes in the config file").
					Value(&passwordEnv),
			),
		)
		if err := form.Run(); err != nil {
			return cfg, fmt.Errorf("setup aborted: %w", err)
		}
	case "file":
		form := newForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Records file path").
					Placeholder("testdata/air-routes.json").
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("a records file is required")
						}
						return nil
					}).
					Value(&fixture),
			),
		)
		if err := form.Run(); err != nil {
			return cfg, fmt.Errorf("setup aborted: %w", err)
		}
	}

	displayForm := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Vertex display cap").
				Description("Larger graphs are truncated for readability").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}).
				Value(&maxVertices),
			huh.NewSelect[string]().
				Title("Default results view").
				Options(
					huh.NewOption("Graph", "graph"),
					huh.NewOption("JSON", "json"),
				).
				Value(&defaultView),
		),
	)
	if err := displayForm.Run(); err != nil {
		return cfg, fmt.Errorf("setup aborted: %w", err)
	}

	cfg.Backend.Kind = kind
	cfg.Backend.URI = uri
	cfg.Backend.Database = database
	cfg.Backend.Username = username
	cfg.Backend.PasswordEnv = passwordEnv
	cfg.Backend.FixturePath = fixture
	if n, err := strconv.Atoi(maxVertices); err == nil && n > 0 {
		cfg.Graph.MaxVertices = n
	}
	cfg.UI.DefaultView = defaultView

	if path == "" {
		path = config.ConfigPath()
	}
	if err := config.SaveTo(cfg, path); err != nil {
		return cfg, err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return cfg, nil
}
