package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/graphpane/internal/backend"
	"github.com/vanderheijden86/graphpane/internal/pagestore"
	"github.com/vanderheijden86/graphpane/internal/setup"
	"github.com/vanderheijden86/graphpane/pkg/config"
	"github.com/vanderheijden86/graphpane/pkg/export"
	"github.com/vanderheijden86/graphpane/pkg/graph"
	"github.com/vanderheijden86/graphpane/pkg/graphview"
	"github.com/vanderheijden86/graphpane/pkg/msg"
	"github.com/vanderheijden86/graphpane/pkg/session"
	"github.com/vanderheijden86/graphpane/pkg/ui"
	"github.com/vanderheijden86/graphpane/pkg/version"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	initFlag := flag.Bool("init", false, "Run the setup wizard and write config.yaml")
	serveFlag := flag.Bool("serve", false, "Run the session host instead of the terminal client")
	attach := flag.String("attach", "", "Attach to a session host, e.g. ws://localhost:8080/ws")
	sessionID := flag.String("session", "", "Session to join on the host (with -attach)")
	configPath := flag.String("config", "", "Config file path (default: the XDG config dir)")
	query := flag.String("query", "", "Run one query and print the raw results as JSON")
	snapshot := flag.String("snapshot", "", "With -query, render the graph to this .svg or .png file")
	flag.Parse()

	if *help {
		fmt.Println("Usage: gpane [options]")
		fmt.Println("\nA terminal browser for graph databases.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("gpane %s\n", version.Version)
		os.Exit(0)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *initFlag {
		if _, err := setup.Run(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *query != "":
		err = runQuery(ctx, cfg, *query, *snapshot)
	case *serveFlag:
		err = runServe(ctx, cfg)
	default:
		err = runTUI(ctx, cfg, *configPath, *attach, *sessionID)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// runServe runs the websocket session host.
func runServe(ctx context.Context, cfg config.Config) error {
	exec, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer exec.Close(context.Background())

	store, err := pagestore.Open(cfg.PageStorePath())
	if err != nil {
		return err
	}
	defer store.Close()

	srv := session.NewServer(exec, session.WithServerPageStore(store))
	fmt.Printf("gpane host listening on %s\n", cfg.Serve.Addr)
	return srv.ListenAndServe(ctx, cfg.Serve.Addr)
}

// runTUI runs the interactive client, embedded or attached.
func runTUI(ctx context.Context, cfg config.Config, configPath, attach, sessionID string) error {
	opts := ui.Options{
		Config:     cfg,
		ConfigPath: configPath,
		HostURL:    attach,
		Session:    sessionID,
	}
	if configPath == "" {
		opts.ConfigPath = config.ConfigPath()
	}

	if attach == "" {
		exec, err := backend.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer exec.Close(context.Background())

		store, err := pagestore.Open(cfg.PageStorePath())
		if err != nil {
			return err
		}
		defer store.Close()

		opts.Controller = session.NewController("local", exec,
			session.WithPageStore(store),
			session.WithInitialView(msg.ViewMode(cfg.UI.DefaultView)),
		)
	}
	return ui.Run(ctx, opts)
}

// runQuery executes one query and prints or renders the results.
func runQuery(ctx context.Context, cfg config.Config, text, snapshotPath string) error {
	exec, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer exec.Close(context.Background())

	records, edges, err := exec.Execute(ctx, text)
	if err != nil {
		return err
	}

	if snapshotPath != "" {
		vertices, inline := graph.Partition(records)
		g := graphview.Build(vertices, graph.UnionEdges(inline, edges),
			cfg.Graph.MaxVertices, cfg.Graph.MaxEdges)
		if err := export.SaveSnapshot(ctx, export.SnapshotOptions{
			Path:    snapshotPath,
			Title:   exec.Title(),
			Query:   text,
			Graph:   g,
			Physics: cfg.Graph.Physics,
		}); err != nil {
			return err
		}
		fmt.Printf("Snapshot written to %s\n", snapshotPath)
		fmt.Println(g.Stats.String())
		return nil
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
