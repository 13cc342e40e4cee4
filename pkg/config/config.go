// Package config handles loading and saving gpane configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/gpane/config.yaml
//   - Data:    ~/.local/share/gpane/ (page store database)
//   - State:   ~/.local/state/gpane/ (debug logs)
//
// Environment variables prefixed GPANE_ override individual fields after the
// file is read, so a deployment can retune caps or point at another backend
// without editing the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/graphpane/pkg/layout"
)

// Default caps for the graph renderer. These are a safety valve against
// pathological query results, not a sampling strategy.
const (
	DefaultMaxVertices = 300
	DefaultMaxEdges    = 1000
)

// BackendConfig identifies the graph database the host queries.
type BackendConfig struct {
	// Kind selects the executor: "neo4j" or "file".
	Kind string `yaml:"kind,omitempty"`
	// URI is the driver connection string, e.g. "neo4j://localhost:7687".
	URI string `yaml:"uri,omitempty"`
	// Database is the database name inside the server.
	Database string `yaml:"database,omitempty"`
	Username string `yaml:"username,omitempty"`
	// PasswordEnv names the environment variable holding the password.
	// Passwords never live in the config file itself.
	PasswordEnv string `yaml:"password_env,omitempty"`
	// EdgeQuery optionally names a companion query run after the primary
	// one; its results arrive as the out-of-band edge list.
	EdgeQuery string `yaml:"edge_query,omitempty"`
	// FixturePath is the records file served by the "file" backend.
	FixturePath string `yaml:"fixture_path,omitempty"`
	// LatencyMs is artificial reply delay for the "file" backend, for
	// demos and race testing.
	LatencyMs int `yaml:"latency_ms,omitempty"`
}

// GraphConfig holds the renderer caps and physics tuning.
type GraphConfig struct {
	MaxVertices int           `yaml:"max_vertices,omitempty"`
	MaxEdges    int           `yaml:"max_edges,omitempty"`
	Physics     layout.Config `yaml:"physics,omitempty"`
	// TickMs is the simulation tick interval in milliseconds.
	TickMs int `yaml:"tick_ms,omitempty"`
}

// TickInterval returns the tick cadence as a duration.
func (g GraphConfig) TickInterval() time.Duration {
	if g.TickMs <= 0 {
		return layout.DefaultTickInterval
	}
	return time.Duration(g.TickMs) * time.Millisecond
}

// ServeConfig holds the host side's listen settings.
type ServeConfig struct {
	Addr string `yaml:"addr,omitempty"` // e.g. ":8080"
	// PageStorePath is the sqlite database holding persisted page state.
	// Empty means the default under the XDG data dir.
	PageStorePath string `yaml:"page_store_path,omitempty"`
}

// UIConfig holds terminal surface preferences.
type UIConfig struct {
	Theme string `yaml:"theme,omitempty"` // "dark" or "light"
	// DefaultView is the initial results view: "json" or "graph".
	DefaultView string `yaml:"default_view,omitempty"`
}

// Config is the top-level configuration for gpane.
type Config struct {
	Backend BackendConfig `yaml:"backend,omitempty"`
	Graph   GraphConfig   `yaml:"graph,omitempty"`
	Serve   ServeConfig   `yaml:"serve,omitempty"`
	UI      UIConfig      `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Kind:        "neo4j",
			URI:         "neo4j://localhost:7687",
			Database:    "neo4j",
			Username:    "neo4j",
			PasswordEnv: "GPANE_BACKEND_PASSWORD",
		},
		Graph: GraphConfig{
			MaxVertices: DefaultMaxVertices,
			MaxEdges:    DefaultMaxEdges,
			Physics:     layout.DefaultConfig(),
			TickMs:      int(layout.DefaultTickInterval / time.Millisecond),
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
		UI: UIConfig{
			Theme:       "dark",
			DefaultView: "graph",
		},
	}
}

// ConfigDir returns the XDG config directory for gpane.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gpane")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gpane")
}

// DataDir returns the XDG data directory for gpane.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "gpane")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "gpane")
}

// StateDir returns the XDG state directory for gpane.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "gpane")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "gpane")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// PageStorePath returns the page store location, honoring the config field
// first and the XDG data dir otherwise.
func (c Config) PageStorePath() string {
	if c.Serve.PageStorePath != "" {
		return expandHome(c.Serve.PageStorePath)
	}
	dir := DataDir()
	if dir == "" {
		return "pagestate.db"
	}
	return filepath.Join(dir, "pagestate.db")
}

// BackendPassword resolves the backend password from the configured
// environment variable.
func (c Config) BackendPassword() string {
	if c.Backend.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.Backend.PasswordEnv)
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return applyEnv(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist. GPANE_* environment
// overrides apply last either way.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Backend.FixturePath = expandHome(cfg.Backend.FixturePath)
	cfg = normalize(cfg)
	return applyEnv(cfg), nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// normalize fills zero-valued fields from defaults so a partially written
// file cannot produce a cap of 0 or a dead simulation.
func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Graph.MaxVertices <= 0 {
		cfg.Graph.MaxVertices = def.Graph.MaxVertices
	}
	if cfg.Graph.MaxEdges <= 0 {
		cfg.Graph.MaxEdges = def.Graph.MaxEdges
	}
	if cfg.Graph.TickMs <= 0 {
		cfg.Graph.TickMs = def.Graph.TickMs
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = def.Backend.Kind
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = def.Serve.Addr
	}
	if cfg.UI.DefaultView != "json" && cfg.UI.DefaultView != "graph" {
		cfg.UI.DefaultView = def.UI.DefaultView
	}
	return cfg
}

// applyEnv layers GPANE_* overrides on top of the loaded config.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("GPANE_BACKEND_URI"); v != "" {
		cfg.Backend.URI = v
	}
	if v := os.Getenv("GPANE_BACKEND_DATABASE"); v != "" {
		cfg.Backend.Database = v
	}
	if v := os.Getenv("GPANE_BACKEND_USERNAME"); v != "" {
		cfg.Backend.Username = v
	}
	if n, ok := envPositiveInt("GPANE_MAX_VERTICES"); ok {
		cfg.Graph.MaxVertices = n
	}
	if n, ok := envPositiveInt("GPANE_MAX_EDGES"); ok {
		cfg.Graph.MaxEdges = n
	}
	if n, ok := envPositiveInt("GPANE_TICK_MS"); ok {
		cfg.Graph.TickMs = n
	}
	if v := os.Getenv("GPANE_SERVE_ADDR"); v != "" {
		cfg.Serve.Addr = v
	}
	return cfg
}

func envPositiveInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
