package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/pflag"
	"github.com/wesm/forktree/internal/db"
	"github.com/wesm/forktree/internal/parser"
)

// ErrInputNotFound is returned when a project path is missing or
// cannot be resolved to a Claude Code project directory.
var ErrInputNotFound = errors.New("project path not found")

const (
	defaultResumeCommand = "claude --resume"
	configFile           = "config.json"
)

// Config holds all application configuration.
type Config struct {
	ClaudeProjectsDir string `json:"claude_projects_dir"`
	DataDir           string `json:"-"`
	DBPath            string `json:"-"`
	ResumeCommand     string `json:"resume_command"`
	NoCache           bool   `json:"no_cache"`
	Verbose           bool   `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".forktree")
	return Config{
		ClaudeProjectsDir: filepath.Join(home, ".claude", "projects"),
		DataDir:           dataDir,
		DBPath:            filepath.Join(dataDir, db.DefaultFile),
		ResumeCommand:     defaultResumeCommand,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir decides where the config file lives, so it
	// is resolved from env before the file is read.
	if v := os.Getenv("FORKTREE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	applyFlags(&cfg, fs)
	cfg.DBPath = filepath.Join(cfg.DataDir, db.DefaultFile)
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, configFile)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		ClaudeProjectsDir string `json:"claude_projects_dir"`
		ResumeCommand     string `json:"resume_command"`
		NoCache           *bool  `json:"no_cache"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.ClaudeProjectsDir != "" {
		c.ClaudeProjectsDir = expandHome(file.ClaudeProjectsDir)
	}
	if file.ResumeCommand != "" {
		c.ResumeCommand = file.ResumeCommand
	}
	if file.NoCache != nil {
		c.NoCache = *file.NoCache
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("CLAUDE_PROJECTS_DIR"); v != "" {
		c.ClaudeProjectsDir = v
	}
	if v := os.Getenv("FORKTREE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FORKTREE_RESUME_COMMAND"); v != "" {
		c.ResumeCommand = v
	}
}

// RegisterFlags registers the flags that map onto Config.
// The caller must parse fs before passing it to Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(
		"projects-dir", "",
		"Claude Code projects directory",
	)
	fs.Bool("no-cache", false, "Parse every transcript, ignoring the cache")
	fs.BoolP("verbose", "v", false, "Enable debug logging")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "projects-dir":
			cfg.ClaudeProjectsDir = f.Value.String()
		case "no-cache":
			cfg.NoCache = f.Value.String() == "true"
		case "verbose":
			cfg.Verbose = f.Value.String() == "true"
		}
	})
}

// SaveResumeCommand persists the resume command to the config
// file, keeping any other keys already there.
func (c *Config) SaveResumeCommand(command string) error {
	if _, err := shlex.Split(command); err != nil {
		return fmt.Errorf("invalid resume command: %w", err)
	}
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}

	existing["resume_command"] = command
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	c.ResumeCommand = command
	return nil
}

// ResumeArgs splits the resume command with shell quoting rules
// and appends sessionID.
func (c *Config) ResumeArgs(sessionID string) ([]string, error) {
	command := c.ResumeCommand
	if strings.TrimSpace(command) == "" {
		command = defaultResumeCommand
	}
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing resume command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("resume command is empty")
	}
	return append(args, sessionID), nil
}

// DetectProjectPath returns the Claude Code project directory
// for the working directory cwd.
func DetectProjectPath(projectsDir, cwd string) (string, error) {
	dir := filepath.Join(projectsDir, parser.EncodeProjectDir(cwd))
	if !isDir(dir) {
		return "", fmt.Errorf(
			"%w: no Claude Code project for %s (looked in %s)",
			ErrInputNotFound, cwd, dir,
		)
	}
	return dir, nil
}

// ResolveProjectPath maps the optional command-line argument to a
// project directory. An empty arg detects the project from cwd.
// Otherwise arg may name a project directory holding transcripts,
// or a source directory whose project is looked up under
// projectsDir.
func ResolveProjectPath(arg, projectsDir, cwd string) (string, error) {
	if arg == "" {
		return DetectProjectPath(projectsDir, cwd)
	}

	path := expandHome(arg)
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	path = filepath.Clean(path)

	if parser.HasSessionFiles(path) {
		return path, nil
	}
	if isDir(path) {
		if dir, err := DetectProjectPath(projectsDir, path); err == nil {
			return dir, nil
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInputNotFound, arg)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
