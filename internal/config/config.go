package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories a run reads from and writes to.
type Paths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Inputs names the three registry exports inside InputDir.
type Inputs struct {
	ClientFile     string `toml:"client_file"`
	EnrollmentFile string `toml:"enrollment_file"`
	ExitFile       string `toml:"exit_file"`
}

// Matching contains the duplicate detection thresholds.
type Matching struct {
	SentinelDOB   string   `toml:"sentinel_dob"`
	InvalidSSNs   []string `toml:"invalid_ssns"`
	AdultAge      int      `toml:"adult_age"`
	TwinSSNPolicy string   `toml:"twin_ssn_policy"`
	StrictRule    bool     `toml:"strict_rule"`
	LenientRule   bool     `toml:"lenient_rule"`
}

// Output contains configuration for the remapped datasets and extracts.
type Output struct {
	Suffix        string `toml:"suffix"`
	NewIDColumn   string `toml:"new_id_column"`
	Workers       int    `toml:"workers"`
	TwinExtract   bool   `toml:"twin_extract"`
	GroupExtracts bool   `toml:"group_extracts"`
	ResultsDB     bool   `toml:"results_db"`
	ResultsDBPath string `toml:"results_db_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clientdedup.
//
// Configuration sections:
//   - Paths: input, output and log directories
//   - Inputs: registry export file names
//   - Matching: SSN placeholders, sentinel DOB, twin filter and rule toggles
//   - Output: remap suffix, worker count and optional extracts
//   - Logging: log format, level, and run log retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Inputs   Inputs   `toml:"inputs"`
	Matching Matching `toml:"matching"`
	Output   Output   `toml:"output"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Output.ResultsDB {
		if err := os.MkdirAll(filepath.Dir(c.Output.ResultsDBPath), 0o755); err != nil {
			return fmt.Errorf("create results database directory: %w", err)
		}
	}
	return nil
}

// ClientPath is the absolute path of the client registry export.
func (c *Config) ClientPath() string {
	return filepath.Join(c.Paths.InputDir, c.Inputs.ClientFile)
}

// EnrollmentPath is the absolute path of the enrollment export.
func (c *Config) EnrollmentPath() string {
	return filepath.Join(c.Paths.InputDir, c.Inputs.EnrollmentFile)
}

// ExitPath is the absolute path of the exit export.
func (c *Config) ExitPath() string {
	return filepath.Join(c.Paths.InputDir, c.Inputs.ExitFile)
}

// OutputPath places name inside the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Paths.OutputDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SetInputDir overrides the input directory, re-deriving dependent paths.
func (c *Config) SetInputDir(dir string) error {
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("input dir: %w", err)
	}
	c.Paths.InputDir = expanded
	return nil
}

// SetOutputDir overrides the output directory. A results database path that
// still points at the previous output directory follows it.
func (c *Config) SetOutputDir(dir string) error {
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if c.Output.ResultsDBPath == filepath.Join(c.Paths.OutputDir, defaultResultsDBName) {
		c.Output.ResultsDBPath = filepath.Join(expanded, defaultResultsDBName)
	}
	c.Paths.OutputDir = expanded
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
