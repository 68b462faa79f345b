package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeInputs()
	c.normalizeMatching()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envInputDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.InputDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envOutputDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeInputs() {
	c.Inputs.ClientFile = strings.TrimSpace(c.Inputs.ClientFile)
	if c.Inputs.ClientFile == "" {
		c.Inputs.ClientFile = defaultClientFile
	}
	c.Inputs.EnrollmentFile = strings.TrimSpace(c.Inputs.EnrollmentFile)
	if c.Inputs.EnrollmentFile == "" {
		c.Inputs.EnrollmentFile = defaultEnrollmentFile
	}
	c.Inputs.ExitFile = strings.TrimSpace(c.Inputs.ExitFile)
	if c.Inputs.ExitFile == "" {
		c.Inputs.ExitFile = defaultExitFile
	}
}

func (c *Config) normalizeMatching() {
	c.Matching.SentinelDOB = strings.TrimSpace(c.Matching.SentinelDOB)
	if c.Matching.SentinelDOB == "" {
		c.Matching.SentinelDOB = defaultSentinelDOB
	}
	ssns := make([]string, 0, len(c.Matching.InvalidSSNs))
	seen := make(map[string]struct{}, len(c.Matching.InvalidSSNs))
	for _, ssn := range c.Matching.InvalidSSNs {
		normalized := strings.TrimSpace(ssn)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		ssns = append(ssns, normalized)
	}
	c.Matching.InvalidSSNs = ssns
	if c.Matching.AdultAge == 0 {
		c.Matching.AdultAge = defaultAdultAge
	}
	c.Matching.TwinSSNPolicy = strings.ToLower(strings.TrimSpace(c.Matching.TwinSSNPolicy))
	if c.Matching.TwinSSNPolicy == "" {
		c.Matching.TwinSSNPolicy = defaultTwinSSNPolicy
	}
}

func (c *Config) normalizeOutput() error {
	c.Output.Suffix = strings.TrimSpace(c.Output.Suffix)
	if c.Output.Suffix == "" {
		c.Output.Suffix = defaultOutputSuffix
	}
	c.Output.NewIDColumn = strings.TrimSpace(c.Output.NewIDColumn)
	if c.Output.NewIDColumn == "" {
		c.Output.NewIDColumn = defaultNewIDColumn
	}
	if c.Output.Workers == 0 {
		c.Output.Workers = defaultWorkers
	}
	if strings.TrimSpace(c.Output.ResultsDBPath) == "" {
		c.Output.ResultsDBPath = filepath.Join(c.Paths.OutputDir, defaultResultsDBName)
		return nil
	}
	var err error
	if c.Output.ResultsDBPath, err = expandPath(c.Output.ResultsDBPath); err != nil {
		return fmt.Errorf("output.results_db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
