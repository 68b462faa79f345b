package config

import (
	"errors"
	"fmt"
	"strings"

	"clientdedup/internal/record"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if _, err := record.ParseDate(c.Matching.SentinelDOB); err != nil {
		return fmt.Errorf("matching.sentinel_dob: %w", err)
	}
	if err := ensurePositiveMap(map[string]int{
		"matching.adult_age": c.Matching.AdultAge,
	}); err != nil {
		return err
	}
	switch c.Matching.TwinSSNPolicy {
	case "differ", "match", "ignore":
	default:
		return fmt.Errorf("matching.twin_ssn_policy must be one of differ, match, ignore (got %q)", c.Matching.TwinSSNPolicy)
	}
	if !c.Matching.StrictRule && !c.Matching.LenientRule {
		return errors.New("matching.strict_rule and matching.lenient_rule cannot both be disabled")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if err := ensurePositiveMap(map[string]int{
		"output.workers": c.Output.Workers,
	}); err != nil {
		return err
	}
	if strings.ContainsAny(c.Output.Suffix, `/\`) {
		return errors.New("output.suffix must not contain path separators")
	}
	if c.Output.ResultsDB && strings.TrimSpace(c.Output.ResultsDBPath) == "" {
		return errors.New("output.results_db_path must be set when output.results_db is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
