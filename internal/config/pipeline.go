package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineClassifyTimeout    = "VIGIL_PIPELINE_CLASSIFY_TIMEOUT"
	EnvPipelineScoreTimeout       = "VIGIL_PIPELINE_SCORE_TIMEOUT"
	EnvPipelineMaxRecords         = "VIGIL_PIPELINE_MAX_RECORDS"
	EnvPipelineScoreThreshold     = "VIGIL_PIPELINE_SCORE_THRESHOLD"
	EnvPipelineFilterByThreshold  = "VIGIL_PIPELINE_FILTER_BY_THRESHOLD"
	EnvPipelineConditionFromQuery = "VIGIL_PIPELINE_CONDITION_FROM_QUERY"
)

// PipelineConfig holds the analysis pipeline tuning parameters. The nullable
// booleans distinguish "unset" from an explicit false so overlays and
// environment overrides can disable default-on behavior.
type PipelineConfig struct {
	ClassifyTimeout    string  `toml:"classify_timeout"`
	ScoreTimeout       string  `toml:"score_timeout"`
	MaxRecords         int     `toml:"max_records"`
	ScoreThreshold     float64 `toml:"score_threshold"`
	FilterByThreshold  *bool   `toml:"filter_by_threshold"`
	ConditionFromQuery *bool   `toml:"condition_from_query"`
}

// ClassifyTimeoutDuration returns ClassifyTimeout as a time.Duration.
func (c *PipelineConfig) ClassifyTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClassifyTimeout)
	return d
}

// ScoreTimeoutDuration returns ScoreTimeout as a time.Duration.
// Zero means the scoring call runs without a deadline.
func (c *PipelineConfig) ScoreTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ScoreTimeout)
	return d
}

// FilterEnabled reports whether sub-threshold results are dropped.
func (c *PipelineConfig) FilterEnabled() bool {
	return c.FilterByThreshold == nil || *c.FilterByThreshold
}

// ConditionEnabled reports whether the raw query is forwarded to the
// scoring stage as a named condition.
func (c *PipelineConfig) ConditionEnabled() bool {
	return c.ConditionFromQuery == nil || *c.ConditionFromQuery
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.ClassifyTimeout != "" {
		c.ClassifyTimeout = overlay.ClassifyTimeout
	}
	if overlay.ScoreTimeout != "" {
		c.ScoreTimeout = overlay.ScoreTimeout
	}
	if overlay.MaxRecords != 0 {
		c.MaxRecords = overlay.MaxRecords
	}
	if overlay.ScoreThreshold != 0 {
		c.ScoreThreshold = overlay.ScoreThreshold
	}
	if overlay.FilterByThreshold != nil {
		c.FilterByThreshold = overlay.FilterByThreshold
	}
	if overlay.ConditionFromQuery != nil {
		c.ConditionFromQuery = overlay.ConditionFromQuery
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.ClassifyTimeout == "" {
		c.ClassifyTimeout = "30s"
	}
	if c.ScoreTimeout == "" {
		c.ScoreTimeout = "0s"
	}
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = 0.65
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineClassifyTimeout); v != "" {
		c.ClassifyTimeout = v
	}
	if v := os.Getenv(EnvPipelineScoreTimeout); v != "" {
		c.ScoreTimeout = v
	}
	if v := os.Getenv(EnvPipelineMaxRecords); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRecords = n
		}
	}
	if v := os.Getenv(EnvPipelineScoreThreshold); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.ScoreThreshold = t
		}
	}
	if v := os.Getenv(EnvPipelineFilterByThreshold); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.FilterByThreshold = &b
		}
	}
	if v := os.Getenv(EnvPipelineConditionFromQuery); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ConditionFromQuery = &b
		}
	}
}

func (c *PipelineConfig) validate() error {
	if _, err := time.ParseDuration(c.ClassifyTimeout); err != nil {
		return fmt.Errorf("invalid classify_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ScoreTimeout); err != nil {
		return fmt.Errorf("invalid score_timeout: %w", err)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("invalid max_records: %d", c.MaxRecords)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("invalid score_threshold: %v", c.ScoreThreshold)
	}
	return nil
}
