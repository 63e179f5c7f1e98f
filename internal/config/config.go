package config

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Config is the top-level configuration struct for dqaudit.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	DatasetID     string              `mapstructure:"dataset_id"`
	Source        SourceConfig        `mapstructure:"source"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Store         StoreConfig         `mapstructure:"store"`
	Checkpoint    CheckpointConfig    `mapstructure:"checkpoint"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SourceConfig selects and tunes the data source.
type SourceConfig struct {
	// Kind is the source backend: "jsonl" or "memory".
	Kind string `mapstructure:"kind"`
	// Dir is the data directory for the jsonl source.
	Dir string `mapstructure:"dir"`
	// ViewsFile optionally points at a YAML view descriptor overriding
	// per-type paging.
	ViewsFile string `mapstructure:"views_file"`
}

// IngestConfig holds paging and aggregation knobs.
type IngestConfig struct {
	PageSize int `mapstructure:"page_size"`
	// GapThresholdMillis is the time-series gap threshold in milliseconds.
	GapThresholdMillis float64 `mapstructure:"gap_threshold_millis"`
	// HistoryWorkers bounds concurrent execution-history fetches.
	HistoryWorkers int `mapstructure:"history_workers"`
	// TimeBudget caps one execution; zero means unbounded.
	TimeBudget time.Duration `mapstructure:"time_budget"`
	// Limits soft-caps ingested instances per entity type; 0 = unlimited.
	Limits map[string]int64 `mapstructure:"limits"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// CheckpointConfig holds checkpoint settings.
type CheckpointConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	Resume    bool   `mapstructure:"resume"`
	ClearPrev bool   `mapstructure:"clear_prev"`
}

// ObservabilityConfig holds logging and telemetry settings.
type ObservabilityConfig struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
	// OTLPEndpoint enables OTLP export when non-empty.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Default configuration values.
const (
	DefaultSourceKind         = "jsonl"
	DefaultPageSize           = 1000
	DefaultGapThresholdMillis = 3_600_000 // 1 hour.
	DefaultHistoryWorkers     = 8
	DefaultStoreBackend       = "file"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// DefaultDataDir returns the default document store directory under the
// XDG data home.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "dqaudit", "documents")
}

// Sentinel errors for configuration validation.
var (
	// ErrMissingDatasetID indicates no dataset was selected.
	ErrMissingDatasetID = errors.New("dataset_id must be set")
	// ErrInvalidPageSize indicates the page size is not positive.
	ErrInvalidPageSize = errors.New("ingest.page_size must be positive")
	// ErrInvalidGapThreshold indicates the gap threshold is not positive.
	ErrInvalidGapThreshold = errors.New("ingest.gap_threshold_millis must be positive")
	// ErrInvalidHistoryWorkers indicates the worker count is not positive.
	ErrInvalidHistoryWorkers = errors.New("ingest.history_workers must be positive")
	// ErrInvalidTimeBudget indicates the time budget is negative.
	ErrInvalidTimeBudget = errors.New("ingest.time_budget must be non-negative")
	// ErrInvalidLimit indicates a per-type instance limit is negative.
	ErrInvalidLimit = errors.New("ingest.limits values must be non-negative")
	// ErrUnknownSourceKind indicates an unsupported source backend.
	ErrUnknownSourceKind = errors.New("source.kind must be jsonl or memory")
	// ErrUnknownStoreBackend indicates an unsupported store backend.
	ErrUnknownStoreBackend = errors.New("store.backend must be file or sqlite")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.DatasetID == "" {
		return ErrMissingDatasetID
	}

	ingestErr := c.validateIngest()
	if ingestErr != nil {
		return ingestErr
	}

	switch c.Source.Kind {
	case "jsonl", "memory":
	default:
		return ErrUnknownSourceKind
	}

	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return ErrUnknownStoreBackend
	}

	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.PageSize <= 0 {
		return ErrInvalidPageSize
	}

	if c.Ingest.GapThresholdMillis <= 0 {
		return ErrInvalidGapThreshold
	}

	if c.Ingest.HistoryWorkers <= 0 {
		return ErrInvalidHistoryWorkers
	}

	if c.Ingest.TimeBudget < 0 {
		return ErrInvalidTimeBudget
	}

	for _, limit := range c.Ingest.Limits {
		if limit < 0 {
			return ErrInvalidLimit
		}
	}

	return nil
}

// DocumentConfig returns the settings recorded in the output document's
// metadata, so a reader of the document can see what produced it.
func (c *Config) DocumentConfig() map[string]any {
	return map[string]any{
		"dataset_id":           c.DatasetID,
		"page_size":            c.Ingest.PageSize,
		"gap_threshold_millis": c.Ingest.GapThresholdMillis,
		"history_workers":      c.Ingest.HistoryWorkers,
		"time_budget":          c.Ingest.TimeBudget.String(),
		"store_backend":        c.Store.Backend,
	}
}
