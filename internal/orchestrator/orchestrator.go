// Package orchestrator drives a run end to end: paginated ingest through
// the page processors, optional execution-history fetches, section
// computation, document assembly, and persistence. It owns the run modes
// (full, selective, resume, finalize) and the time-budget checkpointing
// that lets a long audit span several bounded executions.
package orchestrator

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/internal/observability"
	"github.com/dqaudit/dqaudit/internal/processors"
	"github.com/dqaudit/dqaudit/internal/sections"
	"github.com/dqaudit/dqaudit/internal/source"
	"github.com/dqaudit/dqaudit/internal/store"
	"github.com/dqaudit/dqaudit/pkg/checkpoint"
)

// Status summarizes how a run ended.
type Status string

const (
	// StatusSuccess means every requested section was computed and persisted.
	StatusSuccess Status = "success"
	// StatusPartial means the run produced output with degradations: failed
	// sections, a cache-miss fallback, or a time-budget checkpoint.
	StatusPartial Status = "partial"
	// StatusFailure means no document was persisted.
	StatusFailure Status = "failure"
)

// DefaultShardID names the shard used by single-shard runs.
const DefaultShardID = "00"

// Deps wires the runner's collaborators. Source and Store are required;
// the rest degrade to no-ops when nil.
type Deps struct {
	Source  source.DataSource
	History source.HistoryFetcher
	Store   store.Store
	Ckpt    *checkpoint.Manager[accumulator.Snapshot]
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.IngestMetrics
}

// Options tunes one run.
type Options struct {
	DatasetID string
	// Sections, when non-empty, selects a selective recompute of exactly
	// those sections. Empty means full recompute.
	Sections []string
	// Views supplies per-type paging; zero value falls back to defaults.
	Views source.Views
	// Limits soft-caps ingested instances per type; 0 = unlimited.
	Limits map[entity.Type]int64
	// TimeBudget caps this execution; 0 = unbounded. When the budget runs
	// out between pages the accumulator is checkpointed and the run exits
	// cleanly without a document.
	TimeBudget time.Duration
	// ShardID labels this execution's checkpoint shard.
	ShardID string
	// HistoryWorkers bounds concurrent execution-history fetches.
	HistoryWorkers int
	// GapThreshold is the time-series gap threshold in the source's
	// timestamp unit.
	GapThreshold int64
	// Config is recorded in the document metadata.
	Config map[string]any
}

// Result is the outcome of one run.
type Result struct {
	Status   Status
	RunID    string
	Document *document.Document
	Warnings []string
	// Checkpointed is true when the time budget expired and progress was
	// serialized instead of computing a document.
	Checkpointed bool
	// FailedSections lists sections whose computation failed.
	FailedSections []string
}

// Runner executes audit runs.
type Runner struct {
	deps Deps
	secs *sections.Registry
}

// NewRunner creates a runner with the default section registry. Page
// processors are built per run because their tuning is an Options concern.
func NewRunner(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer("dqaudit")
	}

	return &Runner{
		deps: deps,
		secs: sections.DefaultRegistry(),
	}
}

func (r *Runner) procRegistry(opts *Options) *processors.Registry {
	return processors.DefaultRegistry(processors.Config{GapThreshold: opts.GapThreshold})
}

// SectionNames returns the names of all registered sections.
func (r *Runner) SectionNames() []string {
	return r.secs.Names()
}

// RegisterSection adds or replaces a section in this runner's registry.
func (r *Runner) RegisterSection(s sections.Section) {
	r.secs.Register(s)
}

func (o *Options) shardID() string {
	if o.ShardID == "" {
		return DefaultShardID
	}

	return o.ShardID
}

func (o *Options) views() source.Views {
	if o.Views == nil {
		return source.DefaultViews()
	}

	return o.Views
}
