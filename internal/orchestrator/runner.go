package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/document"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/internal/processors"
	"github.com/dqaudit/dqaudit/internal/sections"
	"github.com/dqaudit/dqaudit/internal/source"
	"github.com/dqaudit/dqaudit/internal/store"
	"github.com/dqaudit/dqaudit/pkg/checkpoint"
	"github.com/dqaudit/dqaudit/pkg/workpool"
)

// Sentinel errors for run orchestration.
var (
	ErrNoCheckpoint    = errors.New("no checkpoint to resume")
	ErrUnknownSection  = errors.New("unknown section")
	ErrPersistFailed   = errors.New("persist document")
	ErrBudgetExhausted = errors.New("time budget exhausted")
)

// progress tracks per-type ingest state for checkpointing.
type progress struct {
	cursors   map[string]string
	completed map[string]bool
}

func newProgress() *progress {
	return &progress{
		cursors:   make(map[string]string),
		completed: make(map[string]bool),
	}
}

func progressFromShard(sp checkpoint.ShardProgress) *progress {
	p := newProgress()

	for t, cursor := range sp.Cursors {
		p.cursors[t] = cursor
	}

	for _, t := range sp.CompletedTypes {
		p.completed[t] = true
	}

	return p
}

func (p *progress) toShard(shardID string) checkpoint.ShardProgress {
	sp := checkpoint.ShardProgress{
		ShardID: shardID,
		Cursors: make(map[string]string, len(p.cursors)),
	}

	for t, cursor := range p.cursors {
		sp.Cursors[t] = cursor
	}

	for t := range p.completed {
		sp.CompletedTypes = append(sp.CompletedTypes, t)
	}

	return sp
}

// Run executes a full or selective recompute.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	targets, err := r.targetSections(opts.Sections)
	if err != nil {
		return Result{Status: StatusFailure}, err
	}

	result := Result{RunID: uuid.NewString()}

	var cached *document.Document

	selective := len(opts.Sections) > 0
	if selective {
		cached, err = r.deps.Store.Get(ctx, opts.DatasetID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				result.Status = StatusFailure

				return result, fmt.Errorf("load cached document: %w", err)
			}

			// Cache miss degrades to a full recompute, not a failure.
			selective = false
			cached = nil
			targets = r.secs.Names()
			result.Warnings = append(result.Warnings,
				"no cached document for dataset "+opts.DatasetID+", running full recompute")
			r.deps.Logger.WarnContext(ctx, "cached document missing, degrading to full recompute",
				"dataset", opts.DatasetID)
		}
	}

	return r.execute(ctx, &opts, result, accumulator.New(), newProgress(), targets, selective, cached, time.Now())
}

// Resume continues a checkpointed ingest for this dataset's shard and, when
// ingest completes inside the budget, computes and persists the document.
func (r *Runner) Resume(ctx context.Context, opts Options) (Result, error) {
	if r.deps.Ckpt == nil || !r.deps.Ckpt.Exists() {
		return Result{Status: StatusFailure}, fmt.Errorf("%w: dataset %s", ErrNoCheckpoint, opts.DatasetID)
	}

	targets := r.secs.Names()

	validateErr := r.deps.Ckpt.Validate(opts.DatasetID, typeNames(r.secs.EntityTypesFor(targets)))
	if validateErr != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("validate checkpoint: %w", validateErr)
	}

	acc := accumulator.New()

	loadErr := r.deps.Ckpt.LoadShard(opts.shardID(), func(s *accumulator.Snapshot) {
		acc = accumulator.Restore(s)
	})
	if loadErr != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("load checkpoint: %w", loadErr)
	}

	meta, metaErr := r.deps.Ckpt.LoadMetadata()
	if metaErr != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("load checkpoint metadata: %w", metaErr)
	}

	prog := progressFromShard(meta.Shards[opts.shardID()])
	result := Result{RunID: uuid.NewString()}

	r.deps.Logger.InfoContext(ctx, "resuming from checkpoint",
		"dataset", opts.DatasetID, "shard", opts.shardID())

	return r.execute(ctx, &opts, result, acc, prog, targets, false, nil, time.Now())
}

// Finalize merges every checkpointed shard of the dataset into one
// accumulator, computes all sections, and persists the document. The
// checkpoint is cleared on success.
func (r *Runner) Finalize(ctx context.Context, opts Options) (Result, error) {
	if r.deps.Ckpt == nil || !r.deps.Ckpt.Exists() {
		return Result{Status: StatusFailure}, fmt.Errorf("%w: dataset %s", ErrNoCheckpoint, opts.DatasetID)
	}

	shardIDs, err := r.deps.Ckpt.ShardIDs()
	if err != nil {
		return Result{Status: StatusFailure}, fmt.Errorf("list shards: %w", err)
	}

	acc := accumulator.New()

	for _, shardID := range shardIDs {
		var shardAcc *accumulator.Accumulator

		loadErr := r.deps.Ckpt.LoadShard(shardID, func(s *accumulator.Snapshot) {
			shardAcc = accumulator.Restore(s)
		})
		if loadErr != nil {
			return Result{Status: StatusFailure}, fmt.Errorf("load shard: %w", loadErr)
		}

		mergeErr := acc.MergeBatch(shardID, shardAcc)
		if mergeErr != nil {
			return Result{Status: StatusFailure}, fmt.Errorf("merge shard %s: %w", shardID, mergeErr)
		}
	}

	r.deps.Logger.InfoContext(ctx, "merged shards", "dataset", opts.DatasetID, "shards", len(shardIDs))

	result := Result{RunID: uuid.NewString()}

	result, err = r.finish(ctx, &opts, result, acc, r.secs.Names(), false, nil, time.Now())
	if err != nil {
		return result, err
	}

	clearErr := r.deps.Ckpt.Clear()
	if clearErr != nil {
		result.Warnings = append(result.Warnings, "clear checkpoint: "+clearErr.Error())
	}

	return result, nil
}

// execute ingests the needed entity types and finishes the run. A
// time-budget expiry checkpoints progress and returns cleanly.
func (r *Runner) execute(
	ctx context.Context,
	opts *Options,
	result Result,
	acc *accumulator.Accumulator,
	prog *progress,
	targets []string,
	selective bool,
	cached *document.Document,
	start time.Time,
) (Result, error) {
	entityTypes := r.secs.EntityTypesFor(targets)

	ingestErr := r.ingest(ctx, opts, acc, prog, entityTypes, start)
	if ingestErr != nil {
		if errors.Is(ingestErr, ErrBudgetExhausted) {
			return r.checkpointAndExit(ctx, opts, result, acc, prog, entityTypes)
		}

		result.Status = StatusFailure

		return result, ingestErr
	}

	r.fetchHistories(ctx, opts, acc, targets, &result)

	return r.finish(ctx, opts, result, acc, targets, selective, cached, start)
}

func (r *Runner) checkpointAndExit(
	ctx context.Context,
	opts *Options,
	result Result,
	acc *accumulator.Accumulator,
	prog *progress,
	entityTypes []entity.Type,
) (Result, error) {
	if r.deps.Ckpt == nil {
		result.Status = StatusFailure

		return result, fmt.Errorf("%w and checkpointing is disabled", ErrBudgetExhausted)
	}

	saveErr := r.deps.Ckpt.SaveShard(
		prog.toShard(opts.shardID()),
		typeNames(entityTypes),
		acc.Snapshot,
	)
	if saveErr != nil {
		result.Status = StatusFailure

		return result, fmt.Errorf("checkpoint progress: %w", saveErr)
	}

	r.deps.Logger.InfoContext(ctx, "time budget exhausted, progress checkpointed",
		"dataset", opts.DatasetID, "shard", opts.shardID(), "budget", opts.TimeBudget)

	result.Status = StatusPartial
	result.Checkpointed = true
	result.Warnings = append(result.Warnings,
		"time budget exhausted, progress checkpointed; resume to continue")

	return result, nil
}

// ingest pages every entity type through its processor.
func (r *Runner) ingest(
	ctx context.Context,
	opts *Options,
	acc *accumulator.Accumulator,
	prog *progress,
	entityTypes []entity.Type,
	start time.Time,
) error {
	procs := r.procRegistry(opts)
	views := opts.views()

	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = start.Add(opts.TimeBudget)
	}

	for _, t := range entityTypes {
		if prog.completed[string(t)] {
			continue
		}

		err := r.ingestType(ctx, opts, acc, prog, procs, views.For(t), t, deadline)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) ingestType(
	ctx context.Context,
	opts *Options,
	acc *accumulator.Accumulator,
	prog *progress,
	procs *processors.Registry,
	view source.View,
	t entity.Type,
	deadline time.Time,
) error {
	ctx, span := r.deps.Tracer.Start(ctx, "audit.ingest."+string(t))
	defer span.End()

	proc, ok := procs.For(t)
	if !ok {
		return fmt.Errorf("%w: no processor for %s", source.ErrUnknownType, t)
	}

	limit := opts.Limits[t]
	if view.Limit > 0 && (limit == 0 || view.Limit < limit) {
		limit = view.Limit
	}

	it, err := r.deps.Source.Pages(ctx, t, view.PageSize, source.Filter{
		Cursor:    prog.cursors[string(t)],
		DatasetID: view.DatasetID,
	})
	if err != nil {
		return fmt.Errorf("open page stream for %s: %w", t, err)
	}

	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrBudgetExhausted
		}

		batch, done, nextErr := it.Next(ctx)
		if nextErr != nil {
			return fmt.Errorf("fetch %s page: %w", t, nextErr)
		}

		if done {
			break
		}

		pageStart := time.Now()
		before := acc.Counts(t)

		proc.Process(batch, acc)

		after := acc.Counts(t)
		r.deps.Metrics.RecordPage(ctx, string(t),
			after.Unique-before.Unique,
			after.Duplicates-before.Duplicates,
			after.Skipped-before.Skipped,
			time.Since(pageStart))

		// An empty cursor means the stream is exhausted; record completion
		// instead so a checkpoint taken now does not restart the type.
		if batch.NextCursor == "" {
			break
		}

		prog.cursors[string(t)] = batch.NextCursor

		if limit > 0 && after.Total >= limit {
			r.deps.Logger.InfoContext(ctx, "instance limit reached",
				"type", t, "limit", limit, "total", after.Total)

			break
		}
	}

	prog.completed[string(t)] = true
	delete(prog.cursors, string(t))

	return nil
}

// fetchHistories pulls per-work-order execution histories on a bounded
// worker pool and folds the derived records into the accumulator. Fetch
// failures degrade the maintenance metrics, never the run.
func (r *Runner) fetchHistories(
	ctx context.Context,
	opts *Options,
	acc *accumulator.Accumulator,
	targets []string,
	result *Result,
) {
	if r.deps.History == nil || !containsString(targets, sections.NameMaintenance) {
		return
	}

	ids := acc.IDs(entity.TypeMaintenance)
	if len(ids) == 0 {
		return
	}

	ctx, span := r.deps.Tracer.Start(ctx, "audit.history.fetch")
	defer span.End()

	summary, err := workpool.Run(ctx, ids, opts.HistoryWorkers,
		func(ctx context.Context, workOrderID string) ([]source.ExecutionRecord, error) {
			records, fetchErr := r.deps.History.ExecutionHistory(ctx, workOrderID)
			if fetchErr != nil {
				return nil, fmt.Errorf("fetch history for %s: %w", workOrderID, fetchErr)
			}

			return records, nil
		},
		func(records []source.ExecutionRecord) error {
			acc.AddCounter(accumulator.KeyMaintExecTotal, int64(len(records)))

			for _, rec := range records {
				status := rec.Status
				if status == "" {
					status = "unknown"
				}

				acc.IncHist(accumulator.KeyMaintExecStatus, status)
			}

			return nil
		})
	if err != nil {
		// Pool-level failure (cancellation); records folded so far stay.
		result.Warnings = append(result.Warnings, "execution-history fetch aborted: "+err.Error())
	}

	if summary.Failed > 0 {
		acc.AddCounter(accumulator.KeyMaintExecFailedFetch, int64(summary.Failed))
		r.deps.Logger.WarnContext(ctx, "execution-history fetches failed",
			"failed", summary.Failed, "total", summary.Units)
	}

	r.deps.Metrics.RecordHistoryFetches(ctx,
		int64(summary.Units-summary.Failed), int64(summary.Failed))
}

// finish computes sections, assembles the document, validates, and persists.
func (r *Runner) finish(
	ctx context.Context,
	opts *Options,
	result Result,
	acc *accumulator.Accumulator,
	targets []string,
	selective bool,
	cached *document.Document,
	start time.Time,
) (Result, error) {
	fresh := document.New(result.RunID)
	fresh.Metadata.ComputedAt = time.Now().UTC()

	for t, counts := range acc.AllCounts() {
		fresh.Metadata.InstanceCounts[string(t)] = document.InstanceCount{
			Total:      counts.Total,
			Unique:     counts.Unique,
			Duplicates: counts.Duplicates,
			Skipped:    counts.Skipped,
		}
	}

	if opts.Config != nil {
		fresh.Metadata.Config = opts.Config
	}

	result.FailedSections = r.computeSections(ctx, acc, targets, fresh)

	final := fresh
	if selective && cached != nil {
		final = document.MergeSelective(cached, fresh, targets, r.secs.TypeMap(targets))
	}

	final.Metadata.ExecutionTimeSeconds = time.Since(start).Seconds()

	validateErr := document.Validate(final)
	if validateErr != nil {
		result.Status = StatusFailure

		return result, fmt.Errorf("validate document: %w", validateErr)
	}

	putErr := r.deps.Store.Put(ctx, opts.DatasetID, final)
	if putErr != nil {
		// The store replaces atomically, so the previous good document
		// survives this failure.
		result.Status = StatusFailure

		return result, fmt.Errorf("%w: %w", ErrPersistFailed, putErr)
	}

	result.Document = final
	result.Status = StatusSuccess

	if len(result.FailedSections) > 0 || len(result.Warnings) > 0 {
		result.Status = StatusPartial
	}

	r.deps.Logger.InfoContext(ctx, "document persisted",
		"dataset", opts.DatasetID, "run", result.RunID, "status", string(result.Status))

	return result, nil
}

// computeSections runs each target section, isolating failures: a failed
// section contributes "<name>_has_data": false and its error message.
func (r *Runner) computeSections(
	ctx context.Context,
	acc *accumulator.Accumulator,
	targets []string,
	doc *document.Document,
) []string {
	var failed []string

	for _, name := range targets {
		section, ok := r.secs.Get(name)
		if !ok {
			continue
		}

		_, span := r.deps.Tracer.Start(ctx, "audit.section."+name)
		sectionStart := time.Now()

		metrics, err := section.Compute(acc)

		span.End()
		r.deps.Metrics.RecordSection(ctx, name, err != nil, time.Since(sectionStart))

		if err != nil {
			r.deps.Logger.ErrorContext(ctx, "section computation failed",
				"section", name, "error", err)

			doc.Sections[name] = document.SectionMetrics{
				name + "_has_data": false,
				"error":            err.Error(),
			}
			failed = append(failed, name)

			continue
		}

		if _, present := metrics[name+"_has_data"]; !present {
			metrics[name+"_has_data"] = true
		}

		doc.Sections[name] = metrics
	}

	return failed
}

func (r *Runner) targetSections(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return r.secs.Names(), nil
	}

	for _, name := range requested {
		if _, ok := r.secs.Get(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, name)
		}
	}

	return append([]string{}, requested...), nil
}

func typeNames(types []entity.Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}

	return out
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}

	return false
}
