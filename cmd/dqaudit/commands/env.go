package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dqaudit/dqaudit/internal/accumulator"
	"github.com/dqaudit/dqaudit/internal/config"
	"github.com/dqaudit/dqaudit/internal/entity"
	"github.com/dqaudit/dqaudit/internal/observability"
	"github.com/dqaudit/dqaudit/internal/orchestrator"
	"github.com/dqaudit/dqaudit/internal/source"
	"github.com/dqaudit/dqaudit/internal/store"
	"github.com/dqaudit/dqaudit/pkg/checkpoint"
	"github.com/dqaudit/dqaudit/pkg/persist"
	"github.com/dqaudit/dqaudit/pkg/version"
)

// Sentinel errors for CLI argument handling.
var (
	// ErrBadLimitSpec indicates a malformed --limit value.
	ErrBadLimitSpec = errors.New("limit must be <type>=<count>")
	// ErrUnknownEntityType indicates a --limit for a type the engine
	// does not ingest.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

const shutdownTimeout = 5 * time.Second

// runtimeEnv bundles everything a command needs to execute a run: the
// resolved configuration, the wired orchestrator dependencies, and the
// telemetry providers that must be flushed on exit.
type runtimeEnv struct {
	cfg       *config.Config
	deps      orchestrator.Deps
	providers observability.Providers
	diag      *observability.DiagnosticsServer
}

// buildEnv resolves cfg into live collaborators. The caller must invoke
// close() when done.
func buildEnv(cfg *config.Config, diagAddr string) (*runtimeEnv, error) {
	providers, err := observability.Init(observabilityConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	env := &runtimeEnv{cfg: cfg, providers: providers}

	docStore, err := buildStore(cfg)
	if err != nil {
		env.close()

		return nil, err
	}

	metrics, err := observability.NewIngestMetrics(providers.Meter)
	if err != nil {
		env.close()

		return nil, fmt.Errorf("create ingest metrics: %w", err)
	}

	env.deps = orchestrator.Deps{
		Source:  buildSource(cfg),
		History: buildHistory(cfg),
		Store:   docStore,
		Ckpt:    buildCheckpoint(cfg),
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	}

	if diagAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(diagAddr)
		if diagErr != nil {
			env.close()

			return nil, diagErr
		}

		env.diag = diag
		providers.Logger.Info("diagnostics server listening", slog.String("addr", diag.Addr()))
	}

	return env, nil
}

func (e *runtimeEnv) close() {
	if e.diag != nil {
		closeErr := e.diag.Close()
		if closeErr != nil {
			slog.Warn("close diagnostics server", "error", closeErr)
		}
	}

	if e.deps.Store != nil {
		closeErr := e.deps.Store.Close()
		if closeErr != nil {
			slog.Warn("close document store", "error", closeErr)
		}
	}

	if e.providers.Shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := e.providers.Shutdown(ctx)
		if shutdownErr != nil {
			slog.Warn("flush telemetry", "error", shutdownErr)
		}
	}
}

func observabilityConfig(cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = true
	obsCfg.LogLevel = observability.ParseLevel(cfg.Observability.LogLevel)
	obsCfg.LogJSON = cfg.Observability.LogFormat == "json"

	return obsCfg
}

func buildSource(cfg *config.Config) source.DataSource {
	if cfg.Source.Kind == "memory" {
		return source.NewMemorySource()
	}

	return source.NewJSONLSource(cfg.Source.Dir)
}

func buildHistory(cfg *config.Config) source.HistoryFetcher {
	if cfg.Source.Kind != "jsonl" {
		return nil
	}

	return source.NewJSONLHistory(cfg.Source.Dir)
}

func buildStore(cfg *config.Config) (store.Store, error) {
	dir := cfg.Store.Dir
	if dir == "" {
		dir = config.DefaultDataDir()
	}

	if cfg.Store.Backend == "sqlite" {
		return store.OpenSQLiteStore(dir)
	}

	return store.NewFileStore(dir)
}

func buildCheckpoint(cfg *config.Config) *checkpoint.Manager[accumulator.Snapshot] {
	if !cfg.Checkpoint.Enabled {
		return nil
	}

	dir := cfg.Checkpoint.Dir
	if dir == "" {
		dir = checkpoint.DefaultDir()
	}

	return checkpoint.NewManager[accumulator.Snapshot](dir, cfg.DatasetID, persist.NewLZ4Codec())
}

// loadViews resolves the per-type view descriptor. A views file takes
// precedence; otherwise every type is paged at the configured page size.
func loadViews(cfg *config.Config) (source.Views, error) {
	if cfg.Source.ViewsFile != "" {
		return source.LoadViews(cfg.Source.ViewsFile)
	}

	views := source.DefaultViews()

	// The dataset filter is deliberately left empty here: a local export is
	// already one dataset, and records need not carry a datasetId property.
	// A views file can opt in per type.
	for t, view := range views {
		view.PageSize = cfg.Ingest.PageSize
		views[t] = view
	}

	return views, nil
}

// parseLimits converts --limit flags of the form <type>=<count> into the
// per-type cap map, overlaying any limits from the config file.
func parseLimits(cfg *config.Config, specs []string) (map[entity.Type]int64, error) {
	limits := map[entity.Type]int64{}

	for name, limit := range cfg.Ingest.Limits {
		t := entity.Type(name)
		if !entity.Known(t) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, name)
		}

		limits[t] = limit
	}

	for _, spec := range specs {
		name, value, found := strings.Cut(spec, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrBadLimitSpec, spec)
		}

		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadLimitSpec, spec)
		}

		t := entity.Type(name)
		if !entity.Known(t) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, name)
		}

		limits[t] = count
	}

	return limits, nil
}
