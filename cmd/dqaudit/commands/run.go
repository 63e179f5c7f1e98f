// Package commands implements the dqaudit CLI subcommands.
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dqaudit/dqaudit/internal/config"
	"github.com/dqaudit/dqaudit/internal/orchestrator"
	"github.com/dqaudit/dqaudit/internal/report"
)

// RunCommand holds the flags and collaborators of the run subcommand.
// Keeping them on a struct rather than package globals makes the command
// constructible in tests.
type RunCommand struct {
	configPath string
	datasetID  string
	sections   []string
	limits     []string
	timeBudget time.Duration
	shardID    string

	sourceKind string
	sourceDir  string
	viewsFile  string

	storeBackend string
	storeDir     string

	checkpointDir   string
	noCheckpoint    bool
	clearCheckpoint bool

	noColor      bool
	diagAddr     string
	otlpEndpoint string
}

// NewRunCommand creates the run subcommand.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full or selective data-quality audit",
		Long: "Run a data-quality audit over the configured dataset. " +
			"With --sections, only the named sections are recomputed and " +
			"merged into the cached document.",
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file path (default: .dqaudit.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&rc.datasetID, "dataset", "d", "", "Dataset identifier (required unless set in config)")
	cmd.Flags().StringSliceVarP(&rc.sections, "sections", "s", nil,
		"Sections to recompute selectively (example: hierarchy,timeseries); empty = full recompute")
	cmd.Flags().StringSliceVar(&rc.limits, "limit", nil,
		"Per-type instance cap as <type>=<count> (example: asset=100000); repeatable")
	cmd.Flags().DurationVar(&rc.timeBudget, "time-budget", 0,
		"Wall-clock budget for this execution (example: 45m); 0 = unbounded")
	cmd.Flags().StringVar(&rc.shardID, "shard", "", "Shard identifier for this execution's checkpoint")

	cmd.Flags().StringVar(&rc.sourceKind, "source", "", "Data source kind: jsonl, memory")
	cmd.Flags().StringVar(&rc.sourceDir, "source-dir", "", "Data directory for the jsonl source")
	cmd.Flags().StringVar(&rc.viewsFile, "views", "", "YAML view descriptor overriding per-type paging")

	cmd.Flags().StringVar(&rc.storeBackend, "store", "", "Document store backend: file, sqlite")
	cmd.Flags().StringVar(&rc.storeDir, "store-dir", "", "Document store directory")

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: XDG data home)")
	cmd.Flags().BoolVar(&rc.noCheckpoint, "no-checkpoint", false, "Disable checkpointing on budget exhaustion")
	cmd.Flags().BoolVar(&rc.clearCheckpoint, "clear-checkpoint", false, "Clear any existing checkpoint before the run")

	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&rc.diagAddr, "diagnostics-addr", "", "Serve /healthz and /metrics at this address (example: :9090)")
	cmd.Flags().StringVar(&rc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address enabling trace/metric export")

	return cmd
}

// resolveConfig loads the config file and overlays the command's flags.
func (rc *RunCommand) resolveConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.datasetID != "" {
		cfg.DatasetID = rc.datasetID
	}

	if rc.sourceKind != "" {
		cfg.Source.Kind = rc.sourceKind
	}

	if rc.sourceDir != "" {
		cfg.Source.Dir = rc.sourceDir
	}

	if rc.viewsFile != "" {
		cfg.Source.ViewsFile = rc.viewsFile
	}

	if rc.storeBackend != "" {
		cfg.Store.Backend = rc.storeBackend
	}

	if rc.storeDir != "" {
		cfg.Store.Dir = rc.storeDir
	}

	if rc.checkpointDir != "" {
		cfg.Checkpoint.Dir = rc.checkpointDir
	}

	if rc.noCheckpoint {
		cfg.Checkpoint.Enabled = false
	}

	if rc.clearCheckpoint {
		cfg.Checkpoint.ClearPrev = true
	}

	if rc.timeBudget > 0 {
		cfg.Ingest.TimeBudget = rc.timeBudget
	}

	if rc.otlpEndpoint != "" {
		cfg.Observability.OTLPEndpoint = rc.otlpEndpoint
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.resolveConfig()
	if err != nil {
		return err
	}

	env, err := buildEnv(cfg, rc.diagAddr)
	if err != nil {
		return err
	}
	defer env.close()

	opts, err := buildOptions(cfg, rc.sections, rc.limits, rc.shardID)
	if err != nil {
		return err
	}

	runner := orchestrator.NewRunner(env.deps)

	if cfg.Checkpoint.ClearPrev && env.deps.Ckpt != nil && env.deps.Ckpt.Exists() {
		clearErr := env.deps.Ckpt.Clear()
		if clearErr != nil {
			return fmt.Errorf("clear checkpoint: %w", clearErr)
		}
	}

	result, err := runner.Run(cmd.Context(), opts)

	renderer := report.NewRenderer(cmd.OutOrStdout(), report.Options{
		NoColor:  rc.noColor,
		Sections: rc.sections,
	})

	return renderResult(renderer, result, err)
}

// buildOptions assembles orchestrator options from the resolved config and
// the run flags.
func buildOptions(cfg *config.Config, sections, limitSpecs []string, shardID string) (orchestrator.Options, error) {
	views, err := loadViews(cfg)
	if err != nil {
		return orchestrator.Options{}, err
	}

	limits, err := parseLimits(cfg, limitSpecs)
	if err != nil {
		return orchestrator.Options{}, err
	}

	return orchestrator.Options{
		DatasetID:      cfg.DatasetID,
		Sections:       sections,
		Views:          views,
		Limits:         limits,
		TimeBudget:     cfg.Ingest.TimeBudget,
		ShardID:        shardID,
		HistoryWorkers: cfg.Ingest.HistoryWorkers,
		GapThreshold:   int64(cfg.Ingest.GapThresholdMillis),
		Config:         cfg.DocumentConfig(),
	}, nil
}

// renderResult renders the run outcome and maps it to the command's error.
// A checkpointed (budget-exhausted) run is a clean exit; a failed run is not.
func renderResult(renderer *report.Renderer, result orchestrator.Result, runErr error) error {
	if runErr != nil {
		return runErr
	}

	if result.Document != nil {
		renderer.Document(result.Document)
	}

	renderer.RunSummary(string(result.Status), result.Warnings)

	if result.Status == orchestrator.StatusFailure {
		return fmt.Errorf("audit run %s failed", result.RunID)
	}

	return nil
}
