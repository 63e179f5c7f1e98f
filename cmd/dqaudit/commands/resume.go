package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dqaudit/dqaudit/internal/config"
	"github.com/dqaudit/dqaudit/internal/orchestrator"
	"github.com/dqaudit/dqaudit/internal/report"
)

// ResumeCommand holds the flags of the resume subcommand.
type ResumeCommand struct {
	configPath string
	datasetID  string
	limits     []string
	timeBudget time.Duration
	shardID    string
	finalize   bool

	sourceKind string
	sourceDir  string
	viewsFile  string

	storeBackend string
	storeDir     string

	checkpointDir string

	noColor      bool
	otlpEndpoint string
}

// NewResumeCommand creates the resume subcommand.
func NewResumeCommand() *cobra.Command {
	rc := &ResumeCommand{}

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue or finalize a checkpointed audit",
		Long: "Continue a checkpointed ingest for one shard, or with " +
			"--finalize merge all shards, compute every section, and persist " +
			"the document.",
		Args: cobra.NoArgs,
		RunE: rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file path (default: .dqaudit.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&rc.datasetID, "dataset", "d", "", "Dataset identifier (required unless set in config)")
	cmd.Flags().StringSliceVar(&rc.limits, "limit", nil, "Per-type instance cap as <type>=<count>; repeatable")
	cmd.Flags().DurationVar(&rc.timeBudget, "time-budget", 0,
		"Wall-clock budget for this execution; 0 = unbounded")
	cmd.Flags().StringVar(&rc.shardID, "shard", "", "Shard identifier to resume")
	cmd.Flags().BoolVar(&rc.finalize, "finalize", false, "Merge all shards and persist the final document")

	cmd.Flags().StringVar(&rc.sourceKind, "source", "", "Data source kind: jsonl, memory")
	cmd.Flags().StringVar(&rc.sourceDir, "source-dir", "", "Data directory for the jsonl source")
	cmd.Flags().StringVar(&rc.viewsFile, "views", "", "YAML view descriptor overriding per-type paging")

	cmd.Flags().StringVar(&rc.storeBackend, "store", "", "Document store backend: file, sqlite")
	cmd.Flags().StringVar(&rc.storeDir, "store-dir", "", "Document store directory")

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: XDG data home)")

	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&rc.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address enabling trace/metric export")

	return cmd
}

func (rc *ResumeCommand) resolveConfig() (*config.Config, error) {
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

	// Resuming is meaningless without checkpointing.
	cfg.Checkpoint.Enabled = true

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

func (rc *ResumeCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.resolveConfig()
	if err != nil {
		return err
	}

	env, err := buildEnv(cfg, "")
	if err != nil {
		return err
	}
	defer env.close()

	opts, err := buildOptions(cfg, nil, rc.limits, rc.shardID)
	if err != nil {
		return err
	}

	runner := orchestrator.NewRunner(env.deps)

	var result orchestrator.Result
	if rc.finalize {
		result, err = runner.Finalize(cmd.Context(), opts)
	} else {
		result, err = runner.Resume(cmd.Context(), opts)
	}

	renderer := report.NewRenderer(cmd.OutOrStdout(), report.Options{NoColor: rc.noColor})

	return renderResult(renderer, result, err)
}
