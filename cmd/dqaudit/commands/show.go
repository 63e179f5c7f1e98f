package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dqaudit/dqaudit/internal/config"
	"github.com/dqaudit/dqaudit/internal/report"
	"github.com/dqaudit/dqaudit/internal/store"
)

// ErrNoDocument indicates no persisted document exists for the dataset.
var ErrNoDocument = errors.New("no persisted document for dataset")

// ShowCommand holds the flags of the show subcommand.
type ShowCommand struct {
	configPath string
	datasetID  string
	sections   []string

	storeBackend string
	storeDir     string

	asJSON  bool
	noColor bool
}

// NewShowCommand creates the show subcommand.
func NewShowCommand() *cobra.Command {
	sc := &ShowCommand{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render a persisted audit document",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.configPath, "config", "", "Config file path (default: .dqaudit.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&sc.datasetID, "dataset", "d", "", "Dataset identifier (required unless set in config)")
	cmd.Flags().StringSliceVarP(&sc.sections, "sections", "s", nil, "Restrict output to these sections")
	cmd.Flags().StringVar(&sc.storeBackend, "store", "", "Document store backend: file, sqlite")
	cmd.Flags().StringVar(&sc.storeDir, "store-dir", "", "Document store directory")
	cmd.Flags().BoolVar(&sc.asJSON, "json", false, "Print the raw document as JSON")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (sc *ShowCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(sc.configPath)
	if err != nil {
		return err
	}

	if sc.datasetID != "" {
		cfg.DatasetID = sc.datasetID
	}

	if sc.storeBackend != "" {
		cfg.Store.Backend = sc.storeBackend
	}

	if sc.storeDir != "" {
		cfg.Store.Dir = sc.storeDir
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return validateErr
	}

	docStore, err := buildStore(cfg)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := docStore.Close()
		if closeErr != nil {
			slog.Warn("close document store", "error", closeErr)
		}
	}()

	doc, err := docStore.Get(cmd.Context(), cfg.DatasetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNoDocument, cfg.DatasetID)
		}

		return fmt.Errorf("load document: %w", err)
	}

	if sc.asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		return encoder.Encode(doc)
	}

	renderer := report.NewRenderer(cmd.OutOrStdout(), report.Options{
		NoColor:  sc.noColor,
		Sections: sc.sections,
	})
	renderer.Document(doc)

	return nil
}
