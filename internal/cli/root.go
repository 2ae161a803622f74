package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
	"github.com/TriB-P/mediabox-sub008/internal/config"
	"github.com/TriB-P/mediabox-sub008/internal/logging"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	configPath string
	debug      bool
	output     string

	cfg    config.Config
	logger *zap.Logger
}

func (a *app) labeler() domain.Labeler {
	return domain.NewLabeler(a.cfg.Breakdown.Translator())
}

// NewRootCommand builds the mediabox command tree.
func NewRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "mediabox",
		Short: "Tactic breakdown period engine",
		Long: `mediabox generates the periods of a tactic's breakdowns, reconciles
stored per-period values against them and writes the result back.

Fixtures are YAML (or JSON) documents:

  tactic:     {id, campaignId, startDate, endDate}
  breakdowns: [{id, name, type, startDate, endDate, isDefault, customPeriods}]
  persisted:  {<breakdownId>: {name, type, periods: {<periodId>: {...}}}}`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := logging.New(a.debug || cfg.Log.Debug)
			if err != nil {
				return err
			}
			a.logger = logger

			switch a.output {
			case "yaml", "json":
				return nil
			default:
				return fmt.Errorf("--output %q must be yaml or json", a.output)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./config.yaml, ~/.config/mediabox/config.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "yaml", "output format: yaml or json")

	root.AddCommand(
		newPeriodsCmd(a),
		newReconcileCmd(a),
		newDistributeCmd(a),
		newPEBsTotalCmd(a),
		newSyncCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
