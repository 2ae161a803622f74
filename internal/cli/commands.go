package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/repository"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/service"
	"github.com/TriB-P/mediabox-sub008/internal/platform/awsclient"
)

func newPeriodsCmd(a *app) *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Print the periods generated for every breakdown of a fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			periods := domain.GenerateAll(fx.Breakdowns, fx.Tactic.StartDate, fx.Tactic.EndDate, domain.WithLabeler(a.labeler()))
			a.logger.Debug("generated periods", zap.Int("count", len(periods)))
			return write(cmd.OutOrStdout(), a.output, viewPeriods(fx.Breakdowns, periods))
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "", "fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// openFixtureEditor reconciles a fixture's persisted values onto fresh periods.
func openFixtureEditor(a *app, fx *Fixture) *service.Editor {
	editor := service.NewEditor(fx.Persisted,
		service.WithLogger(a.logger),
		service.WithLabeler(a.labeler()),
	)
	editor.SetBreakdowns(fx.Breakdowns)
	editor.SetTacticDates(fx.Tactic.StartDate, fx.Tactic.EndDate)
	return editor
}

func newReconcileCmd(a *app) *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a fixture's persisted values and print the resulting record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}

			editor := openFixtureEditor(a, fx)
			ev, changed := editor.Commit()
			if !changed {
				ev = domain.ChangeEvent{Name: domain.ChangeEventName, Value: editor.Snapshot()}
			}
			return write(cmd.OutOrStdout(), a.output, ev)
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "", "fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type distributionOutput struct {
	Parts      map[string]string `yaml:"parts" json:"parts"`
	Breakdowns domain.Breakdowns `yaml:"breakdowns" json:"breakdowns"`
}

func newDistributeCmd(a *app) *cobra.Command {
	var fixturePath, breakdownID, amount, start, end string

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Spread an amount over the periods of one breakdown",
		Long: `Splits --amount evenly over the periods of --breakdown that overlap
[--start, --end] (the tactic dates by default). Weekly and PEBs breakdowns skip
the weeks deactivated on the default breakdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			if start == "" {
				start = fx.Tactic.StartDate
			}
			if end == "" {
				end = fx.Tactic.EndDate
			}

			editor := openFixtureEditor(a, fx)
			parts, err := editor.Distribute(breakdownID, amount, start, end)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), a.output, distributionOutput{Parts: parts, Breakdowns: editor.Snapshot()})
		},
	}
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "", "fixture file")
	cmd.Flags().StringVarP(&breakdownID, "breakdown", "b", "", "breakdown receiving the amount")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to distribute")
	cmd.Flags().StringVar(&start, "start", "", "range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "range end (YYYY-MM-DD)")
	for _, name := range []string{"file", "breakdown", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPEBsTotalCmd(a *app) *cobra.Command {
	var unitCost, volume string

	cmd := &cobra.Command{
		Use:   "pebs-total",
		Short: "Compute unit cost × volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), domain.CalculatePEBsTotal(unitCost, volume))
			return err
		},
	}
	cmd.Flags().StringVar(&unitCost, "unit-cost", "", "unit cost")
	cmd.Flags().StringVar(&volume, "volume", "", "volume")
	return cmd
}

type syncOutput struct {
	Changed    bool              `yaml:"changed" json:"changed"`
	Breakdowns domain.Breakdowns `yaml:"breakdowns" json:"breakdowns"`
}

func newSyncCmd(a *app) *cobra.Command {
	var (
		req         service.SyncRequest
		fixturePath string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a stored tactic against its campaign's breakdowns and save it",
		Long: `Loads the campaign's breakdowns and the tactic document, regenerates the
periods, reconciles the stored values onto them and saves the document when it
changed. --start and --end move the tactic first.

With storage.backend=memory the stores start empty; --file seeds them from a
fixture.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, closeFn, err := a.newService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if fixturePath != "" {
				if err := seed(ctx, svc, fixturePath); err != nil {
					return err
				}
				if req.CampaignID == "" {
					req.CampaignID = svc.seededCampaign
				}
				if req.TacticID == "" {
					req.TacticID = svc.seededTactic
				}
			}

			res, err := svc.Sync(ctx, req)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), a.output, syncOutput{Changed: res.Changed, Breakdowns: res.Breakdowns})
		},
	}
	cmd.Flags().StringVar(&req.CampaignID, "campaign", "", "campaign ID")
	cmd.Flags().StringVar(&req.TacticID, "tactic", "", "tactic ID")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "new tactic start date")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "new tactic end date")
	cmd.Flags().StringVarP(&fixturePath, "file", "f", "", "fixture seeding the stores")
	return cmd
}

// storeService is a BreakdownService together with the stores behind it.
type storeService struct {
	*service.BreakdownService
	tactics repository.TacticStore

	seededCampaign string
	seededTactic   string
}

func (a *app) newService(ctx context.Context) (*storeService, func(), error) {
	opts := []service.ServiceOption{
		service.WithServiceLogger(a.logger),
		service.WithTranslator(a.cfg.Breakdown.Translator()),
		service.WithDebounce(a.cfg.Breakdown.Debounce),
	}

	if a.cfg.Storage.Backend == "memory" {
		repo := repository.NewMemoryBreakdownRepository()
		store := repository.NewMemoryTacticStore()
		return &storeService{
			BreakdownService: service.NewBreakdownService(repo, store, opts...),
			tactics:          store,
		}, func() {}, nil
	}

	clients, err := awsclient.NewAWSClients(ctx, a.cfg.AWSClientConfig())
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewRdsBreakdownRepositoryFromDB(clients.RDS.Client)
	store := repository.NewS3TacticStore(clients.S3)

	closeFn := func() {
		if err := clients.Close(); err != nil {
			a.logger.Warn("failed to close AWS clients", zap.Error(err))
		}
	}
	return &storeService{
		BreakdownService: service.NewBreakdownService(repo, store, opts...),
		tactics:          store,
	}, closeFn, nil
}

// seed writes a fixture's breakdowns and tactic document into the stores.
func seed(ctx context.Context, svc *storeService, path string) error {
	fx, err := LoadFixture(path)
	if err != nil {
		return err
	}
	if fx.Tactic.ID == "" || fx.Tactic.CampaignID == "" {
		return fmt.Errorf("fixture %s: tactic id and campaignId are required to seed", path)
	}

	if err := svc.SaveBreakdowns(ctx, fx.Tactic.CampaignID, fx.Breakdowns, "cli"); err != nil {
		return err
	}
	doc := &repository.TacticDocument{Tactic: fx.Tactic, Breakdowns: fx.Persisted}
	if err := svc.tactics.Save(ctx, doc); err != nil {
		return fmt.Errorf("seed tactic %s: %w", fx.Tactic.ID, err)
	}

	svc.seededCampaign, svc.seededTactic = fx.Tactic.CampaignID, fx.Tactic.ID
	return nil
}
