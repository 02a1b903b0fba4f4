package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/lineup/internal/domain/collision"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/search"
	"github.com/okian/lineup/pkg/logger"
)

func (c *CLI) actsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "acts <file>",
		Short: "List the acts of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderActs(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}

func (c *CLI) exhaustiveCommand() *cobra.Command {
	var (
		pins      pinFlags
		yes       bool
		maxTies   int
		threshold uint64
	)
	cmd := &cobra.Command{
		Use:   "exhaustive <file>",
		Short: "Try every order and list all orders with the fewest collisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := c.loadCatalog(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := newPrompter(cmd.InOrStdin(), out)
			pn, err := pins.resolve(cat, p)
			if err != nil {
				return err
			}

			confirm := p.confirm
			if yes {
				confirm = search.Confirmed
			}
			log := logger.Get().Named("exhaustive")
			start := time.Now()
			res, err := search.Exhaustive(cat, pn,
				search.WithWarnThreshold(threshold),
				search.WithConfirm(confirm),
				search.WithMaxTies(maxTies),
				search.WithProgress(progressEvery*progressEvery, func(pr search.Progress) {
					log.Debug(ctx, "progress",
						logger.Uint64("examined", pr.Examined),
						logger.Uint64("total", pr.Total),
						logger.Int("minCost", pr.MinCost))
				}),
			)
			if errors.Is(err, search.ErrNotConfirmed) {
				return fmt.Errorf("%w: %d permutations not confirmed", ErrAborted, res.Plan.Permutations)
			}
			if err != nil {
				return err
			}
			log.Debug(ctx, "search finished",
				logger.Uint64("examined", res.Examined),
				logger.Int("ties", len(res.Schedules)),
				logger.Duration("elapsed", time.Since(start)))

			results, err := explainAll(cat, res.Schedules)
			if err != nil {
				return err
			}
			renderCost(out, "Minimum collisions", res.MinCost)
			_, _ = fmt.Fprintf(out, "Examined %d orders, %d optimal", res.Examined, len(results))
			if res.TiesTruncated > 0 {
				_, _ = fmt.Fprintf(out, " (%d more not kept)", res.TiesTruncated)
			}
			_, _ = fmt.Fprintln(out)
			renderSchedules(out, results)
			if len(results) > 0 {
				renderCollisions(out, results[0].Collisions)
			}
			return nil
		},
	}
	pins.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "run large searches without asking")
	cmd.Flags().IntVar(&maxTies, "max-ties", 0, "keep at most this many optimal orders (0 keeps all)")
	cmd.Flags().Uint64Var(&threshold, "warn-threshold", search.DefaultWarnThreshold, "permutation count that needs confirmation")
	return cmd
}

func (c *CLI) annealCommand() *cobra.Command {
	var (
		pins   pinFlags
		params = search.DefaultAnnealParams()
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "anneal <file>",
		Short: "Search for a low-collision order by simulated annealing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := params.Validate(); err != nil {
				return err
			}
			cat, err := c.loadCatalog(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pn, err := pins.resolve(cat, newPrompter(cmd.InOrStdin(), out))
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			log := logger.Get().Named("anneal")
			log.Debug(ctx, "starting", logger.Int64("seed", seed))
			res, err := search.Anneal(cat, pn, params,
				search.WithSeed(seed),
				search.WithAnnealProgress(progressEvery, func(pr search.AnnealProgress) {
					log.Debug(ctx, "progress",
						logger.Int("iteration", pr.Iteration),
						logger.Int("currentCost", pr.CurrentCost),
						logger.Int("bestCost", pr.BestCost),
						logger.Float64("temperature", pr.Temperature))
				}),
			)
			if err != nil {
				return err
			}

			events, err := collision.Explain(cat, res.Schedule)
			if err != nil {
				return err
			}
			renderCost(out, "Best collisions", res.Cost)
			_, _ = fmt.Fprintf(out, "Started at %d, %d iterations, %d accepted moves, seed %d\n",
				res.InitialCost, res.Iterations, res.Accepted, seed)
			renderOrder(out, cat, res.Schedule)
			renderCollisions(out, events)
			return nil
		},
	}
	pins.register(cmd)
	cmd.Flags().IntVar(&params.MaxIterations, "iterations", params.MaxIterations, "maximum iterations")
	cmd.Flags().Float64Var(&params.InitialTemperature, "temperature", params.InitialTemperature, "initial temperature")
	cmd.Flags().Float64Var(&params.CoolingRate, "cooling", params.CoolingRate, "fraction of the temperature removed per iteration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for a reproducible run")
	return cmd
}

func (c *CLI) explainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <file> <act>...",
		Short: "Count the collisions of a given order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			schedule := model.Schedule(args[1:])
			events, err := collision.Explain(cat, schedule)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := model.ValidatePermutation(cat, schedule); err != nil {
				_, _ = warnColor.Fprintf(out, "Note: %v\n", err)
			}
			renderCost(out, "Collisions", len(events))
			renderOrder(out, cat, schedule)
			renderCollisions(out, events)
			return nil
		},
	}
}

func explainAll(cat *model.Catalog, schedules []model.Schedule) ([]model.ScheduleResult, error) {
	out := make([]model.ScheduleResult, 0, len(schedules))
	for _, s := range schedules {
		events, err := collision.Explain(cat, s)
		if err != nil {
			return nil, fmt.Errorf("explain schedule: %w", err)
		}
		out = append(out, model.ScheduleResult{Schedule: s, Cost: len(events), Collisions: events})
	}
	return out, nil
}
