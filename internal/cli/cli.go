// Package cli implements the lineup command-line interface.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/lineup/internal/adapters/catalogfile"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
)

// progressEvery is how often searches report progress at debug level.
const progressEvery = 1000

// CLI holds flags shared by every command.
type CLI struct {
	verbose   bool
	skipNames []string
}

// New creates a CLI.
func New() *CLI {
	return &CLI{}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lineup",
		Short:         "lineup orders performance acts to minimise back-to-back performers",
		Long:          `lineup reads a catalog of acts and their performers and searches for running orders in which as few performers as possible appear in two consecutive acts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if c.verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringSliceVar(&c.skipNames, "skip", catalogfile.DefaultSkipNames,
		"CSV act names treated as section headers and skipped")

	root.AddCommand(c.actsCommand())
	root.AddCommand(c.exhaustiveCommand())
	root.AddCommand(c.annealCommand())
	root.AddCommand(c.explainCommand())
	return root
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context) error {
	return New().RootCommand().ExecuteContext(ctx)
}

func (c *CLI) loadCatalog(ctx context.Context, path string) (*model.Catalog, error) {
	cat, err := catalogfile.Load(path, catalogfile.WithSkipNames(c.skipNames...))
	if err != nil {
		return nil, err
	}
	logger.Get().Debug(ctx, "catalog loaded",
		logger.String("path", path),
		logger.Int("acts", cat.Len()),
		logger.Int("performers", cat.PerformerCount()))
	return cat, nil
}

// pinFlags are the start and end options shared by the search commands.
type pinFlags struct {
	start       string
	end         string
	interactive bool
}

func (f *pinFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "act to open the show with")
	cmd.Flags().StringVar(&f.end, "end", "", "act to close the show with")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "list the acts and ask for start and end")
}

// resolve returns the pins, asking on p when running interactively.
func (f *pinFlags) resolve(cat *model.Catalog, p *prompter) (model.Pins, error) {
	pins := model.Pins{Start: strings.TrimSpace(f.start), End: strings.TrimSpace(f.end)}
	if f.interactive {
		renderActs(p.out, cat)
		var err error
		if pins.Start, err = p.ask("Enter the act to start with (leave blank if none): "); err != nil {
			return pins, err
		}
		if pins.End, err = p.ask("Enter the act to end with (leave blank if none): "); err != nil {
			return pins, err
		}
	}
	if err := pins.Validate(cat); err != nil {
		return pins, fmt.Errorf("pins: %w", err)
	}
	return pins, nil
}
