package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/script"
	"github.com/roach88/tempo/internal/variables"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config  string
	Once    bool
	For     time.Duration
	Timeout time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script>...",
		Short: "Load scripts and run their events",
		Long: `Load script manifests, fire their load events and keep their
periodical and time-of-day events armed until interrupted.

Variables are restored from the storage backends named in --config before
any script loads, and flushed back when the command exits.

Example:
  tempo run --config tempo.yaml greet.yaml
  tempo run --config tempo.yaml --once counter.yaml
  tempo run --for 1m ticker.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScripts(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file or CUE directory")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "exit after load events have run")
	cmd.Flags().DurationVar(&opts.For, "for", 0, "exit after this long instead of waiting for a signal")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "bound each trigger body execution (0 = no limit)")

	return cmd
}

func runScripts(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	eng, err := script.NewEngine(
		script.WithLogger(logger),
		script.WithOutput(cmd.OutOrStdout()),
		script.WithTimeout(opts.Timeout),
	)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to start runtime", err)
	}
	defer eng.Close()

	if opts.Config != "" {
		cfg, err := config.Load(opts.Config)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
		}
		if err := eng.Runtime().LoadVariables(parentCtx, cfg.Variables); err != nil {
			// Failed sections are already logged; the rest keep working.
			formatter.VerboseLog("%d database(s) failed to load", len(variables.LoadErrors(err)))
		}
	}

	for _, path := range paths {
		m, err := eng.LoadFile(path)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeScript, "failed to load script "+path, err)
		}
		if formatter.Format == "text" {
			formatter.Paint(color.FgGreen, "✓ loaded %s (%d triggers)\n", m.Name, len(m.Triggers))
		}
	}

	if opts.Once {
		return nil
	}

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.For)
		defer cancel()
	}

	logger.Info("running", "scripts", len(paths))
	<-ctx.Done()
	logger.Info("stopping")
	return nil
}
