package cli

import (
	"fmt"
	"regexp"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/config"
	"github.com/roach88/tempo/internal/runtime"
	"github.com/roach88/tempo/internal/variables"
)

// VarsOptions holds flags for the vars command.
type VarsOptions struct {
	*RootOptions
	Config string
}

// VariableInfo is one persisted global variable.
type VariableInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NewVarsCommand creates the vars command.
func NewVarsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VarsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vars [pattern]",
		Short: "Print persisted global variables",
		Long: `Open the storage backends of a config file and print the global
variables they hold, sorted by name. The optional pattern is a regular
expression matched against variable names.

Example:
  tempo vars --config tempo.yaml
  tempo vars --config tempo.yaml '^scores::'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return runVars(opts, pattern, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file or CUE directory (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runVars(opts *VarsOptions, pattern string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	re, err := regexp.Compile(pattern)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "invalid pattern", err)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	rt, err := runtime.New(runtime.WithLogger(logger))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to start runtime", err)
	}
	defer rt.Close()

	if err := rt.LoadVariables(cmd.Context(), cfg.Variables); err != nil {
		for _, le := range variables.LoadErrors(err) {
			formatter.VerboseLog("database %s: %s", le.Database, le.Error())
		}
		if !rt.Store().HasStorages() {
			return formatter.fail(ExitCommandError, ErrCodeStorage, "no storage backend could be loaded", err)
		}
	}

	var vars []VariableInfo
	reg := rt.Types()
	rt.Store().Globals().Walk(func(name string, value any) {
		if !re.MatchString(name) {
			return
		}
		info := VariableInfo{Name: name, Value: reg.Render(value), Type: "unknown"}
		if t, ok := reg.TypeOf(value); ok {
			info.Type = string(t.ID)
		}
		vars = append(vars, info)
	})

	if formatter.Format == "json" {
		if vars == nil {
			vars = []VariableInfo{}
		}
		return formatter.Success(vars)
	}
	if len(vars) == 0 {
		fmt.Fprintln(formatter.Writer, "no variables")
		return nil
	}
	for _, v := range vars {
		formatter.Paint(color.FgCyan, "%s", v.Name)
		formatter.Paint(color.Reset, " = %s (%s)\n", v.Value, v.Type)
	}
	return nil
}
