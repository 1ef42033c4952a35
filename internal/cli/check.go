package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/variables"
)

// NameResult is the check outcome of one variable name.
type NameResult struct {
	Input string `json:"input"`
	Valid bool   `json:"valid"`
	Key   string `json:"key,omitempty"`
	Local bool   `json:"local,omitempty"`
	List  bool   `json:"list,omitempty"`
	Error string `json:"error,omitempty"`
}

// CheckResult holds the results of the check command.
type CheckResult struct {
	Valid bool         `json:"valid"`
	Names []NameResult `json:"names"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>...",
		Short: "Validate variable names",
		Long: `Validate variable names the way scripts resolve them.

A leading "_" makes a name local to one firing; "::" separates list
segments and a trailing "::*" selects a whole list.

Example:
  tempo check score::alice _tmp 'scores::*'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
}

func runCheck(opts *RootOptions, names []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := CheckResult{Valid: true}
	for _, raw := range names {
		nr := NameResult{Input: raw}
		n, err := variables.ParseName(raw)
		if err != nil {
			var nameErr *variables.NameError
			if errors.As(err, &nameErr) {
				nr.Error = nameErr.Reason
			} else {
				nr.Error = err.Error()
			}
			result.Valid = false
		} else {
			nr.Valid = true
			nr.Key, nr.Local, nr.List = n.Key, n.Local, n.List
		}
		result.Names = append(result.Names, nr)
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeInvalidName, Message: "invalid variable names"}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			return WrapExitError(ExitCommandError, "failed to encode output", err)
		}
	} else {
		for _, nr := range result.Names {
			if !nr.Valid {
				formatter.Paint(color.FgRed, "✗ %s: %s\n", nr.Input, nr.Error)
				continue
			}
			formatter.Paint(color.FgGreen, "✓ %s: %s\n", nr.Input, describeName(nr))
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: invalid variable names", ErrCodeInvalidName))
	}
	return nil
}

func describeName(nr NameResult) string {
	scope, kind := "global", "variable"
	if nr.Local {
		scope = "local"
	}
	if nr.List {
		kind = "list"
	}
	return scope + " " + kind
}
