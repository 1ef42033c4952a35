package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/types"
)

// TypeInfo describes one registered type.
type TypeInfo struct {
	ID           string   `json:"id"`
	Plural       string   `json:"plural"`
	Capabilities []string `json:"capabilities"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the built-in types",
		Long: `List every built-in runtime type in registration order with its
plural form and capabilities (parse, serialize, arithmetic, values).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd)
		},
	}
}

func runTypes(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	reg := types.NewDefaultGraph().Types

	var infos []TypeInfo
	for _, t := range reg.All() {
		infos = append(infos, TypeInfo{ID: string(t.ID), Plural: t.Plural(), Capabilities: capabilities(t)})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	for _, info := range infos {
		formatter.Paint(color.FgCyan, "%s", info.ID)
		caps := "-"
		if len(info.Capabilities) > 0 {
			caps = strings.Join(info.Capabilities, ", ")
		}
		formatter.Paint(color.Reset, " (%s): %s\n", info.Plural, caps)
	}
	return nil
}

func capabilities(t *types.Type) []string {
	caps := []string{}
	if t.Parse != nil {
		caps = append(caps, "parse")
	}
	if t.Serializer != nil {
		caps = append(caps, "serialize")
	}
	if t.Arithmetic != nil {
		caps = append(caps, "arithmetic")
	}
	if t.Values != nil {
		caps = append(caps, "values")
	}
	return caps
}
