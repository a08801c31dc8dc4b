package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/server"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the component kinds and their parameters",
	Long: `List every component kind a bench can hold, with its token tag and the
parameters it carries. Parameter keys are the short names used in tokens.

Examples:
  polarstudio kinds
  polarstudio kinds --output yaml`,
	Args: cobra.NoArgs,
	RunE: runKinds,
}

var kindsFlags *StandardFlags

func init() {
	rootCmd.AddCommand(kindsCmd)
	kindsFlags = AddStandardFlags(kindsCmd, "output")
}

func runKinds(cmd *cobra.Command, args []string) error {
	if err := kindsFlags.ValidateFlags(); err != nil {
		return err
	}

	infos := server.KindInfos(registry.Default().Kinds(), envLanguage())
	return kindsFlags.Write(cmd.OutOrStdout(), infos, func(w io.Writer) error {
		for _, k := range infos {
			fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(k.Tag), k.Title)
			if k.Description != "" {
				fmt.Fprintf(w, "    %s\n", k.Description)
			}
			for _, p := range k.Params {
				unit := ""
				if p.Unit != "" {
					unit = " " + p.Unit
				}
				fmt.Fprintf(w, "    %-3s %-14s %s..%s%s (default %s)\n", p.Key, p.Name,
					registry.FormatNumber(p.Min, 3), registry.FormatNumber(p.Max, 3), unit,
					registry.FormatNumber(p.Default, 3))
			}
		}
		_, err := fmt.Fprintln(w, strings.Repeat("─", 40))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%d kinds\n", len(infos))
		return err
	})
}
