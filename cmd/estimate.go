package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/benchfile"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <bench-file>",
	Short: "Estimate the share-link length without encoding",
	Long: `Print an upper bound on the length of the share link for a bench file.
The estimate is computed from the component kinds alone and never
undercounts, so a bench estimated within the limit always fits.

Examples:
  polarstudio estimate bench.yaml
  polarstudio estimate bench.yaml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runEstimate,
}

var estimateFlags *StandardFlags

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateFlags = AddStandardFlags(estimateCmd, "output")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	if err := estimateFlags.ValidateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	builder, err := cfg.ShareBuilder()
	if err != nil {
		return err
	}

	state, err := benchfile.Load(args[0])
	if err != nil {
		return err
	}

	preview := builder.Preview(state)
	return estimateFlags.Write(cmd.OutOrStdout(), preview, func(w io.Writer) error {
		line := fmt.Sprintf("Link length ≤ %d / %d", preview.EstimatedLength, preview.Limit)
		switch {
		case !preview.WithinLimit:
			line = errStyle.Render(line + " (may be too long)")
		case preview.NearLimit:
			line = warnStyle.Render(line + " (near the limit)")
		default:
			line = okStyle.Render(line)
		}
		_, err := fmt.Fprintln(w, line)
		return err
	})
}
