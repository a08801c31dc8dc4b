package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/share"
)

var shareCmd = &cobra.Command{
	Use:   "share <bench-file>",
	Short: "Build the share link for a bench file",
	Long: `Build the share link for a bench file and check it against the configured
URL length limit (share.max_url_length).

With --copy the link is also put on the clipboard. When the clipboard is
not available the link is written to a temporary file for manual copying,
unless clipboard.fallback is "none".

Examples:
  polarstudio share bench.yaml
  polarstudio share bench.yaml --copy
  polarstudio share bench.yaml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

var (
	shareFlags *StandardFlags
	shareCopy  bool
)

// shareResult is the structured output of share.
type shareResult struct {
	share.Link `yaml:",inline"`
	Copied     bool `json:"copied" yaml:"copied"`
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareFlags = AddStandardFlags(shareCmd, "output")

	shareCmd.Flags().BoolVarP(&shareCopy, "copy", "c", false, "Copy the link to the clipboard")
}

func runShare(cmd *cobra.Command, args []string) error {
	if err := shareFlags.ValidateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "share")
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

	op := logging.StartOperation(logger, "share")
	var result shareResult
	if shareCopy {
		result.Link, result.Copied = builder.Share(contextOf(cmd), state, newCopier(cfg, logger, cmd.ErrOrStderr()))
	} else {
		result.Link = builder.Build(state)
	}
	op.End(contextOf(cmd), "components", len(state), "length", result.Length, "copied", result.Copied)

	if !result.WithinLimit {
		logger.Warn(contextOf(cmd), nil, "Share link exceeds length limit",
			"length", result.Length,
			"limit", result.Limit)
	}

	return shareFlags.Write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		if result.URL == "" {
			_, err := fmt.Fprintln(w, warnStyle.Render("The bench is empty; there is nothing to share."))
			return err
		}
		fmt.Fprintln(w, result.URL)
		fmt.Fprintln(w, lengthLine(result.Length, result.Limit, result.WithinLimit))
		switch {
		case result.Copied:
			fmt.Fprintln(w, okStyle.Render("Link copied."))
		case shareCopy:
			fmt.Fprintln(w, warnStyle.Render("Couldn't copy automatically. Copy the link above by hand."))
		}
		return nil
	})
}

// lengthLine reports a link length against the limit.
func lengthLine(length, limit int, within bool) string {
	line := fmt.Sprintf("Length %d / %d", length, limit)
	if within {
		return okStyle.Render(line)
	}
	return warnStyle.Render(line + " (too long for some browsers)")
}
