package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/bench"
	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit [bench-file]",
	Short: "Edit a bench with a live share-link length estimate",
	Long: `Open a bench in the terminal editor. The estimated share-link length is
updated on every change, so you see when a setup is getting too large to
share before you encode it.

A file that does not exist yet starts as an empty bench and is created
on save. Without a file the bench can be shared but not saved.

Keys:
  a add   e edit   d delete   [ ] rotate   c copy link   s save   q quit

Examples:
  polarstudio edit bench.yaml
  polarstudio edit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "edit")
	if err != nil {
		return err
	}
	builder, err := cfg.ShareBuilder()
	if err != nil {
		return err
	}

	state := bench.State{}
	opts := []tui.Option{
		tui.WithCopier(newCopier(cfg, logger, cmd.ErrOrStderr())),
	}
	if len(args) == 1 {
		path := args[0]
		loaded, err := benchfile.Load(path)
		switch {
		case err == nil:
			state = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return err
		}
		opts = append(opts, tui.WithPath(path))
	}

	final, err := tui.Run(contextOf(cmd), tui.NewEditor(state, builder, opts...))
	if err != nil {
		return err
	}

	if link := builder.Build(final); link.URL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), link.URL)
	}
	return nil
}
