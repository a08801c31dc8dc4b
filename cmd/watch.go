package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/share"
	"github.com/polarcraft/polarstudio/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <bench-file>",
	Short: "Rebuild the share link whenever a bench file changes",
	Long: `Watch a bench file and print a fresh share link with its length check
every time the file is saved. A file that fails to parse is reported and
the previous link stays valid.

Examples:
  polarstudio watch bench.yaml
  polarstudio watch bench.yaml --debounce 500ms`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 200*time.Millisecond, "Wait this long after a change before rebuilding")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "watch")
	if err != nil {
		return err
	}
	builder, err := cfg.ShareBuilder()
	if err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.BenchFileFilter)
	fw.AddFilter(watcher.NoHiddenFilter)
	if err := fw.WatchFile(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rebuild := func() {
		if err := printLink(out, builder, path); err != nil {
			fmt.Fprintln(out, errStyle.Render(err.Error()))
		}
	}
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, ev := range events {
			if ev.Type == watcher.EventTypeDeleted {
				fmt.Fprintln(out, warnStyle.Render(path+" was removed; waiting for it to come back"))
				return nil
			}
		}
		rebuild()
		return nil
	})

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild()
	if err := fw.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Watching "+path+" (Ctrl+C to stop)")

	<-ctx.Done()
	return nil
}

// printLink reloads path and prints its share link.
func printLink(w io.Writer, builder *share.Builder, path string) error {
	state, err := benchfile.Load(path)
	if err != nil {
		return err
	}

	link := builder.Build(state)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(time.Now().Format("15:04:05")), link.URL)
	_, err = fmt.Fprintln(w, lengthLine(link.Length, link.Limit, link.WithinLimit))
	return err
}
