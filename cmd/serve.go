package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/polarcraft/polarstudio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the studio server",
	Long: `Start the studio server. It serves the page share links open
(/studio?module=design&setup=...), a JSON API for decoding, sharing and
estimating benches, and a websocket streaming live length estimates.

Examples:
  polarstudio serve
  polarstudio serve --port 5173
  polarstudio serve --host 0.0.0.0 --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags *StandardFlags

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags = AddStandardFlags(serveCmd, "server")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "serve")
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("%s http://%s/studio\n", headerStyle.Render("Studio server"), srv.Addr())
	return srv.Start(ctx)
}
