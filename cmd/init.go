package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/config"
)

var (
	initWizard bool
	initForce  bool
	initPath   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a polarstudio configuration file",
	Long: `Write a .polarstudio.yml with the default settings, or walk through them
interactively with --wizard.

Examples:
  polarstudio init
  polarstudio init --wizard
  polarstudio init --path ./config/polarstudio.yml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initWizard, "wizard", false, "Ask for each setting")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	initCmd.Flags().StringVar(&initPath, "path", config.DefaultFile, "File to write")
}

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(initPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", initPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	cfg := config.Default()
	if initWizard {
		var err error
		cfg, err = config.NewConfigWizard(cmd.InOrStdin(), cmd.OutOrStdout()).Run()
		if err != nil {
			return err
		}
	}

	if err := config.WriteConfigFile(initPath, cfg, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", okStyle.Render("✓"), initPath)
	return nil
}
