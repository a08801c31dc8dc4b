package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/logging"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <bench-file>",
	Short: "Print the share token for a bench file",
	Long: `Read a bench file (YAML or JSON) and print its share token.

Values are quantized to the configured precision (codec.precision) and
parameters at their default are left out of the token.

Examples:
  polarstudio encode bench.yaml
  polarstudio encode bench.json --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

var encodeFlags *StandardFlags

// encodeResult is the structured output of encode.
type encodeResult struct {
	Token      codec.Token `json:"token" yaml:"token"`
	Length     int         `json:"length" yaml:"length"`
	Components int         `json:"components" yaml:"components"`
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeFlags = AddStandardFlags(encodeCmd, "output")
}

func runEncode(cmd *cobra.Command, args []string) error {
	if err := encodeFlags.ValidateFlags(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "encode")
	if err != nil {
		return err
	}

	state, err := benchfile.Load(args[0])
	if err != nil {
		return err
	}

	op := logging.StartOperation(logger, "encode")
	token := codec.NewEncoder(cfg.CodecOptions()...).Encode(state)
	op.End(contextOf(cmd), "components", len(state))

	result := encodeResult{Token: token, Length: len(token), Components: len(state)}
	return encodeFlags.Write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, token)
		return err
	})
}
