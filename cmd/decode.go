package cmd

import (
	"github.com/spf13/cobra"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/logging"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <token|link>",
	Short: "Turn a share token or link back into a bench file",
	Long: `Decode a share token, or a full share link, and print the bench as YAML
or JSON. With --write the bench is saved to a file instead; the format
follows the file extension.

Decoding is all or nothing: a token written by a newer version, a
malformed record or an unknown component type yields no bench at all.

Examples:
  polarstudio decode '1~S_0_0_0~P_120_0_0_a60'
  polarstudio decode 'http://localhost:5173/studio?module=design&setup=1~S_0_0_0'
  polarstudio decode '1~S_0_0_0' --format json
  polarstudio decode '1~S_0_0_0' --write bench.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

var (
	decodeFormat string
	decodeWrite  string
)

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVarP(&decodeFormat, "format", "f", "yaml", "Bench format (yaml, json)")
	decodeCmd.Flags().StringVarP(&decodeWrite, "write", "w", "", "Save the bench to this file")
}

func runDecode(cmd *cobra.Command, args []string) error {
	format, err := benchfile.ParseFormat(decodeFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, "decode")
	if err != nil {
		return err
	}

	token, err := readToken(args[0])
	if err != nil {
		return err
	}

	op := logging.StartOperation(logger, "decode")
	state, err := codec.NewDecoder(nil, cfg.CodecOptions()...).Decode(token)
	if err != nil {
		op.EndWithError(contextOf(cmd), err, "token", logging.SanitizeForLog(string(token)))
		return userError(cmd, logger, err)
	}
	op.End(contextOf(cmd), "components", len(state))

	if decodeWrite != "" {
		if err := benchfile.Save(decodeWrite, state); err != nil {
			return err
		}
		cmd.PrintErrf("Wrote %d components to %s\n", len(state), decodeWrite)
		return nil
	}

	data, err := benchfile.Marshal(state, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
