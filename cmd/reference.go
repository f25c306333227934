package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hts-classify/internal/reference"
)

var referenceSource string

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Load the reference table and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("reference"); err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, referenceSource, false)
		if err != nil {
			return err
		}
		defer env.Close()

		t := env.Loader.Load(ctx, env.Source)
		if err := env.Loader.LastError(env.Source); err != nil {
			return err
		}

		out, err := json.MarshalIndent(reference.Summarize(t), "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode summary")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	referenceCmd.Flags().StringVar(&referenceSource, "source", "", "reference source (default from config)")
	rootCmd.AddCommand(referenceCmd)
}
