package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hts-classify/internal/classify"
)

var (
	classifyTitle       string
	classifyDescription string
	classifyCountry     string
	classifySource      string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify one product and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("classify"); err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, classifySource, false)
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Service.Classify(ctx, classify.Request{
			ProductTitle:    classifyTitle,
			Description:     classifyDescription,
			CountryOfOrigin: classifyCountry,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode result")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "product title")
	classifyCmd.Flags().StringVar(&classifyDescription, "description", "", "product description")
	classifyCmd.Flags().StringVar(&classifyCountry, "country", "", "country of origin")
	classifyCmd.Flags().StringVar(&classifySource, "source", "", "reference source (default from config)")
	rootCmd.AddCommand(classifyCmd)
}
