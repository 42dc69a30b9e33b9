package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"glyphkey/internal/ime"
)

func createTranslateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <config> <input>",
		Short: "Print the candidates of an input as JSON lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd, cfg, flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			engine, err := ime.NewEngine(cfg, ime.WithLogger(logger))
			if err != nil {
				return err
			}
			defer engine.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			for _, p := range engine.Translate(args[1]) {
				if err := enc.Encode(p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
