package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func createCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <config>",
		Short: "Load and validate a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Info.Name != "" {
				fmt.Fprintf(out, "%s %s\n", cfg.Info.Name, cfg.Info.Version)
			}
			fmt.Fprintf(out, "data: %d\n", len(cfg.Data()))
			fmt.Fprintf(out, "translation: %d\n", cfg.Translation().Len())
			fmt.Fprintf(out, "translators: %d\n", len(cfg.Translators()))
			return nil
		},
	}
}
