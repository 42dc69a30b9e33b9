// glyphkey is the command line companion of the glyphkey input method.
//
// Usage:
//
//	glyphkey check <config>            validate a configuration
//	glyphkey translate <config> <in>   print the candidates of an input
//	glyphkey sandbox <config>          type through the engine in a terminal
//	glyphkey stats                     show the most used codes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"glyphkey/internal/config"
	"glyphkey/internal/logging"
)

type globalFlags struct {
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "glyphkey",
		Short:         "Sequence-based input method toolkit",
		Long:          `glyphkey turns typed key sequences into text using a configurable dataset, dictionary and scripted translators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(createCheckCmd(flags))
	rootCmd.AddCommand(createTranslateCmd(flags))
	rootCmd.AddCommand(createSandboxCmd(flags))
	rootCmd.AddCommand(createStatsCmd())
	return rootCmd
}

// loadConfig reads and validates the configuration at path.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger for cfg, with the command line flags taking
// precedence. Output goes to the command's error stream unless the
// configuration asks for a file.
func newLogger(cmd *cobra.Command, cfg *config.Config, flags *globalFlags) (*logging.Logger, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		level, err := logging.ParseLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
	}
	switch flags.logFormat {
	case "":
	case "json":
		lc.Format = logging.FormatJSON
	case "text":
		lc.Format = logging.FormatText
	default:
		return nil, fmt.Errorf("unknown log format %q", flags.logFormat)
	}
	if lc.Output != "file" {
		lc.Writer = cmd.ErrOrStderr()
	}
	return logging.New(lc)
}
