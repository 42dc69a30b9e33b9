package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"glyphkey/internal/ime"
	"glyphkey/internal/sandbox"
	"glyphkey/internal/store"
)

func createSandboxCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox <config>",
		Short: "Type through the engine in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			// The screen owns the terminal, so logs go to a file.
			if cfg.Logging.Output != "file" {
				cfg.Logging.Output = "file"
			}
			logger, err := newLogger(cmd, cfg, flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			var opts []ime.EngineOption
			if cfg.Journal.Enabled {
				journal, err := store.Open(cfg.JournalPath())
				if err != nil {
					return err
				}
				defer journal.Close()
				opts = append(opts, ime.WithJournal(journal))
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init terminal: %w", err)
			}
			defer screen.Fini()

			sb, err := sandbox.New(screen, cfg, logger, opts...)
			if err != nil {
				return err
			}
			defer sb.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer stop()
				return sb.Run(ctx)
			})
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
