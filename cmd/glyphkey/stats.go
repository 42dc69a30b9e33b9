package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"glyphkey/internal/config"
	"glyphkey/internal/store"
)

func createStatsCmd() *cobra.Command {
	var (
		journalPath string
		limit       int
		verify      bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the most used codes from the usage journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if journalPath == "" {
				journalPath = config.DefaultJournalPath()
			}
			if _, err := os.Stat(journalPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(cmd.OutOrStdout(), "no journal at %s\n", journalPath)
				return nil
			}
			s, err := store.Open(journalPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if verify {
				if err := s.Verify(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "journal ok")
			}

			rows, err := s.TopUsage(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no usage recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tTEXT\tHITS\tLAST USED")
			for _, u := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", u.Code, u.Text, u.Hits, u.LastUsed.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "", "journal database (default: platform data dir)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the journal integrity first")
	return cmd
}
