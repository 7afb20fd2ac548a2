package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func newSetResumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-resume <command>",
		Short: "Set the command used to resume a session",
		Long: `Set the command used to resume a session. The session id is
appended as the last argument. Quote the command as one argument:

  forktree set-resume "claude --resume --verbose"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.SaveResumeCommand(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Resume command set to %q\n", a.cfg.ResumeCommand)
			return nil
		},
	}
}

func newCacheCmd(a *app) *cobra.Command {
	var clearCache bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the transcript cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.NoCache {
				return fmt.Errorf("cache is disabled by configuration")
			}
			database, closeDB := a.openDB()
			defer closeDB()
			if database == nil {
				return fmt.Errorf("cache unavailable at %s", a.cfg.DBPath)
			}

			out := cmd.OutOrStdout()
			if clearCache {
				if err := database.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(out, "Cache cleared")
				return nil
			}

			stats, err := database.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cache:    %s\n", a.cfg.DBPath)
			fmt.Fprintf(out, "Records:  %d\n", stats.RecordCount)
			fmt.Fprintf(out, "Sessions: %d\n", stats.SessionCount)
			fmt.Fprintf(out, "Skipped:  %d\n", stats.SkippedCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearCache, "clear", false, "Delete all cached records")
	return cmd
}
