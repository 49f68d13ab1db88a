package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	snapshotsLimit int
	pruneKeep      int
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored board snapshots",
	Long: `List the board snapshots saved after each successful Jira fetch, newest
first. These are served when jira.fallback is "snapshot" and Jira fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotsListRun(cmd)
	},
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotsPruneRun(cmd)
	},
}

func init() {
	snapshotsCmd.Flags().IntVarP(&snapshotsLimit, "limit", "l", 10, "Maximum number of snapshots to list")
	snapshotsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 1, "Number of snapshots to keep")
	snapshotsCmd.AddCommand(snapshotsPruneCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func snapshotsListRun(cmd *cobra.Command) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	snaps, err := s.ListSnapshots(cmd.Context(), snapshotsLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		ui.Info("No snapshots stored")
		return nil
	}

	table := ui.Table([]string{"ID", "Project", "Issues", "Created"})
	for _, snap := range snaps {
		table.Append([]string{
			snap.ID,
			snap.ProjectKey,
			strconv.Itoa(len(snap.Issues)),
			snap.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	return nil
}

func snapshotsPruneRun(cmd *cobra.Command) error {
	if pruneKeep < 1 {
		return fmt.Errorf("--keep must be at least 1")
	}
	if dryRun {
		ui.DryRunMsg("Would prune snapshots, keeping the newest %d", pruneKeep)
		return nil
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	n, err := s.PruneSnapshots(cmd.Context(), pruneKeep)
	if err != nil {
		return err
	}
	ui.Success("Pruned %d snapshot(s)", n)
	return nil
}
