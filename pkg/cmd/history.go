package cmd

import (
	"fmt"

	"github.com/portwatch"
	"github.com/spf13/cobra"
)

type HistoryFlags struct {
	Limit int
	Out   string
}

func historyCommand(conf *portwatch.Configuration) *cobra.Command {
	var f HistoryFlags

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			history := portwatch.NewHistory(conf.HistoryDB())
			records, err := history.Snapshots(f.Limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			header.Fprintf(out, "%-38s %-20s %-12s %-6s %s\n",
				"ID", "TARGET", "PORTS", "BUSY", "WHEN")
			for _, rec := range records {
				spec := portwatch.PortSpec{Start: rec.StartPort, End: rec.EndPort}
				fmt.Fprintf(out, "%-38s %-20s %-12s %-6d %s\n",
					rec.SnapshotID, rec.Target, spec.String(), rec.OpenPorts,
					rec.Taken.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 20, "How many scans to list")
	cmd.AddCommand(historyExportCommand(conf, &f))

	return cmd
}

// Re-export a recorded snapshot without re-scanning.
func historyExportCommand(conf *portwatch.Configuration, f *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [snapshot-id]",
		Short: "Write a recorded snapshot back out as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history := portwatch.NewHistory(conf.HistoryDB())
			snap, err := history.Snapshot(args[0])
			if err != nil {
				return err
			}

			dir := f.Out
			if dir == "" {
				dir = conf.Exports()
			}
			exporter := &portwatch.FileExporter{Dir: dir}
			fpath, err := exporter.Export(snap)
			if err != nil {
				return err
			}
			freeMark.Fprintf(cmd.OutOrStdout(), "snapshot saved to %s\n", fpath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.Out, "out", "o", "", "Directory for the exported snapshot")
	return cmd
}
