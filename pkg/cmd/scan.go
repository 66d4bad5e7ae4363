package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/portwatch"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type ScanFlags struct {
	Start   int
	End     int
	Port    int
	Timeout time.Duration
	Workers int

	// Display
	ShowFree bool
	ShowAll  bool
	// Surface the filtered/closed distinction instead of collapsing
	// both into "closed"
	Filtered bool

	// Skip the interactive menu, e.g. for scripted runs
	NoMenu bool
	// Export destination override
	Out string
}

func (f ScanFlags) spec() (portwatch.PortSpec, error) {
	if f.Port > 0 {
		return portwatch.MakePortSpec(f.Port, f.Port)
	}
	return portwatch.MakePortSpec(f.Start, f.End)
}

func scanCommand(conf *portwatch.Configuration) *cobra.Command {
	var f ScanFlags

	cmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Sweep a port range and inspect what holds the open ports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec()
			if err != nil {
				return err
			}

			var host string
			if len(args) > 0 {
				host = args[0]
			}

			// the sweep stops between port attempts on interrupt and
			// keeps whatever was gathered so far
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			watcher := portwatch.NewWatcher(f.Workers, f.Timeout)
			snap, err := watcher.Run(ctx, host, spec)
			if err != nil {
				return err
			}

			history := portwatch.NewHistory(conf.HistoryDB())
			if err := history.SaveSnapshot(snap); err != nil {
				// history is a convenience, the scan output still stands
				log.Warn().Err(err).Msg("failed to record scan in history")
			}

			out := cmd.OutOrStdout()
			renderSnapshot(out, snap, f)

			if f.NoMenu {
				return nil
			}

			dir := f.Out
			if dir == "" {
				dir = conf.Exports()
			}
			exporter := &portwatch.FileExporter{Dir: dir}
			ctrl := portwatch.NewActionController(snap, watcher.Processes(), exporter)
			return runMenu(cmd.InOrStdin(), out, ctrl)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.Start, "start", "s", portwatch.DefaultStartPort, "Starting port number")
	flags.IntVarP(&f.End, "end", "e", portwatch.DefaultEndPort, "Ending port number")
	flags.IntVarP(&f.Port, "port", "p", 0, "Check a single specific port")
	flags.DurationVarP(&f.Timeout, "timeout", "t", 500*time.Millisecond, "Connection timeout per port")
	flags.IntVarP(&f.Workers, "workers", "w", portwatch.DefaultWorkers, "Concurrent probe workers")
	flags.BoolVarP(&f.ShowFree, "show-free", "f", false, "Show free ports instead of busy ports")
	flags.BoolVarP(&f.ShowAll, "show-all", "a", false, "Show both busy and free ports")
	flags.BoolVar(&f.Filtered, "filtered", false, "Distinguish filtered (no response) from closed (refused)")
	flags.BoolVar(&f.NoMenu, "no-menu", false, "Print results and exit without the interactive menu")
	flags.StringVarP(&f.Out, "out", "o", "", "Directory for exported snapshots")

	return cmd
}
