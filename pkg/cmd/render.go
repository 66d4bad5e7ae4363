package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/portwatch"
)

var (
	header   = color.New(color.FgCyan, color.Bold)
	busyMark = color.New(color.FgRed)
	freeMark = color.New(color.FgGreen)
	warnMark = color.New(color.FgYellow)
)

// Per-state row label. The filtered/closed distinction is collapsed unless
// the operator asked for it.
func stateLabel(state portwatch.PortState, filtered bool) string {
	if !filtered && state == portwatch.PortFiltered {
		return portwatch.PortClosed.String()
	}
	return state.String()
}

func renderSnapshot(w io.Writer, snap *portwatch.Snapshot, f ScanFlags) {
	header.Fprintf(w, "\n%s  ports %s\n", snap.Target.Addr, snap.Spec.String())

	showBusy := !f.ShowFree || f.ShowAll
	showFree := f.ShowFree || f.ShowAll

	fmt.Fprintf(w, "%-8s %-10s %-8s %-16s %s\n", "PORT", "STATE", "PID", "PROCESS", "BANNER")
	for _, r := range snap.Results {
		open := r.State == portwatch.PortOpen
		if open && !showBusy || !open && !showFree {
			continue
		}

		mark := freeMark
		if open {
			mark = busyMark
		}
		pid := "-"
		if r.PID > 0 {
			pid = fmt.Sprintf("%d", r.PID)
		}
		name := r.ProcessName
		if name == "" {
			name = "-"
		}
		mark.Fprintf(w, "%-8d %-10s %-8s %-16s %s\n",
			r.Port, stateLabel(r.State, f.Filtered), pid, name, r.Banner)
	}

	renderSummary(w, snap)
}

func renderSummary(w io.Writer, snap *portwatch.Snapshot) {
	total := len(snap.Results)
	open := snap.Count(portwatch.PortOpen)
	secs := snap.Elapsed.Seconds()

	header.Fprintf(w, "\nscan summary\n")
	fmt.Fprintf(w, "  scanned: %d  busy: %d  free: %d\n", total, open, total-open)
	if secs > 0 {
		fmt.Fprintf(w, "  elapsed: %.2fs (%.0f ports/sec)\n", secs, float64(total)/secs)
	}
	if open == 0 {
		freeMark.Fprintln(w, "  no busy ports found")
	}
}

func renderRows(w io.Writer, ctrl *portwatch.ActionController) {
	rows := ctrl.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "nothing to act on: no open ports in this snapshot")
		return
	}

	header.Fprintln(w, "\n#    PORT     PID      PROCESS")
	for i, r := range rows {
		pid := "-"
		if r.PID > 0 {
			pid = fmt.Sprintf("%d", r.PID)
		}
		stale := ""
		if ctrl.Stale(i) {
			stale = warnMark.Sprint("  (stale, rescan to refresh)")
		}
		fmt.Fprintf(w, "%-4d %-8d %-8s %s%s\n", i, r.Port, pid, r.ProcessName, stale)
	}
}

func renderRow(w io.Writer, r portwatch.Result) {
	header.Fprintf(w, "\nport %d\n", r.Port)
	fmt.Fprintf(w, "  state:   %s\n", r.State)
	if r.PID > 0 {
		fmt.Fprintf(w, "  pid:     %d\n", r.PID)
	}
	if r.ProcessName != "" {
		fmt.Fprintf(w, "  process: %s\n", r.ProcessName)
	}
	if r.Banner != "" {
		fmt.Fprintf(w, "  banner:  %s\n", r.Banner)
	}
}
