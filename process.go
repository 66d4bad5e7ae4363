package portwatch

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sentinel shown when a port's owner could not be determined
const UnknownProcess = "unknown"

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrProcessNotFound  = errors.New("process not found")
	// Returned when the connection table of the target cannot be read,
	// e.g. for remote targets
	ErrUnsupported = errors.New("process lookup unsupported for this target")
)

type ProcessInfo struct {
	PID  int
	Name string
}

// ProcessController is the platform capability behind process correlation
// and termination. One implementation per platform, selected at startup;
// nothing above this interface branches on the operating system.
type ProcessController interface {
	// Live listening sockets of the scanning host, keyed by local port
	Table() (map[int]ProcessInfo, error)
	// Attempt to terminate the process. Reports ErrProcessNotFound when
	// the pid already exited and ErrPermissionDenied when the caller may
	// not signal it.
	Kill(pid int) error
}

// SystemProcessController returns the controller for the current platform.
func SystemProcessController() ProcessController {
	return platformProcessController()
}

// ResolveProcesses attaches owning pids and process names to the open
// results. It runs exactly once, after the sweep, against a single read of
// the connection table. Remote targets resolve to unknown across the
// board; so do privilege failures and processes that exited between the
// sweep and this pass.
func ResolveProcesses(ctrl ProcessController, target Target, results []Result) {
	if !target.Local {
		markUnknown(results)
		return
	}

	table, err := ctrl.Table()
	if err != nil {
		log.Warn().Err(err).Msg("connection table unavailable, ports left unresolved")
		markUnknown(results)
		return
	}

	for i := range results {
		if results[i].State != PortOpen {
			continue
		}
		info, ok := table[int(results[i].Port)]
		if !ok {
			// owner exited between sweep and resolution
			results[i].ProcessName = UnknownProcess
			continue
		}
		results[i].PID = info.PID
		results[i].ProcessName = info.Name
	}
}

func markUnknown(results []Result) {
	for i := range results {
		if results[i].State == PortOpen {
			results[i].ProcessName = UnknownProcess
		}
	}
}
