package portwatch

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ActionState uint8

const (
	// Browsing the open-port rows of a snapshot
	Listing ActionState = iota
	// One row selected for inspection and actions
	Inspecting
	// Terminal: the operator left the workflow
	Idle
)

var (
	ErrInvalidSelection = errors.New("no such row")
	ErrRemoteTarget     = errors.New("process actions are limited to local targets")
	ErrNotInspecting    = errors.New("no row selected")
)

// ActionController drives the post-scan workflow over a completed
// snapshot: select a row, inspect it, request a kill, request an export.
// It runs strictly single-threaded and never mutates the snapshot; the
// only bookkeeping it keeps is a stale flag per killed row.
type ActionController struct {
	snap     *Snapshot
	procs    ProcessController
	exporter Exporter

	state ActionState
	rows  []Result
	row   int
	stale map[int]bool
}

func NewActionController(snap *Snapshot, procs ProcessController, exporter Exporter) *ActionController {
	return &ActionController{
		snap:     snap,
		procs:    procs,
		exporter: exporter,
		state:    Listing,
		rows:     snap.Open(),
		stale:    make(map[int]bool),
	}
}

func (c *ActionController) State() ActionState {
	return c.state
}

// The rows the operator can act on: the open subset, in port order.
func (c *ActionController) Rows() []Result {
	return c.rows
}

// A row whose process was terminated after the scan. Its pid and name are
// stale until a rescan.
func (c *ActionController) Stale(row int) bool {
	return c.stale[row]
}

// Listing -> Inspecting. An invalid index keeps the controller in Listing
// and reports the selection error.
func (c *ActionController) Select(row int) error {
	if c.state != Listing {
		return errors.Wrapf(ErrInvalidSelection, "not listing")
	}
	if row < 0 || row >= len(c.rows) {
		return errors.Wrapf(ErrInvalidSelection, "row %d of %d", row, len(c.rows))
	}
	c.row = row
	c.state = Inspecting
	return nil
}

// The row under inspection.
func (c *ActionController) Current() (Result, bool) {
	if c.state != Inspecting {
		return Result{}, false
	}
	return c.rows[c.row], true
}

// Inspecting -> Listing.
func (c *ActionController) Back() {
	if c.state == Inspecting {
		c.state = Listing
	}
}

// Requests termination of the inspected row's owning process. Success goes
// back to Listing with the row flagged stale. ErrProcessNotFound and
// ErrPermissionDenied are reported to the caller without corrupting the
// snapshot or the workflow. Remote targets are rejected here as a backstop;
// the UI layer disables the action before it gets this far.
func (c *ActionController) Kill() error {
	if c.state != Inspecting {
		return ErrNotInspecting
	}
	if !c.snap.Target.Local {
		return ErrRemoteTarget
	}

	row := c.rows[c.row]
	if row.PID <= 0 {
		return errors.Wrapf(ErrProcessNotFound, "port %d has no resolved owner", row.Port)
	}

	if err := c.procs.Kill(row.PID); err != nil {
		return errors.Wrapf(err, "failed to kill pid %d (port %d)", row.PID, row.Port)
	}

	log.Info().Int("pid", row.PID).Uint16("port", row.Port).Msg("process terminated")
	c.stale[c.row] = true
	c.state = Listing
	return nil
}

// Serializes the snapshot and hands it to the exporter. Failure is
// reported and changes nothing; a completed save from Inspecting returns
// to Listing.
func (c *ActionController) Save() (string, error) {
	if c.state == Idle {
		return "", errors.New("controller is idle")
	}

	fpath, err := c.exporter.Export(c.snap)
	if err != nil {
		return "", err
	}
	if c.state == Inspecting {
		c.state = Listing
	}
	return fpath, nil
}

// Any state -> Idle. The workflow is over.
func (c *ActionController) Quit() {
	c.state = Idle
}
