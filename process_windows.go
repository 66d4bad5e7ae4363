package portwatch

import (
	"encoding/csv"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func platformProcessController() ProcessController {
	return &windowsProcessController{}
}

// netstat for the socket table, tasklist for pid names, taskkill for
// termination. All three ship with the OS.
type windowsProcessController struct{}

func (c *windowsProcessController) Table() (map[int]ProcessInfo, error) {
	out, err := exec.Command("netstat", "-ano", "-p", "tcp").Output()
	if err != nil {
		return nil, errors.Wrap(err, "netstat failed")
	}

	names, err := c.processNames()
	if err != nil {
		names = map[int]string{}
	}

	table := make(map[int]ProcessInfo)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// Proto Local Foreign State PID
		if len(fields) < 5 || fields[0] != "TCP" || fields[3] != "LISTENING" {
			continue
		}
		idx := strings.LastIndexByte(fields[1], ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(fields[1][idx+1:])
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(fields[4])
		if err != nil {
			continue
		}

		name, ok := names[pid]
		if !ok {
			name = UnknownProcess
		}
		table[port] = ProcessInfo{PID: pid, Name: name}
	}
	return table, nil
}

func (c *windowsProcessController) processNames() (map[int]string, error) {
	out, err := exec.Command("tasklist", "/FO", "CSV", "/NH").Output()
	if err != nil {
		return nil, errors.Wrap(err, "tasklist failed")
	}

	names := make(map[int]string)
	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "unexpected tasklist output")
	}
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		pid, err := strconv.Atoi(rec[1])
		if err != nil {
			continue
		}
		names[pid] = rec[0]
	}
	return names, nil
}

func (c *windowsProcessController) Kill(pid int) error {
	if pid <= 0 {
		return ErrProcessNotFound
	}

	out, err := exec.Command("taskkill", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err == nil {
		return nil
	}

	msg := strings.ToLower(string(out))
	switch {
	case strings.Contains(msg, "not found"):
		return ErrProcessNotFound
	case strings.Contains(msg, "denied"):
		return ErrPermissionDenied
	default:
		return errors.Wrapf(err, "taskkill failed for pid %d", pid)
	}
}
