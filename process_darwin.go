package portwatch

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func platformProcessController() ProcessController {
	return &darwinProcessController{}
}

// Darwin has no procfs; lsof is the stable way at the listening sockets.
type darwinProcessController struct{}

func (c *darwinProcessController) Table() (map[int]ProcessInfo, error) {
	out, err := exec.Command("lsof", "-nP", "-iTCP", "-sTCP:LISTEN", "-Fpcn").Output()
	if err != nil {
		return nil, errors.Wrap(err, "lsof failed")
	}
	return parseLsofTable(string(out)), nil
}

func (c *darwinProcessController) Kill(pid int) error {
	return killProcess(pid)
}

// lsof -F emits one field per line: p<pid>, c<command>, then n<address>
// per socket. pid and command stick until the next p line.
func parseLsofTable(out string) map[int]ProcessInfo {
	table := make(map[int]ProcessInfo)

	var pid int
	var name string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case 'p':
			pid, _ = strconv.Atoi(line[1:])
		case 'c':
			name = line[1:]
		case 'n':
			idx := strings.LastIndexByte(line, ':')
			if idx < 0 {
				continue
			}
			port, err := strconv.Atoi(line[idx+1:])
			if err != nil || pid == 0 {
				continue
			}
			table[port] = ProcessInfo{PID: pid, Name: name}
		}
	}
	return table
}
