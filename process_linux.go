package portwatch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func platformProcessController() ProcessController {
	return &linuxProcessController{procRoot: "/proc"}
}

// Reads the live connection table straight from procfs. Sockets are
// matched to processes through their inode: /proc/net/tcp lists listening
// sockets with inodes, /proc/<pid>/fd links processes to them.
type linuxProcessController struct {
	procRoot string
}

func (c *linuxProcessController) Table() (map[int]ProcessInfo, error) {
	inodes := make(map[uint64]int)
	for _, name := range []string{"net/tcp", "net/tcp6"} {
		f, err := os.Open(filepath.Join(c.procRoot, name))
		if err != nil {
			continue
		}
		parseSocketTable(f, inodes)
		f.Close()
	}
	if len(inodes) == 0 {
		return map[int]ProcessInfo{}, nil
	}
	return c.matchInodes(inodes)
}

func (c *linuxProcessController) Kill(pid int) error {
	return killProcess(pid)
}

// tcpListenState is the st column value for LISTEN in /proc/net/tcp
const tcpListenState = "0A"

// Collects listening sockets from a /proc/net/tcp style table into a
// inode to local-port mapping. Unparseable lines are skipped; procfs is
// not a format worth failing over.
func parseSocketTable(r io.Reader, into map[uint64]int) {
	scanner := bufio.NewScanner(r)
	// header line
	scanner.Scan()

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 || fields[3] != tcpListenState {
			continue
		}

		// local_address is hexip:hexport
		_, portHex, ok := strings.Cut(fields[1], ":")
		if !ok {
			continue
		}
		port, err := strconv.ParseInt(portHex, 16, 32)
		if err != nil {
			continue
		}
		inode, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil {
			continue
		}
		into[inode] = int(port)
	}
}

// Walks /proc/<pid>/fd looking for the sockets we care about. Processes we
// may not inspect are skipped, which leaves their ports unresolved rather
// than failing the whole pass.
func (c *linuxProcessController) matchInodes(inodes map[uint64]int) (map[int]ProcessInfo, error) {
	entries, err := os.ReadDir(c.procRoot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read proc")
	}

	table := make(map[int]ProcessInfo)
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		fdDir := filepath.Join(c.procRoot, entry.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			// no privilege for this process, or it just exited
			continue
		}

		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			var inode uint64
			if _, err := fmt.Sscanf(link, "socket:[%d]", &inode); err != nil {
				continue
			}
			port, ok := inodes[inode]
			if !ok {
				continue
			}
			table[port] = ProcessInfo{PID: pid, Name: c.processName(pid)}
		}
	}
	return table, nil
}

func (c *linuxProcessController) processName(pid int) string {
	comm, err := os.ReadFile(filepath.Join(c.procRoot, strconv.Itoa(pid), "comm"))
	if err != nil {
		return UnknownProcess
	}
	return strings.TrimSpace(string(comm))
}
