package portwatch

import (
	"strings"
	"testing"
)

// Trimmed /proc/net/tcp: a listener on 8080 (0x1F90), a listener on
// 22 (0x16), and an established connection that must be ignored.
const procNetTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 0100007F:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 33333 1 0000000000000000 100 0 0 10 0
   1: 00000000:0016 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 44444 1 0000000000000000 100 0 0 10 0
   2: 0100007F:A21C 0100007F:1F90 01 00000000:00000000 00:00000000 00000000  1000        0 55555 1 0000000000000000 20 4 30 10 -1
`

func TestParseSocketTable(t *testing.T) {
	inodes := make(map[uint64]int)
	parseSocketTable(strings.NewReader(procNetTCP), inodes)

	if len(inodes) != 2 {
		t.Fatalf("expected 2 listening sockets, got %d: %v", len(inodes), inodes)
	}
	if inodes[33333] != 8080 {
		t.Errorf("inode 33333 should map to port 8080, got %d", inodes[33333])
	}
	if inodes[44444] != 22 {
		t.Errorf("inode 44444 should map to port 22, got %d", inodes[44444])
	}
}

func TestParseSocketTableGarbage(t *testing.T) {
	inodes := make(map[uint64]int)
	parseSocketTable(strings.NewReader("no header\nnot: a real row\n"), inodes)

	if len(inodes) != 0 {
		t.Fatalf("garbage input should yield nothing, got %v", inodes)
	}
}

func TestKillUnknownPid(t *testing.T) {
	ctrl := platformProcessController()
	// pid 0 is never a valid kill target
	if err := ctrl.Kill(0); err != ErrProcessNotFound {
		t.Fatalf("expected ErrProcessNotFound, got %v", err)
	}
}
