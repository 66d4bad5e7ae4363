package portwatch

import (
	"context"
	"net"
	"slices"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type PortState uint8

const (
	// Connection accepted within the timeout
	PortOpen PortState = iota
	// Connection explicitly refused
	PortClosed
	// No response within the timeout. Reported as closed in the default
	// summary, kept distinct internally for diagnostics.
	PortFiltered
)

var stateNames = map[PortState]string{
	PortOpen:     "open",
	PortClosed:   "closed",
	PortFiltered: "filtered",
}

func (s PortState) String() string {
	return stateNames[s]
}

func (s PortState) MarshalText() ([]byte, error) {
	name, ok := stateNames[s]
	if !ok {
		return nil, errors.Errorf("unknown port state %d", s)
	}
	return []byte(name), nil
}

func (s *PortState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return errors.Errorf("unknown port state %q", text)
}

// The finding for a single probed port. Created by the scanner, enriched
// once by the process and banner passes, then immutable inside a snapshot.
type Result struct {
	Port  uint16    `json:"port"`
	State PortState `json:"state"`
	// Owning process, populated only for open ports on local targets
	PID         int    `json:"pid,omitempty"`
	ProcessName string `json:"processName,omitempty"`
	Banner      string `json:"banner,omitempty"`
}

type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

const DefaultWorkers = 50

// Scanner sweeps a port range with a bounded pool of workers. Workers pull
// ports from a shared queue and collect results into per-worker buffers,
// merged and sorted once at the end, so ordering never depends on
// completion timing.
type Scanner struct {
	workers int
	timeout time.Duration
	dial    DialFunc
}

func NewScanner(workers int, timeout time.Duration) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	d := net.Dialer{Timeout: timeout}
	return &Scanner{workers: workers, timeout: timeout, dial: d.DialContext}
}

// Probe every port in the spec against the target address. Cancelling the
// context stops the sweep between attempts; results already collected are
// still returned, sorted ascending. An unreachable host is not an error,
// it just classifies the whole range as filtered.
func (s *Scanner) Scan(ctx context.Context, target Target, spec PortSpec) []Result {
	ports := spec.Ports()
	queue := make(chan uint16, len(ports))
	for _, p := range ports {
		queue <- p
	}
	close(queue)

	workers := min(s.workers, len(ports))
	buffers := make([][]Result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(buf *[]Result) {
			defer wg.Done()
			for port := range queue {
				select {
				case <-ctx.Done():
					return
				default:
				}
				*buf = append(*buf, s.probe(ctx, target.Addr, port))
			}
		}(&buffers[i])
	}
	wg.Wait()

	var results []Result
	for _, buf := range buffers {
		results = append(results, buf...)
	}
	slices.SortFunc(results, func(a, b Result) int {
		return int(a.Port) - int(b.Port)
	})

	log.Debug().
		Str("target", target.Addr).
		Str("ports", spec.String()).
		Int("probed", len(results)).
		Msg("sweep finished")
	return results
}

func (s *Scanner) probe(ctx context.Context, addr string, port uint16) Result {
	dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	hostport := net.JoinHostPort(addr, strconv.Itoa(int(port)))
	conn, err := s.dial(dialCtx, "tcp", hostport)
	if err == nil {
		conn.Close()
		return Result{Port: port, State: PortOpen}
	}
	return Result{Port: port, State: classify(err)}
}

// Refusal means something answered: the port is closed. Timeouts and
// everything else mean nothing answered: filtered.
func classify(err error) PortState {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return PortClosed
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return PortFiltered
	}
	return PortFiltered
}
