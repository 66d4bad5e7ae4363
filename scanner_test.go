package portwatch

import (
	"context"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

var errRefused = &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

// A dialer with scripted outcomes per port: listed open ports accept,
// listed closed ports refuse, everything else times out.
func scriptedDialer(open, closed map[uint16]bool) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		_, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		p, _ := strconv.Atoi(portStr)

		switch {
		case open[uint16(p)]:
			c1, c2 := net.Pipe()
			go func() {
				// swallow whatever the prober sends and hang up
				c2.SetDeadline(time.Now().Add(time.Second))
				buf := make([]byte, 64)
				c2.Read(buf)
				c2.Close()
			}()
			return c1, nil
		case closed[uint16(p)]:
			return nil, errRefused
		default:
			<-ctx.Done()
			return nil, ctx.Err()
		}
	}
}

func fakeScanner(workers int, timeout time.Duration, dial DialFunc) *Scanner {
	return &Scanner{workers: workers, timeout: timeout, dial: dial}
}

func TestScanClassification(t *testing.T) {
	open := map[uint16]bool{22: true}
	closed := map[uint16]bool{20: true, 21: true, 24: true, 25: true}
	s := fakeScanner(4, 20*time.Millisecond, scriptedDialer(open, closed))

	spec := PortSpec{Start: 20, End: 25}
	results := s.Scan(context.Background(), Target{Addr: "127.0.0.1", Local: true}, spec)

	if len(results) != spec.Count() {
		t.Fatalf("expected %d results, got %d", spec.Count(), len(results))
	}
	for i, r := range results {
		if int(r.Port) != 20+i {
			t.Fatalf("results out of order: port %d at index %d", r.Port, i)
		}

		var want PortState
		switch {
		case open[r.Port]:
			want = PortOpen
		case closed[r.Port]:
			want = PortClosed
		default:
			want = PortFiltered
		}
		if r.State != want {
			t.Errorf("port %d: expected %s, got %s", r.Port, want, r.State)
		}
	}
}

func TestScanUnreachableHost(t *testing.T) {
	// nothing scripted: every attempt times out
	s := fakeScanner(8, 10*time.Millisecond, scriptedDialer(nil, nil))

	results := s.Scan(context.Background(), Target{Addr: "192.0.2.1"}, PortSpec{Start: 80, End: 99})
	if len(results) != 20 {
		t.Fatalf("expected 20 results, got %d", len(results))
	}
	for _, r := range results {
		if r.State != PortFiltered {
			t.Fatalf("port %d: expected filtered, got %s", r.Port, r.State)
		}
	}
}

func TestScanConcurrencyBound(t *testing.T) {
	const workers = 5

	var inflight, peak atomic.Int64
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			max := peak.Load()
			if cur <= max || peak.CompareAndSwap(max, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return nil, errRefused
	}

	s := fakeScanner(workers, 50*time.Millisecond, dial)
	s.Scan(context.Background(), Target{Addr: "127.0.0.1"}, PortSpec{Start: 9000, End: 9099})

	if got := peak.Load(); got > workers {
		t.Fatalf("in-flight probes peaked at %d, bound is %d", got, workers)
	}
}

func TestScanCancelKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	dial := func(dialCtx context.Context, network, addr string) (net.Conn, error) {
		if calls.Add(1) == 500 {
			cancel()
		}
		return nil, errRefused
	}

	s := fakeScanner(10, 50*time.Millisecond, dial)
	results := s.Scan(ctx, Target{Addr: "127.0.0.1"}, PortSpec{Start: 1000, End: 1999})

	if len(results) == 0 {
		t.Fatal("expected the partial results gathered before cancellation")
	}
	if len(results) == 1000 {
		t.Fatal("cancellation did not stop the sweep")
	}

	seen := make(map[uint16]bool)
	last := -1
	for _, r := range results {
		if seen[r.Port] {
			t.Fatalf("duplicate result for port %d", r.Port)
		}
		seen[r.Port] = true
		if int(r.Port) <= last {
			t.Fatalf("partial results not sorted at port %d", r.Port)
		}
		last = int(r.Port)
	}
}

// Sweeps a real loopback listener, then the same port once it is gone.
func TestScanLoopbackListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	spec := PortSpec{Start: uint16(port), End: uint16(port)}
	target := Target{Host: "127.0.0.1", Addr: "127.0.0.1", Local: true}
	s := NewScanner(4, 500*time.Millisecond)

	results := s.Scan(context.Background(), target, spec)
	if len(results) != 1 || results[0].State != PortOpen {
		t.Fatalf("expected a single open result, got %+v", results)
	}

	ln.Close()
	results = s.Scan(context.Background(), target, spec)
	if len(results) != 1 || results[0].State != PortClosed {
		t.Fatalf("expected a single closed result after shutdown, got %+v", results)
	}
}
