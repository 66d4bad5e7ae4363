package portwatch

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Defaults match the original tool: development port territory.
	DefaultStartPort = 8000
	DefaultEndPort   = 9000
)

var ErrInvalidRange = fmt.Errorf("port range must satisfy 1 <= start <= end <= 65535")

// An inclusive TCP port range. Both bounds are part of the sweep.
type PortSpec struct {
	Start uint16 `json:"start"`
	End   uint16 `json:"end"`
}

// Validates bounds before a spec reaches the scanner. This is the only
// fatal pre-scan check; everything past it degrades instead of aborting.
func MakePortSpec(start, end int) (PortSpec, error) {
	if start < 1 || end < 1 || start > 65535 || end > 65535 || start > end {
		return PortSpec{}, fmt.Errorf("%w: got %d-%d", ErrInvalidRange, start, end)
	}
	return PortSpec{Start: uint16(start), End: uint16(end)}, nil
}

// Accepts "8080" for a single port or "8000-9000" for a range.
func ParsePortSpec(v string) (PortSpec, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return PortSpec{}, fmt.Errorf("%w: empty spec", ErrInvalidRange)
	}

	if !strings.Contains(v, "-") {
		p, err := strconv.Atoi(v)
		if err != nil {
			return PortSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, v)
		}
		return MakePortSpec(p, p)
	}

	bounds := strings.SplitN(v, "-", 2)
	start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
	if err != nil {
		return PortSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, v)
	}
	end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
	if err != nil {
		return PortSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, v)
	}
	return MakePortSpec(start, end)
}

func (s PortSpec) Count() int {
	return int(s.End) - int(s.Start) + 1
}

// Ports in ascending order. The scanner feeds these to its work queue.
func (s PortSpec) Ports() []uint16 {
	ports := make([]uint16, 0, s.Count())
	for p := int(s.Start); p <= int(s.End); p++ {
		ports = append(ports, uint16(p))
	}
	return ports
}

func (s PortSpec) String() string {
	if s.Start == s.End {
		return strconv.Itoa(int(s.Start))
	}
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}
