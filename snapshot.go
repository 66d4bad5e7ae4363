package portwatch

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Snapshot is the immutable, ordered result set of one completed scan run.
// Results are sorted ascending by port, one entry per port, regardless of
// worker completion order. A kill issued afterwards does not mutate the
// snapshot; its pid and process name simply go stale until a rescan.
type Snapshot struct {
	ID        string        `json:"id"`
	Target    Target        `json:"target"`
	Spec      PortSpec      `json:"portSpec"`
	Timestamp time.Time     `json:"timestamp"`
	Elapsed   time.Duration `json:"elapsed"`
	Results   []Result      `json:"results"`
}

// Assembles a snapshot from the enriched sweep results. The input slice is
// copied, deduplicated per port and sorted; the caller keeps no handle
// into the stored sequence.
func BuildSnapshot(target Target, spec PortSpec, results []Result) *Snapshot {
	sorted := slices.Clone(results)
	slices.SortFunc(sorted, func(a, b Result) int {
		return int(a.Port) - int(b.Port)
	})
	sorted = slices.CompactFunc(sorted, func(a, b Result) bool {
		return a.Port == b.Port
	})

	return &Snapshot{
		ID:        uuid.NewString(),
		Target:    target,
		Spec:      spec,
		Timestamp: time.Now().UTC(),
		Results:   sorted,
	}
}

// The open subset, in port order.
func (s *Snapshot) Open() []Result {
	var open []Result
	for _, r := range s.Results {
		if r.State == PortOpen {
			open = append(open, r)
		}
	}
	return open
}

func (s *Snapshot) Count(state PortState) int {
	var n int
	for _, r := range s.Results {
		if r.State == state {
			n++
		}
	}
	return n
}

// Pure serialization view. No I/O happens here; writing the bytes
// somewhere is the exporter's business.
func (s *Snapshot) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize snapshot")
	}
	return b, nil
}

// ParseSnapshot is the inverse of Marshal: decoding serialized bytes
// reconstructs an equivalent snapshot.
func ParseSnapshot(b []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to parse snapshot")
	}
	return &snap, nil
}
