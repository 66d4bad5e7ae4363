package portwatch

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Watcher wires the pipeline together: resolve the target once, sweep the
// range, then enrich open ports with owning processes and banners before
// the snapshot is assembled. Enrichment runs after the sweep so the OS
// connection table is read exactly once, without worker contention.
type Watcher struct {
	resolver Resolver
	scanner  *Scanner
	banner   *BannerProbe
	procs    ProcessController

	workers int
}

func NewWatcher(workers int, timeout time.Duration) *Watcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Watcher{
		resolver: NewResolver(),
		scanner:  NewScanner(workers, timeout),
		banner:   NewBannerProbe(timeout),
		procs:    SystemProcessController(),
		workers:  workers,
	}
}

func (w *Watcher) Processes() ProcessController {
	return w.procs
}

// Run executes one full scan and returns its snapshot. Only target
// resolution can fail; per-port outcomes are classifications, not errors,
// and a cancelled context yields the partial snapshot gathered so far.
func (w *Watcher) Run(ctx context.Context, host string, spec PortSpec) (*Snapshot, error) {
	target, err := w.resolver.Resolve(host)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve scan target")
	}

	log.Info().
		Str("target", target.Addr).
		Str("ports", spec.String()).
		Bool("local", target.Local).
		Msg("starting sweep")

	started := time.Now()
	results := w.scanner.Scan(ctx, target, spec)

	ResolveProcesses(w.procs, target, results)
	w.grabBanners(ctx, target, results)

	snap := BuildSnapshot(target, spec, results)
	snap.Elapsed = time.Since(started)
	return snap, nil
}

// Banner capture fans out across open ports only, bounded by the same
// worker cap as the sweep.
func (w *Watcher) grabBanners(ctx context.Context, target Target, results []Result) {
	sem := make(chan struct{}, w.workers)
	var wg sync.WaitGroup

	for i := range results {
		if results[i].State != PortOpen {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(r *Result) {
			defer wg.Done()
			defer func() { <-sem }()
			r.Banner = w.banner.Grab(ctx, target.Addr, r.Port)
		}(&results[i])
	}
	wg.Wait()
}
