package engine

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

// noRingTag marks a ring pool slot as not currently holding any window.
const noRingTag = int64(math.MinInt64)

// overlapRingState is the "two slots, each carrying a signed integer whose
// sign distinguishes encoder (+) from decoder (−) phase" of spec §3
// ("Overlap status"). It is shared by the encoder and decoder prefetch
// passes of one Model so a ring pool need not be re-filled if it already
// holds the requested window under the requested phase.
type overlapRingState struct {
	mu         sync.Mutex
	tagA, tagB int64
}

func newOverlapRingState() *overlapRingState {
	return &overlapRingState{tagA: noRingTag, tagB: noRingTag}
}

func ringTag(windowStart int, decoder bool) int64 {
	if decoder {
		return -int64(windowStart) - 1
	}
	return int64(windowStart)
}

// runPrefetchPass drives the two cooperating single-goroutine streams of
// spec §4.4/§5 over layers[0:n]. The first w layers are assumed
// already DEVICE-resident (uploaded once outside any pass); the remainder
// are streamed window-by-window through poolA/poolB under the calc driver's
// barrier-gated cursor. compute(i) is invoked by the calc driver, in order,
// once layer i's parameters are guaranteed resident.
func runPrefetchPass(
	layers []*ParamLayer,
	w int,
	ring *overlapRingState,
	poolA, poolB *ReusedAllocator,
	calcStream, loadStream *Stream,
	decoder bool,
	compute func(i int) error,
) error {
	n := len(layers)
	if n == 0 {
		return nil
	}
	bar := newBarrier()
	g, _ := errgroup.WithContext(context.Background())

	// A failing load driver closes loadFailed and then meets the calc
	// driver at its next barrier wait, so the calc side aborts the pass
	// instead of blocking forever.
	loadFailed := make(chan struct{})
	abort := func(err error) error {
		close(loadFailed)
		bar.wait()
		return err
	}

	g.Go(func() error {
		for i := 0; i < n; i++ {
			if i%w == 0 {
				if err := calcStream.Synchronize(); err != nil {
					return wrapErr(ErrPrefetchFailed, err, "calc stream sync before layer %d", i)
				}
				bar.wait()
				select {
				case <-loadFailed:
					return newErr(ErrPrefetchFailed, "load driver failed before layer %d", i)
				default:
				}
			}
			if err := compute(i); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		for i := 0; i < n; i += w {
			if err := loadStream.Synchronize(); err != nil {
				return abort(wrapErr(ErrPrefetchFailed, err, "load stream sync at boundary %d", i))
			}
			bar.wait()

			if i+w >= n {
				continue
			}
			end := i + 2*w
			if end > n {
				end = n
			}

			pool := poolA
			tagSlot := &ring.tagA
			if ringPoolIndex(i, w) == 1 {
				pool = poolB
				tagSlot = &ring.tagB
			}
			target := ringTag(i+w, decoder)

			ring.mu.Lock()
			hit := *tagSlot == target
			ring.mu.Unlock()
			if hit {
				continue
			}

			pool.Reset()
			for j := i + w; j < end; j++ {
				if err := layers[j].ToDevice(pool, loadStream); err != nil {
					return abort(wrapErr(ErrPrefetchFailed, err, "upload layer %d", j))
				}
			}
			ring.mu.Lock()
			*tagSlot = target
			ring.mu.Unlock()
		}
		return nil
	})

	return g.Wait()
}
