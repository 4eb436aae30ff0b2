package engine

// barrier is a two-party reusable rendezvous point (spec §4.4/§9): both
// the calc driver and the load driver call Wait once per window boundary;
// neither proceeds until both have arrived. Unlike sync.WaitGroup, a
// barrier can be waited on repeatedly without re-constructing it — each
// Wait pairs exactly one calc-side call with one load-side call, then
// resets itself for the next window.
//
// This is the channel-based "bounded channel of window-ready tokens"
// formulation Design Notes §9 calls out as an acceptable equivalent to a
// native two-party barrier primitive.
type barrier struct {
	arrive chan struct{}
	depart chan struct{}
}

func newBarrier() *barrier {
	return &barrier{
		arrive: make(chan struct{}),
		depart: make(chan struct{}),
	}
}

// wait rendezvous with the other party. Exactly two goroutines may call
// wait per round; a third call without an intervening round deadlocks,
// which is intentional — this barrier is two-party by construction, not
// general n-party.
func (b *barrier) wait() {
	select {
	case b.arrive <- struct{}{}:
		// We arrived first; block until the other party departs.
		<-b.depart
	case <-b.arrive:
		// We are the second party; release the first.
		b.depart <- struct{}{}
	}
}
