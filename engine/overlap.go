package engine

// overlapPlanner partitions encoder/decoder layers into permanent-resident
// and windowed layers, and sizes the two auxiliary ring pools A and B used
// for double-buffered prefetch (spec §4.3).
//
// The arithmetic below mirrors original_source/bminf/arch/t5/model.py's
// T5.__init__ overlap_size computation line-for-line: s is the maximum
// per-layer byte size across encoder and decoder, W is the window, and M
// is max(Le, Ld).
type overlapPlanner struct {
	m, w       int
	perLayer   int64 // s
	poolABytes int64 // pool A capacity, 0 if absent
	poolBBytes int64 // pool B capacity, 0 if absent
	permanent  int   // number of permanently resident layers per side
}

// newOverlapPlanner builds a plan for M = max(Le, Ld) total layers per
// side, window W, and per-layer byte size s (the max over encoder and
// decoder layer sizes). It does not itself check the memory limit; callers
// combine totalBytes() with the caller's other/dynamic reservations
// (see ModelBuilder.ResolveOverlapWindow and ModelBuilder.Build).
func newOverlapPlanner(m, w int, perLayer int64) (*overlapPlanner, error) {
	if w < 1 {
		return nil, newErr(ErrBadConfig, "overlap window must be >= 1, got %d", w)
	}
	p := &overlapPlanner{m: m, w: w, perLayer: perLayer}
	switch {
	case w >= m:
		// W >= M: all layers permanent, no overlap needed.
		p.permanent = m
	case 2*w >= m:
		// first W permanent; tail streamed through pool B alone.
		p.permanent = w
		p.poolBBytes = int64(m-w) * perLayer
	case 3*w >= m:
		// first W permanent; next windows alternate A/B.
		p.permanent = w
		p.poolABytes = int64(m-2*w) * perLayer
		p.poolBBytes = int64(w) * perLayer
	default:
		// strict double-buffer ping-pong.
		p.permanent = w
		p.poolABytes = int64(w) * perLayer
		p.poolBBytes = int64(w) * perLayer
	}
	return p, nil
}

// totalBytes returns the bytes this plan needs for permanent residency
// plus both ring pools (mirrors the original's "overlap_size" quantity,
// generalized from a hardcoded 2x/3x/4x multiple of mx_size into the same
// permanent+poolA+poolB accounting that ModelBuilder.Build allocates).
func (p *overlapPlanner) totalBytes() int64 {
	return int64(p.permanent)*p.perLayer*2 + p.poolABytes + p.poolBBytes
}

// ringPoolIndex returns which of the two ring pools (0=A, 1=B) should hold
// the window starting at layer index i, per spec §4.4:
// "reset one of the two ring pools (chosen by ((i + W) / W) mod 2)".
func ringPoolIndex(i, w int) int {
	return ((i + w) / w) % 2
}
