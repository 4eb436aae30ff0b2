package engine

import "sync"

// ResidencyState is one of the three places a layer's parameters can live
// (spec §3: "a layer is never partially resident; transitions are atomic
// per layer").
type ResidencyState int

const (
	StateDisk ResidencyState = iota
	StatePinnedHost
	StateDevice
)

func (s ResidencyState) String() string {
	switch s {
	case StateDisk:
		return "DISK"
	case StatePinnedHost:
		return "PINNED_HOST"
	case StateDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ParamLayer tracks the residency state of one layer's parameter bytes and
// mediates the DISK -> PINNED_HOST -> DEVICE transitions of spec §4.2.
// Embedded by EncoderBlock/DecoderBlock and the other parameter-owning
// components (embedding table, LM head, position bias, encoder-KV
// projection).
type ParamLayer struct {
	mu      sync.Mutex
	name    string
	bytes   int64 // nbytes(), fixed at construction
	weights []*Tensor

	state      ResidencyState
	host       []byte // scratch host-side bytes, sized nbytes, page-locked by TryPinned and staged by ToDevice
	pinned     bool
	slice      Slice
	allocGen   uint64 // generation the device slice was issued from, for idempotency
	sliceAlloc *ReusedAllocator
}

// newParamLayer creates a layer in the DISK state owning the given weight
// tensors; nbytes() is the sum of their half-precision footprints. The
// weight tensors are zero-valued until a Deserializer fills them.
func newParamLayer(name string, weights ...*Tensor) *ParamLayer {
	var n int64
	for _, w := range weights {
		n += w.NBytes()
	}
	return &ParamLayer{name: name, bytes: n, weights: weights, host: make([]byte, n), state: StateDisk}
}

// NBytes returns this layer's exact device footprint.
func (l *ParamLayer) NBytes() int64 { return l.bytes }

// Name returns the layer's diagnostic name.
func (l *ParamLayer) Name() string { return l.name }

// State returns the current residency state.
func (l *ParamLayer) State() ResidencyState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Weights returns the layer's parameter tensors, in declared order, for a
// Deserializer to fill.
func (l *ParamLayer) Weights() []*Tensor {
	return l.weights
}

// ToDevice acquires a Slice from alloc, schedules an async host->device
// copy on stream, and records DEVICE residency on that slice. It is
// idempotent within the same allocator generation: a second call before
// the allocator's next Reset is a no-op (spec §4.2).
func (l *ParamLayer) ToDevice(alloc *ReusedAllocator, stream *Stream) error {
	l.mu.Lock()
	if l.state == StateDevice && l.sliceAlloc == alloc && l.allocGen == alloc.generationOf() {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	s, err := alloc.Alloc(l.bytes, 1)
	if err != nil {
		return wrapErr(ErrOutOfPool, err, "layer %s: to_device", l.name)
	}

	l.mu.Lock()
	host := l.host
	l.mu.Unlock()

	stream.Submit(func() error {
		// The actual host->device DMA kernel is the external
		// GPU-math-backend's concern (spec §1); StageCopy still moves
		// the layer's host byte count through a bounded bounce buffer
		// so the upload costs the same data movement the allocator
		// slice accounts for.
		return stream.StageCopy(int64(len(host)))
	})

	l.mu.Lock()
	l.state = StateDevice
	l.slice = s
	l.sliceAlloc = alloc
	l.allocGen = alloc.generationOf()
	l.mu.Unlock()
	return nil
}

// TryPinned page-locks the layer's host buffer in place for faster
// subsequent DMA, if it is not already DEVICE-resident. See
// residency_unix.go / residency_other.go for the platform-specific lock.
func (l *ParamLayer) TryPinned() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateDevice || l.pinned {
		return nil
	}
	if err := mlock(l.host); err != nil {
		return wrapErr(ErrBadConfig, err, "layer %s: page-lock host buffer", l.name)
	}
	l.pinned = true
	l.state = StatePinnedHost
	return nil
}

// RemoveHostData releases the host copy, unlocking it first if it was
// pinned. It does not check the residency state; after it, ToDevice stages
// zero bytes for this layer.
func (l *ParamLayer) RemoveHostData() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pinned {
		_ = munlock(l.host)
		l.pinned = false
	}
	l.host = nil
}
