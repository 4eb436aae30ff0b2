package engine

import (
	"sync"

	"github.com/smallnest/ringbuffer"
)

// bounceBufferSize is the size of the pinned bounce buffer every Stream
// stages host->device copies through, rather than assuming an
// arbitrarily large one-shot DMA transfer.
const bounceBufferSize = 1 << 20

// Stream models one of the two GPU command queues of spec §5 (the calc
// stream and the load stream): work submitted to a Stream executes in
// submission order, and Synchronize blocks until everything submitted so
// far has completed, surfacing the first error encountered.
//
// A real backend would submit actual CUDA-style async kernels here; since
// those kernels are an assumed external primitive (spec §1), Submit's
// funcs stand in for "schedule this work on the stream" and run
// synchronously in FIFO order on the Stream's own goroutine, which is
// sufficient to preserve the ordering and barrier-timing guarantees spec
// §4.4/§5 require without needing a real accelerator.
type Stream struct {
	name string
	work chan func() error
	done chan struct{}

	mu      sync.Mutex
	pending int
	errOnce sync.Once
	err     error
	flushed chan struct{}

	bounce *ringbuffer.RingBuffer
}

// NewStream starts a Stream's background worker goroutine.
func NewStream(name string) *Stream {
	s := &Stream{
		name:   name,
		work:   make(chan func() error, 64),
		done:   make(chan struct{}),
		bounce: ringbuffer.New(bounceBufferSize).SetBlocking(true),
	}
	go s.run()
	return s
}

// StageCopy simulates moving n bytes through this stream's fixed-size
// pinned bounce buffer, chunked to bounceBufferSize, mirroring how a real
// DMA engine stages a host->device copy through a bounded staging region
// rather than the full transfer size at once.
func (s *Stream) StageCopy(n int64) error {
	chunk := make([]byte, bounceBufferSize)
	for n > 0 {
		c := int64(len(chunk))
		if n < c {
			c = n
		}
		if _, err := s.bounce.Write(chunk[:c]); err != nil {
			return err
		}
		if _, err := s.bounce.Read(chunk[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}

func (s *Stream) run() {
	for fn := range s.work {
		err := fn()
		s.mu.Lock()
		if err != nil {
			s.errOnce.Do(func() { s.err = err })
		}
		s.pending--
		if s.pending == 0 && s.flushed != nil {
			close(s.flushed)
			s.flushed = nil
		}
		s.mu.Unlock()
	}
	close(s.done)
}

// Submit enqueues fn to run on this stream in order.
func (s *Stream) Submit(fn func() error) {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()
	s.work <- fn
}

// Synchronize blocks until every submitted func has completed and returns
// the first error any of them produced, mirroring cudaStreamSynchronize.
func (s *Stream) Synchronize() error {
	s.mu.Lock()
	if s.pending == 0 {
		err := s.err
		s.mu.Unlock()
		return err
	}
	wait := make(chan struct{})
	s.flushed = wait
	s.mu.Unlock()

	<-wait

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	return err
}

// Close stops the stream's worker goroutine. Callers must Synchronize
// first if they need to observe pending errors.
func (s *Stream) Close() {
	close(s.work)
	<-s.done
}
