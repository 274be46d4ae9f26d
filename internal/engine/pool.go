package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Bruno02468/gifception/internal/logger"
)

// stopMarker is the task value that tells a worker to exit. Frame indices
// are 1-based, so 0 can never be mistaken for one.
const stopMarker = 0

// ErrWaitTimeout reports that workers were still running when the wait
// deadline passed. The run itself is unaffected; waiting again is safe.
var ErrWaitTimeout = errors.New("timed out waiting for frame workers")

// IncompleteError reports that a finished run did not account for every
// frame: fewer completion signals arrived than expected, or tasks were left
// unconsumed by dead workers.
type IncompleteError struct {
	Expected int // completion signals a clean run emits: frames + workers
	Got      int
	Leftover int // tasks no worker ever consumed
	Cause    error
}

func (e *IncompleteError) Error() string {
	msg := fmt.Sprintf("incomplete generation: %d of %d completion signals, %d tasks left unconsumed",
		e.Got, e.Expected, e.Leftover)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (first failure: %v)", e.Cause)
	}
	return msg
}

func (e *IncompleteError) Unwrap() error {
	return e.Cause
}

// RenderFunc produces and persists the frame with the given 1-based index.
type RenderFunc func(frame int) error

// Pool is a fixed-size set of workers draining a task channel of frame
// indices. Every worker runs until it consumes a stop marker; the channels
// are buffered for the whole run (frames plus one stop marker per worker),
// so neither filling the task channel nor emitting results can block.
//
// A worker that hits a render error exits without emitting its completion
// signal or consuming its stop marker. Wait detects the imbalance and
// reports it; failed frames are never retried.
type Pool struct {
	workers   int
	frames    int
	render    RenderFunc
	tasks     chan int
	results   chan int
	wg        sync.WaitGroup
	done      chan struct{}
	completed atomic.Int64

	mu       sync.Mutex
	firstErr error
}

// NewPool sets up a pool of the given size for a run of frames tasks.
// Start actually launches it.
func NewPool(workers, frames int, render RenderFunc) *Pool {
	return &Pool{
		workers: workers,
		frames:  frames,
		render:  render,
		tasks:   make(chan int, frames+workers),
		results: make(chan int, frames+workers),
		done:    make(chan struct{}),
	}
}

// Start queues every frame index followed by one stop marker per worker,
// then launches the workers.
func (p *Pool) Start() {
	for n := 1; n <= p.frames; n++ {
		p.tasks <- n
	}
	for w := 0; w < p.workers; w++ {
		p.tasks <- stopMarker
	}
	for w := 1; w <= p.workers; w++ {
		p.wg.Add(1)
		go p.worker(w)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		n := <-p.tasks
		if n == stopMarker {
			break
		}
		if err := p.render(n); err != nil {
			p.recordErr(n, err)
			logger.Log.WithFields(logrus.Fields{
				"worker": id,
				"frame":  n,
			}).Errorf("frame render failed: %v", err)
			return
		}
		p.completed.Add(1)
		p.results <- n
	}
	p.results <- stopMarker
}

func (p *Pool) recordErr(frame int, err error) {
	p.mu.Lock()
	if p.firstErr == nil {
		p.firstErr = fmt.Errorf("frame %d: %w", frame, err)
	}
	p.mu.Unlock()
}

// Completed returns how many frames have been rendered and saved so far.
func (p *Pool) Completed() int {
	return int(p.completed.Load())
}

// Generating reports whether completion signals are still outstanding.
func (p *Pool) Generating() bool {
	return len(p.results) < p.frames+p.workers
}

// Wait blocks until every worker has exited, then verifies the run: all
// tasks consumed and exactly frames+workers completion signals emitted.
// A timeout of zero or less waits forever; on expiry Wait returns
// ErrWaitTimeout and may be called again.
func (p *Pool) Wait(timeout time.Duration) error {
	if timeout > 0 {
		select {
		case <-p.done:
		case <-time.After(timeout):
			return ErrWaitTimeout
		}
	} else {
		<-p.done
	}

	leftover := len(p.tasks)
	expected := p.frames + p.workers
	got := len(p.results)
	if leftover > 0 || got != expected {
		p.mu.Lock()
		cause := p.firstErr
		p.mu.Unlock()
		return &IncompleteError{Expected: expected, Got: got, Leftover: leftover, Cause: cause}
	}
	return nil
}
