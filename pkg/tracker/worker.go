// Package tracker runs the capture/process loop on its own goroutine and
// hands its results to readers through two latest-value slots.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/debug"
	"github.com/teslashibe/go-facemood/pkg/emotion"
	"github.com/teslashibe/go-facemood/pkg/frame"
)

// Source yields captured frames. ok is false when no frame is available
// this time.
type Source interface {
	Read() (frame.Frame, bool)
}

// Processor turns a captured frame into an annotated frame and estimates.
type Processor interface {
	Process(frame.Frame) (frame.Frame, []emotion.Estimate, error)
}

// ErrNotStartable is returned by Start when the worker already ran or was
// stopped.
var ErrNotStartable = errors.New("tracker: worker cannot be started")

// State is the worker lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop_requested"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats are the loop counters.
type Stats struct {
	State     State  `json:"state"`
	Cycles    uint64 `json:"cycles"`
	Published uint64 `json:"published"`
	Skipped   uint64 `json:"skipped"` // No frame from the source
	Failed    uint64 `json:"failed"`  // Processing error or panic
}

// Worker owns the frame source and the processor for its whole life and
// publishes one annotated frame and one estimate list per successful cycle.
//
// Readers never block the loop for longer than a slot copy, and the loop
// never waits for readers.
type Worker struct {
	config    Config
	source    Source
	processor Processor
	logger    *slog.Logger

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	frames   slot[frame.Frame]
	emotions slot[[]emotion.Estimate]

	cycles    atomic.Uint64
	published atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
}

// New creates a worker in the created state.
func New(cfg Config, source Source, processor Processor, logger *slog.Logger) *Worker {
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	return &Worker{
		config:    cfg,
		source:    source,
		processor: processor,
		logger:    log.OrDefault(logger, "tracker"),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Start launches the loop. It fails unless the worker is freshly created.
func (w *Worker) Start() error {
	if !w.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("%w: state %s", ErrNotStartable, w.State())
	}
	go w.run()
	return nil
}

// Stop requests the loop to end and returns immediately. The loop observes
// the request at the top of its next iteration or during its pause.
// Calling Stop more than once, or before Start, is safe.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	if w.state.CompareAndSwap(int32(StateRunning), int32(StateStopRequested)) {
		w.logger.Info("🛑 Processing worker stop requested")
		return
	}
	if w.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
		close(w.done)
	}
}

// Wait blocks until the loop has exited. It returns at once for a worker
// that was never started.
func (w *Worker) Wait() {
	if w.State() == StateCreated {
		return
	}
	<-w.done
}

// Done is closed when the loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Close stops the worker and waits for the loop to exit.
func (w *Worker) Close() error {
	w.Stop()
	w.Wait()
	return nil
}

// PollFrame returns a private copy of the most recently published frame.
// ok is false until the first frame is published.
func (w *Worker) PollFrame() (frame.Frame, bool) {
	return w.PollFrameSince(0)
}

// PollFrameSince returns a private copy of the latest frame only if it was
// published after cycle seq.
func (w *Worker) PollFrameSince(seq uint64) (frame.Frame, bool) {
	f, version := w.frames.load()
	if version == 0 || version <= seq {
		return frame.Frame{}, false
	}
	// Published frames are never written again, so the deep copy can
	// happen outside the slot lock.
	return f.Clone(), true
}

// PollEmotions returns a copy of the most recently published estimate list,
// or nil before the first publication.
func (w *Worker) PollEmotions() []emotion.Estimate {
	list, _ := w.emotions.load()
	return emotion.Clone(list)
}

// Stats returns a snapshot of the loop counters.
func (w *Worker) Stats() Stats {
	return Stats{
		State:     w.State(),
		Cycles:    w.cycles.Load(),
		Published: w.published.Load(),
		Skipped:   w.skipped.Load(),
		Failed:    w.failed.Load(),
	}
}

func (w *Worker) run() {
	w.logger.Info("🎬 Processing worker started", "interval", w.config.Interval)

	defer func() {
		w.state.Store(int32(StateStopped))
		close(w.done)
		s := w.Stats()
		w.logger.Info("✅ Processing worker stopped",
			"cycles", s.Cycles, "published", s.Published,
			"skipped", s.Skipped, "failed", s.Failed)
	}()

	pause := time.NewTimer(w.config.Interval)
	defer pause.Stop()
	lastStats := time.Now()

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		w.cycle()

		if w.config.StatsInterval > 0 && time.Since(lastStats) >= w.config.StatsInterval {
			s := w.Stats()
			w.logger.Debug("processing stats",
				"cycles", s.Cycles, "published", s.Published,
				"skipped", s.Skipped, "failed", s.Failed)
			lastStats = time.Now()
		}

		pause.Reset(w.config.Interval)
		select {
		case <-w.stopCh:
			return
		case <-pause.C:
		}
	}
}

// cycle runs one read-process-publish iteration. Nothing that goes wrong
// inside it ends the loop.
func (w *Worker) cycle() {
	n := w.cycles.Add(1)

	defer func() {
		if r := recover(); r != nil {
			w.failed.Add(1)
			w.logger.Error("💥 Processing cycle panicked", "cycle", n, "panic", r)
		}
	}()

	captured, ok := w.source.Read()
	if !ok || captured.Empty() {
		w.skipped.Add(1)
		return
	}

	annotated, estimates, err := w.processor.Process(captured)
	if err != nil {
		w.failed.Add(1)
		w.logger.Warn("⚠️  Processing failed, keeping previous result", "cycle", n, "error", err)
		return
	}

	annotated.Seq = n
	w.emotions.store(emotion.Clone(estimates), n)
	w.frames.store(annotated, n)
	w.published.Add(1)

	if lead, ok := emotion.Leading(estimates); ok {
		debug.Log("🙂 cycle %d: %d face(s), leading %s (%.2f)\n", n, len(estimates), lead.Label, lead.Confidence)
	}
}
