package tracker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-facemood/pkg/emotion"
	"github.com/teslashibe/go-facemood/pkg/frame"
)

// fakeSource returns a small frame on every read unless empty is set.
type fakeSource struct {
	empty atomic.Bool
	reads atomic.Int64
	block chan struct{} // when non-nil, Read waits for it
}

func (s *fakeSource) Read() (frame.Frame, bool) {
	s.reads.Add(1)
	if s.block != nil {
		<-s.block
	}
	if s.empty.Load() {
		return frame.Frame{}, false
	}
	return frame.New(4, 4, frame.FormatBGR), true
}

// funcProcessor adapts a function to Processor.
type funcProcessor func(frame.Frame) (frame.Frame, []emotion.Estimate, error)

func (f funcProcessor) Process(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
	return f(in)
}

func passthrough(label emotion.Label) funcProcessor {
	return func(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
		return in.Clone(), []emotion.Estimate{{Label: label, Confidence: 0.6}}, nil
	}
}

func testConfig() Config {
	return Config{Interval: time.Millisecond}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWorker_Publishes(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Happy), nil)
	if _, ok := w.PollFrame(); ok {
		t.Fatal("frame available before start")
	}
	if got := w.PollEmotions(); got != nil {
		t.Fatalf("emotions before start: %v", got)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()

	waitFor(t, "first publication", func() bool { return w.Stats().Published > 0 })

	f, ok := w.PollFrame()
	if !ok || f.Seq == 0 || f.Width != 4 {
		t.Errorf("PollFrame = %+v, %v", f, ok)
	}
	list := w.PollEmotions()
	if len(list) != 1 || list[0].Label != emotion.Happy {
		t.Errorf("PollEmotions = %+v", list)
	}
}

func TestWorker_PollFrameSince(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Neutral), nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first publication", func() bool { return w.Stats().Published > 0 })
	w.Close()

	f, ok := w.PollFrame()
	if !ok {
		t.Fatal("no frame after publication")
	}
	if _, ok := w.PollFrameSince(f.Seq); ok {
		t.Error("PollFrameSince returned the frame already seen")
	}
	if g, ok := w.PollFrameSince(f.Seq - 1); !ok || g.Seq != f.Seq {
		t.Errorf("PollFrameSince(%d) = %d, %v", f.Seq-1, g.Seq, ok)
	}
}

func TestWorker_PollReturnsPrivateCopies(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Sad), nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first publication", func() bool { return w.Stats().Published > 0 })
	w.Close()

	f, _ := w.PollFrame()
	f.Pix[0] = 200
	again, _ := w.PollFrame()
	if again.Pix[0] != 0 {
		t.Error("PollFrame shares pixel memory with the slot")
	}

	list := w.PollEmotions()
	list[0].Label = emotion.Angry
	if w.PollEmotions()[0].Label != emotion.Sad {
		t.Error("PollEmotions shares the slot's backing array")
	}
}

func TestWorker_SkipsWhenNoFrame(t *testing.T) {
	src := &fakeSource{}
	src.empty.Store(true)

	var processed atomic.Int64
	proc := funcProcessor(func(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
		processed.Add(1)
		return in, nil, nil
	})

	w := New(testConfig(), src, proc, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "skipped cycles", func() bool { return w.Stats().Skipped >= 5 })
	w.Close()

	if processed.Load() != 0 {
		t.Errorf("processor ran %d times on empty reads", processed.Load())
	}
	if _, ok := w.PollFrame(); ok {
		t.Error("frame published without a capture")
	}
	if s := w.Stats(); s.Published != 0 || s.Cycles < 5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	var calls atomic.Int64
	proc := funcProcessor(func(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
		if calls.Add(1) == 1 {
			panic("detector exploded")
		}
		return in.Clone(), nil, nil
	})

	w := New(testConfig(), &fakeSource{}, proc, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()

	waitFor(t, "publication after panic", func() bool { return w.Stats().Published > 0 })

	s := w.Stats()
	if s.Failed < 1 {
		t.Errorf("panic not counted: %+v", s)
	}
	if s.State != StateRunning {
		t.Errorf("state after panic = %s", s.State)
	}
}

func TestWorker_ErrorKeepsPreviousResult(t *testing.T) {
	var calls atomic.Int64
	proc := funcProcessor(func(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
		if calls.Add(1) == 1 {
			return in.Clone(), []emotion.Estimate{{Label: emotion.Fearful}}, nil
		}
		return frame.Frame{}, nil, errors.New("boom")
	})

	w := New(testConfig(), &fakeSource{}, proc, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "failures", func() bool { return w.Stats().Failed >= 3 })
	w.Close()

	if s := w.Stats(); s.Published != 1 {
		t.Errorf("published = %d, want 1", s.Published)
	}
	list := w.PollEmotions()
	if len(list) != 1 || list[0].Label != emotion.Fearful {
		t.Errorf("previous result lost: %+v", list)
	}
}

func TestWorker_StartTwice(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Neutral), nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()

	if err := w.Start(); !errors.Is(err, ErrNotStartable) {
		t.Errorf("second Start: %v", err)
	}
}

func TestWorker_StopBeforeStart(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Neutral), nil)
	w.Stop()

	if w.State() != StateStopped {
		t.Errorf("state = %s, want stopped", w.State())
	}
	w.Wait()
	if err := w.Start(); !errors.Is(err, ErrNotStartable) {
		t.Errorf("Start after Stop: %v", err)
	}
}

func TestWorker_WaitWithoutStart(t *testing.T) {
	w := New(testConfig(), &fakeSource{}, passthrough(emotion.Neutral), nil)
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a worker that never started")
	}
}

func TestWorker_StopIsNonBlockingAndIdempotent(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	w := New(testConfig(), src, passthrough(emotion.Neutral), nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "blocked read", func() bool { return src.reads.Load() == 1 })

	start := time.Now()
	w.Stop()
	w.Stop()
	if d := time.Since(start); d > 100*time.Millisecond {
		t.Errorf("Stop blocked for %v", d)
	}
	if w.State() != StateStopRequested {
		t.Errorf("state = %s, want stop_requested", w.State())
	}

	select {
	case <-w.Done():
		t.Fatal("loop exited while its read was still blocked")
	default:
	}

	// The in-flight cycle may still finish and publish once.
	close(src.block)
	w.Wait()

	if w.State() != StateStopped {
		t.Errorf("state = %s, want stopped", w.State())
	}
	if n := src.reads.Load(); n != 1 {
		t.Errorf("source read %d times, want 1", n)
	}

	published := w.Stats().Published
	time.Sleep(20 * time.Millisecond)
	if got := w.Stats().Published; got != published {
		t.Errorf("published changed after join: %d -> %d", published, got)
	}
}

func TestWorker_StopCutsPauseShort(t *testing.T) {
	w := New(Config{Interval: time.Hour}, &fakeSource{}, passthrough(emotion.Neutral), nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "first cycle", func() bool { return w.Stats().Cycles == 1 })

	start := time.Now()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("Close took %v with an hour-long pause", d)
	}
}

// TestWorker_HandoffAtomicity checks that readers never observe a frame or
// an estimate list that mixes two cycles.
func TestWorker_HandoffAtomicity(t *testing.T) {
	proc := funcProcessor(func(in frame.Frame) (frame.Frame, []emotion.Estimate, error) {
		out := frame.New(64, 48, frame.FormatBGR)
		mark := byte(time.Now().UnixNano())
		for i := range out.Pix {
			out.Pix[i] = mark
		}
		n := int(mark%5) + 1
		list := make([]emotion.Estimate, n)
		for i := range list {
			list[i] = emotion.Estimate{Confidence: float64(mark), Size: float64(n)}
		}
		return out, list, nil
	})

	w := New(Config{Interval: 0}, &fakeSource{}, proc, nil)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()
	waitFor(t, "first publication", func() bool { return w.Stats().Published > 0 })

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if f, ok := w.PollFrame(); ok {
					for _, b := range f.Pix {
						if b != f.Pix[0] {
							errs <- "torn frame"
							return
						}
					}
				}
				list := w.PollEmotions()
				for _, e := range list {
					if e.Confidence != list[0].Confidence || int(e.Size) != len(list) {
						errs <- "torn estimate list"
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateCreated:       "created",
		StateRunning:       "running",
		StateStopRequested: "stop_requested",
		StateStopped:       "stopped",
		State(9):           "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
