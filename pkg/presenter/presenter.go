// Package presenter polls the processing worker at a capped rate and
// forwards new frames and estimates to a display.
package presenter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-facemood/internal/log"
	"github.com/teslashibe/go-facemood/pkg/emotion"
	"github.com/teslashibe/go-facemood/pkg/frame"
)

// Poller is the read side of the processing worker.
type Poller interface {
	PollFrameSince(seq uint64) (frame.Frame, bool)
	PollEmotions() []emotion.Estimate
}

// Display receives what should be shown. Calls come from the presenter
// goroutine only.
type Display interface {
	ShowFrame(frame.Frame)
	ShowEmotions([]emotion.Estimate)
}

// Change describes a switch of the leading emotion.
type Change struct {
	From       emotion.Label `json:"from"`
	To         emotion.Label `json:"to"`
	Confidence float64       `json:"confidence"`
	At         time.Time     `json:"at"`
}

// Listener is notified when the leading emotion changes.
type Listener interface {
	OnEmotionChange(Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change)

// OnEmotionChange calls f.
func (f ListenerFunc) OnEmotionChange(c Change) { f(c) }

// Config holds presenter settings.
type Config struct {
	// TargetFPS caps how often the worker is polled.
	TargetFPS int
}

// DefaultConfig polls at 30 Hz.
func DefaultConfig() Config {
	return Config{TargetFPS: 30}
}

// Stats counts presenter activity.
type Stats struct {
	Ticks       uint64        `json:"ticks"`
	FramesShown uint64        `json:"frames_shown"`
	Changes     uint64        `json:"changes"`
	LastSeq     uint64        `json:"last_seq"`
	Leading     emotion.Label `json:"leading"`
}

// Presenter is the consumer side of the worker hand-off.
type Presenter struct {
	config  Config
	poller  Poller
	display Display
	logger  *slog.Logger

	mu        sync.Mutex
	listeners []Listener
	lastSeq   uint64
	leading   emotion.Label
	stats     Stats
}

// New creates a presenter. display may be nil, in which case frames are
// polled and dropped and only listeners see anything.
func New(cfg Config, poller Poller, display Display, logger *slog.Logger) *Presenter {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = DefaultConfig().TargetFPS
	}
	return &Presenter{
		config:  cfg,
		poller:  poller,
		display: display,
		logger:  log.OrDefault(logger, "presenter"),
		leading: emotion.Neutral,
	}
}

// AddListener registers l for leading-emotion changes.
func (p *Presenter) AddListener(l Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	p.mu.Unlock()
}

// Leading returns the last leading emotion seen (Neutral initially).
func (p *Presenter) Leading() emotion.Label {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leading
}

// Stats returns a snapshot of the presenter counters.
func (p *Presenter) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.LastSeq = p.lastSeq
	s.Leading = p.leading
	return s
}

// Run polls at the target rate until ctx is cancelled.
func (p *Presenter) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(p.config.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("🖥️  Presenter started", "fps", p.config.TargetFPS)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("🖥️  Presenter stopped", "frames", p.Stats().FramesShown)
			return ctx.Err()
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Tick performs one poll. Empty polls are normal; nothing is shown and the
// previous state is kept.
func (p *Presenter) Tick() {
	p.mu.Lock()
	since := p.lastSeq
	p.mu.Unlock()

	f, fresh := p.poller.PollFrameSince(since)
	estimates := p.poller.PollEmotions()

	if fresh && p.display != nil {
		p.display.ShowFrame(f)
	}
	if p.display != nil {
		p.display.ShowEmotions(estimates)
	}

	var (
		change    *Change
		listeners []Listener
	)

	p.mu.Lock()
	p.stats.Ticks++
	if fresh {
		p.lastSeq = f.Seq
		p.stats.FramesShown++
	}
	if lead, ok := emotion.Leading(estimates); ok && lead.Label != p.leading {
		change = &Change{From: p.leading, To: lead.Label, Confidence: lead.Confidence, At: time.Now()}
		p.leading = lead.Label
		p.stats.Changes++
		listeners = append(listeners, p.listeners...)
	}
	p.mu.Unlock()

	if change != nil {
		for _, l := range listeners {
			l.OnEmotionChange(*change)
		}
	}
}

// LogListener returns a listener that logs every change.
func LogListener(logger *slog.Logger) Listener {
	logger = log.OrDefault(logger, "presenter")
	return ListenerFunc(func(c Change) {
		logger.Info("🎭 Emotion changed",
			"from", c.From.String(), "to", c.To.String(), "confidence", c.Confidence)
	})
}
