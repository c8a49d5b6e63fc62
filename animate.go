package symplot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Frame is one animation step: f(x, T) sampled over the domain.
type Frame struct {
	Tick    int        `json:"tick"`
	T       float64    `json:"t"`
	Samples *SampleSet `json:"samples"`
	Warning string     `json:"warning,omitempty"`
}

// Animator redraws an expression of x and t at a fixed interval, with t
// advancing by a fixed step per tick.
type Animator struct {
	f         *Func
	domain    Domain
	interval  time.Duration
	step      float64
	maxFrames int
	stopped   atomic.Bool
}

// AnimatorOption configures NewAnimator.
type AnimatorOption func(*Animator)

func WithInterval(d time.Duration) AnimatorOption { return func(a *Animator) { a.interval = d } }
func WithTimeStep(dt float64) AnimatorOption      { return func(a *Animator) { a.step = dt } }

// WithMaxFrames stops the animation after n frames. Zero means no limit.
func WithMaxFrames(n int) AnimatorOption { return func(a *Animator) { a.maxFrames = n } }

// NewAnimator parses expr in the variables x and t.
func NewAnimator(expr string, d Domain, opts ...AnimatorOption) (*Animator, error) {
	f, err := ParseFunc(expr, "x", "t")
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	a := &Animator{
		f:        f,
		domain:   d,
		interval: time.Duration(DefaultIntervalMS) * time.Millisecond,
		step:     0.1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %v", ErrAnimationSetup, a.interval)
	}
	if !finite(a.step) || a.step == 0 {
		return nil, fmt.Errorf("%w: time step must be finite and non-zero, got %g", ErrAnimationSetup, a.step)
	}
	if a.maxFrames < 0 {
		return nil, fmt.Errorf("%w: negative frame limit %d", ErrAnimationSetup, a.maxFrames)
	}
	return a, nil
}

// Frame computes the frame for tick without waiting.
func (a *Animator) Frame(tick int) (Frame, error) {
	t := float64(tick) * a.step
	s, err := SampleSlice(a.f, a.domain, t)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Tick: tick, T: t, Samples: s, Warning: s.Warning()}, nil
}

// Stop asks Run to return at its next wake. It is safe to call from any
// goroutine and more than once.
func (a *Animator) Stop() { a.stopped.Store(true) }

func (a *Animator) Stopped() bool { return a.stopped.Load() }

// Run hands one frame per interval to sink until Stop is called, ctx is
// done, the frame limit is reached or sink returns an error. Frames are
// produced one at a time; a slow sink delays the next tick rather than
// piling up frames.
func (a *Animator) Run(ctx context.Context, sink func(Frame) error) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for tick := 0; a.maxFrames == 0 || tick < a.maxFrames; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if a.stopped.Load() {
			return nil
		}
		frame, err := a.Frame(tick)
		if err != nil {
			return err
		}
		if err := sink(frame); err != nil {
			return err
		}
	}
	return nil
}
