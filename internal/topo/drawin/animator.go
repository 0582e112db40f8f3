// Package drawin animates a stroked path being drawn in, by moving its dash
// offset from the full path length to zero.
//
// The package does not render anything itself. It drives an Element, which can
// be a local canvas, a headless timeline or a remote client that executes the
// commands and reports when the transition ends.
package drawin

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// State is the reveal state of one line.
type State int

const (
	Hidden State = iota
	Revealing
	Revealed
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Revealing:
		return "revealing"
	case Revealed:
		return "revealed"
	}
	return "unknown"
}

// Element is the surface a line is drawn on.
//
// Listeners registered with OnTransitionEnd must be called after Transition
// has returned, never from inside it.
type Element interface {
	// Length returns the total path length; ok is false when it cannot be measured.
	Length() (length float64, ok bool)
	// SetDash sets stroke-dasharray and stroke-dashoffset without a transition.
	SetDash(array, offset float64)
	// Flush commits pending style changes so the next Transition starts from them.
	Flush()
	// Transition animates stroke-dashoffset to offset.
	Transition(offset float64, duration time.Duration, easing string)
	// OnTransitionEnd registers fn and returns a func that removes it.
	OnTransitionEnd(fn func()) (cancel func())
}

// Options configures an Animator.
type Options struct {
	// Delay enables auto-play: Replay runs once, Delay after each Mount.
	Delay      time.Duration
	Duration   time.Duration
	Easing     string
	OnComplete func()
	Clock      clock.Clock
}

// Animator is the replay handle for one rendered line. It is safe for
// concurrent use; transition-end notifications may arrive on any goroutine.
type Animator struct {
	mu    sync.Mutex
	opts  Options
	clk   clock.Clock
	el    Element
	state State

	timer  *clock.Timer
	detach func()
	mount  uint64 // bumped on every Mount/Unmount so stale timers do nothing
	play   uint64 // bumped on every Replay so stale listeners do nothing
}

// New creates an unmounted Animator.
func New(opts Options) *Animator {
	if opts.Duration <= 0 {
		opts.Duration = 1200 * time.Millisecond
	}
	if opts.Easing == "" {
		opts.Easing = "ease-in-out"
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Animator{opts: opts, clk: clk}
}

// Mount attaches el and, with a Delay configured, schedules one auto-play.
// Mounting again replaces the previous element.
func (a *Animator) Mount(el Element) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.el = el
	a.state = Hidden

	if a.opts.Delay > 0 && el != nil {
		id := a.mount
		a.timer = a.clk.AfterFunc(a.opts.Delay, func() { a.autoPlay(id) })
	}
}

// Unmount cancels a pending auto-play and detaches any listener.
func (a *Animator) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.el = nil
	a.state = Hidden
}

// Replay hides the line and draws it in again. It is a no-op when nothing is
// mounted or the length cannot be measured.
func (a *Animator) Replay() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replayLocked()
}

// State returns the current reveal state.
func (a *Animator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Animator) autoPlay(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id != a.mount {
		return
	}
	a.timer = nil
	a.replayLocked()
}

func (a *Animator) replayLocked() {
	if a.el == nil {
		return
	}
	length, ok := a.el.Length()
	if !ok || length <= 0 {
		return
	}

	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
	a.play++
	play := a.play

	a.el.SetDash(length, length)
	a.state = Hidden
	a.el.Flush()

	var once sync.Once
	a.detach = a.el.OnTransitionEnd(func() {
		once.Do(func() { a.finish(play) })
	})
	a.el.Transition(0, a.opts.Duration, a.opts.Easing)
	a.state = Revealing
}

func (a *Animator) finish(play uint64) {
	a.mu.Lock()
	if play != a.play || a.el == nil {
		a.mu.Unlock()
		return
	}
	detach := a.detach
	a.detach = nil
	a.state = Revealed
	done := a.opts.OnComplete
	a.mu.Unlock()

	if detach != nil {
		detach()
	}
	if done != nil {
		done()
	}
}

func (a *Animator) releaseLocked() {
	a.mount++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
	a.play++
}
