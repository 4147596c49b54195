// Package loop is the single-threaded cooperative scheduler the renderer
// runs on. Hosts post input onto it from any goroutine; everything that
// touches the graph, the layers or a gesture session executes on the one
// goroutine draining it. Timers are explicit handles that can be stopped
// individually.
package loop

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Loop is a task queue plus a timer heap driven by a clockwork.Clock.
type Loop struct {
	clock clockwork.Clock

	mu     sync.Mutex
	tasks  []func()
	timers timerHeap
	seq    uint64

	wake chan struct{}
}

// New creates a loop. A nil clock uses the real clock.
func New(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Clock returns the loop's time source.
func (l *Loop) Clock() clockwork.Clock { return l.clock }

// Now returns the current time according to the loop's clock.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// Post queues fn to run on the loop goroutine. Safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc schedules fn to run on the loop once d has elapsed. A zero
// duration defers fn to the next tick.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	t := &Timer{
		l:    l,
		when: l.clock.Now().Add(d),
		seq:  l.seq,
		fn:   fn,
	}
	heap.Push(&l.timers, t)
	l.mu.Unlock()
	l.signal()
	return t
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next pops the next runnable item: queued tasks first, then due timers.
func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) > 0 {
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		return fn
	}
	if len(l.timers) > 0 && !l.timers[0].when.After(l.clock.Now()) {
		t := heap.Pop(&l.timers).(*Timer)
		return t.fn
	}
	return nil
}

// RunPending runs queued tasks and due timers until nothing is runnable,
// and returns how many ran. Work queued by a running task is included.
func (l *Loop) RunPending() int {
	n := 0
	for fn := l.next(); fn != nil; fn = l.next() {
		fn()
		n++
	}
	return n
}

// Pending reports the number of queued tasks and armed timers.
func (l *Loop) Pending() (tasks, timers int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks), len(l.timers)
}

// nextDeadline returns when the earliest timer is due.
func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].when, true
}

// Run drains the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()

		var due <-chan time.Time
		if when, ok := l.nextDeadline(); ok {
			due = l.clock.After(when.Sub(l.clock.Now()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-due:
		}
	}
}

// Timer is a cancellable handle returned by AfterFunc.
type Timer struct {
	l     *Loop
	when  time.Time
	seq   uint64
	fn    func()
	index int
}

// Stop cancels the timer. It reports whether the timer was still pending.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.l.timers, t.index)
	return true
}

// Pending reports whether the timer has neither fired nor been stopped.
func (t *Timer) Pending() bool {
	if t == nil {
		return false
	}
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	return t.index >= 0
}

// When returns the time the timer is due.
func (t *Timer) When() time.Time { return t.when }

// timerHeap orders timers by deadline, then by creation.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
