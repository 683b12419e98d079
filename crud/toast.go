package crud

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// ToastKind is the visual severity of a toast.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
)

const DefaultToastTimeout = 2500 * time.Millisecond

// Toast is one transient notification.
type Toast struct {
	ID      uint64    `json:"id"`
	Kind    ToastKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// Toaster holds at most one visible toast. Showing a new toast replaces the
// current one and restarts the auto-dismiss timer; a timer armed for a replaced
// toast never clears its successor.
type Toaster struct {
	clock   clock.Clock
	timeout time.Duration

	mu      sync.Mutex
	current *Toast
	timer   clock.Timer
	seq     uint64
	subs    map[int]func(*Toast)
	nextSub int
}

func NewToaster(clk clock.Clock, timeout time.Duration) *Toaster {
	if clk == nil {
		clk = clock.WallClock
	}
	if timeout <= 0 {
		timeout = DefaultToastTimeout
	}
	return &Toaster{clock: clk, timeout: timeout, subs: map[int]func(*Toast){}}
}

// Show replaces the current toast.
func (t *Toaster) Show(kind ToastKind, title, message string) Toast {
	t.mu.Lock()
	t.seq++
	toast := Toast{ID: t.seq, Kind: kind, Title: title, Message: message}
	t.current = &toast
	old := t.timer
	t.timer = nil
	t.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	timer := t.clock.AfterFunc(t.timeout, func() { t.expire(toast.ID) })

	t.mu.Lock()
	if t.current != nil && t.current.ID == toast.ID {
		t.timer = timer
		t.mu.Unlock()
	} else {
		t.mu.Unlock()
		timer.Stop()
	}

	t.notify(&toast)
	return toast
}

func (t *Toaster) Success(title, message string) Toast { return t.Show(ToastSuccess, title, message) }
func (t *Toaster) Error(title, message string) Toast   { return t.Show(ToastError, title, message) }
func (t *Toaster) Info(title, message string) Toast    { return t.Show(ToastInfo, title, message) }

// Dismiss clears the current toast immediately.
func (t *Toaster) Dismiss() {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return
	}
	t.current = nil
	old := t.timer
	t.timer = nil
	t.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	t.notify(nil)
}

// Current returns the visible toast, if any.
func (t *Toaster) Current() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Toast{}, false
	}
	return *t.current, true
}

// Subscribe registers fn for every change; fn receives nil when the toast is
// cleared. The returned func unsubscribes.
func (t *Toaster) Subscribe(fn func(*Toast)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Toaster) expire(id uint64) {
	t.mu.Lock()
	if t.current == nil || t.current.ID != id {
		t.mu.Unlock()
		return
	}
	t.current = nil
	t.timer = nil
	t.mu.Unlock()
	t.notify(nil)
}

func (t *Toaster) notify(toast *Toast) {
	t.mu.Lock()
	fns := make([]func(*Toast), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		if toast == nil {
			fn(nil)
			continue
		}
		cp := *toast
		fn(&cp)
	}
}
