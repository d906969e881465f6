package events

import "sync"

// Handler receives published events. It runs on the publisher's goroutine
// and must not block for long.
type Handler func(Event)

// Publisher is the side of the bus the engine depends on.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(e)
	}
}

// Chan subscribes a buffered channel. Events are dropped when the buffer is
// full unless they end an operation; those block until there is room or the
// returned close function is called.
func (b *Bus) Chan(size int) (<-chan Event, func()) {
	ch := make(chan Event, size)
	done := make(chan struct{})
	var mu sync.Mutex
	closed := false

	unsub := b.Subscribe(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		if IsTerminal(e) {
			select {
			case ch <- e:
			case <-done:
			}
			return
		}
		select {
		case ch <- e:
		default:
		}
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			close(done)
			unsub()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

// IsTerminal reports whether e ends an operation.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case SearchCompleted, DeleteCompleted, Failed, LoginSucceeded, LoginFailed, LoggedOut:
		return true
	default:
		return false
	}
}

// Recorder keeps every event it sees. Handy in tests and for summaries.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Publish(e Event) { r.Handle(e) }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Of returns the recorded events of type T.
func Of[T Event](r *Recorder) []T {
	var out []T
	for _, e := range r.Events() {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
