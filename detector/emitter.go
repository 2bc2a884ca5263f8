package detector

import (
	"context"
	"sync"

	"github.com/kbukum/spikekit/errors"
)

// EventKind identifies a stream notification.
type EventKind int

const (
	// EventData carries one spike.
	EventData EventKind = iota
	// EventEnd is sent once after the last spike of a successful run.
	EventEnd
	// EventError is sent once when a run fails. No EventEnd follows it.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a stream notification.
type Event struct {
	Kind  EventKind
	Spike Spike
	Err   error
}

// runFunc drives a stream run, handing each spike to emit. emit returns
// false once the caller has stopped listening.
type runFunc func(ctx context.Context, emit func(Spike) bool) error

// Emitter is the handle of a stream run.
//
// An Emitter does nothing until Start is called, so subscriptions made
// between Stream and Start see every notification. Callbacks run one at a
// time on the run goroutine, in registration order, before the matching
// Event is sent on the Events channel.
type Emitter struct {
	mu      sync.Mutex
	onData  []func(Spike)
	onEnd   []func()
	onError []func(error)
	events  chan Event
	started bool

	ctx     context.Context
	cancel  context.CancelFunc
	prepare func() (runFunc, error)
	abandon func() error

	done chan struct{}
	err  error
}

func newEmitter(ctx context.Context, prepare func() (runFunc, error), abandon func() error) *Emitter {
	ctx, cancel := context.WithCancel(ctx)
	return &Emitter{
		ctx:     ctx,
		cancel:  cancel,
		prepare: prepare,
		abandon: abandon,
		done:    make(chan struct{}),
	}
}

// OnData subscribes fn to every spike.
func (e *Emitter) OnData(fn func(Spike)) *Emitter {
	e.mu.Lock()
	e.onData = append(e.onData, fn)
	e.mu.Unlock()
	return e
}

// OnEnd subscribes fn to successful completion.
func (e *Emitter) OnEnd(fn func()) *Emitter {
	e.mu.Lock()
	e.onEnd = append(e.onEnd, fn)
	e.mu.Unlock()
	return e
}

// OnError subscribes fn to run failure.
func (e *Emitter) OnError(fn func(error)) *Emitter {
	e.mu.Lock()
	e.onError = append(e.onError, fn)
	e.mu.Unlock()
	return e
}

// Events returns a channel carrying every notification, closed after the
// terminal one. The run blocks while the channel is not drained. Called
// after Start without a prior call, it returns a closed channel.
func (e *Emitter) Events() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.events == nil {
		if e.started {
			closed := make(chan Event)
			close(closed)
			return closed
		}
		e.events = make(chan Event)
	}
	return e.events
}

// Start launches the run. It fails synchronously when the emitter was
// already started or closed, or when the detector is busy with another run.
func (e *Emitter) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.InvalidArgument("emitter", "already started")
	}
	e.started = true
	e.mu.Unlock()

	run, err := e.prepare()
	if err != nil {
		e.terminate(err)
		if e.abandon != nil {
			_ = e.abandon()
		}
		return err
	}

	go e.loop(run)
	return nil
}

// Wait blocks until the run has finished and returns its error. A run
// stopped by Close or by its context reports CANCELLED.
func (e *Emitter) Wait() error {
	<-e.done
	return e.err
}

// Done is closed once the run has finished.
func (e *Emitter) Done() <-chan struct{} {
	return e.done
}

// Close stops the run. No further notifications are delivered, and no end
// is sent. Close does not wait for the run goroutine; use Wait for that.
func (e *Emitter) Close() {
	e.cancel()

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	if e.abandon != nil {
		_ = e.abandon()
	}
	e.terminate(errors.Cancelled(context.Canceled))
}

func (e *Emitter) loop(run runFunc) {
	err := run(e.ctx, func(s Spike) bool {
		return e.deliver(Event{Kind: EventData, Spike: s})
	})

	switch {
	case err == nil:
		e.deliver(Event{Kind: EventEnd})
	case errors.HasCode(err, errors.ErrCodeCancelled):
	default:
		e.deliver(Event{Kind: EventError, Err: err})
	}
	e.terminate(err)
}

// terminate records the outcome and releases waiters.
func (e *Emitter) terminate(err error) {
	e.cancel()
	e.mu.Lock()
	if e.events != nil {
		close(e.events)
	}
	e.err = err
	e.mu.Unlock()
	close(e.done)
}

// deliver hands ev to subscribers. It reports false once the run has been
// cancelled.
func (e *Emitter) deliver(ev Event) bool {
	if e.ctx.Err() != nil {
		return false
	}

	e.mu.Lock()
	onData, onEnd, onError, events := e.onData, e.onEnd, e.onError, e.events
	e.mu.Unlock()

	switch ev.Kind {
	case EventData:
		for _, fn := range onData {
			fn(ev.Spike)
		}
	case EventEnd:
		for _, fn := range onEnd {
			fn()
		}
	case EventError:
		for _, fn := range onError {
			fn(ev.Err)
		}
	}

	if events != nil {
		select {
		case events <- ev:
		case <-e.ctx.Done():
			return false
		}
	}
	return true
}
