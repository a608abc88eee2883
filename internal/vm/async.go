package vm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskID/ChannelID identify spawned tasks and channels (spec §4.6.4
// "AsyncRuntime{tasks: TaskId→FutureState, channels: ChannelId→
// CondvarChannel}"). Backed by github.com/google/uuid rather than a
// monotonic counter, matching internal/driver's session-identifier
// use of the same library (grounding shared across components per
// DESIGN.md).
type TaskID string
type ChannelID string

type futureState struct {
	done  chan struct{}
	value Value
	err   error
}

// taskRunner is a zero-argument task body. The VM's Spawn instruction
// (spec §4.6.1 `Spawn`) does not run one: OpSpawn calls Spawn, which
// runs nothing.
type taskRunner func() (Value, error)

// AsyncRuntime implements spawn/await and bounded channel send/recv
// (spec §4.6.4). Grounded on the teacher's goroutine-per-effect
// concurrency idiom used in its evaluator builtins, generalized here
// into an explicit future/channel table since the teacher has no
// bytecode-level task scheduler of its own.
type AsyncRuntime struct {
	mu       sync.Mutex
	tasks    map[TaskID]*futureState
	channels map[ChannelID]*condvarChannel
	run      func() taskRunner
}

func NewAsyncRuntime() *AsyncRuntime {
	return &AsyncRuntime{
		tasks:    make(map[TaskID]*futureState),
		channels: make(map[ChannelID]*condvarChannel),
	}
}

// Spawn (called from the OpSpawn handler) registers a task ID and marks
// it complete at once without running the spawned value, so Await on it
// returns a zero Value. SpawnFunc is the entry point that runs a Go
// function on its own goroutine.
func (a *AsyncRuntime) Spawn(_ Value) TaskID {
	id := TaskID(uuid.New().String())
	a.mu.Lock()
	a.tasks[id] = &futureState{done: make(chan struct{})}
	a.mu.Unlock()
	close(a.tasks[id].done) // nothing runs; the task is complete immediately
	return id
}

// SpawnFunc starts fn on its own goroutine and returns a TaskID that
// Await resolves once fn completes.
func (a *AsyncRuntime) SpawnFunc(fn func() (Value, error)) TaskID {
	id := TaskID(uuid.New().String())
	fs := &futureState{done: make(chan struct{})}
	a.mu.Lock()
	a.tasks[id] = fs
	a.mu.Unlock()
	go func() {
		fs.value, fs.err = fn()
		close(fs.done)
	}()
	return id
}

// Await blocks until the task completes and returns its result.
func (a *AsyncRuntime) Await(id TaskID) (Value, error) {
	a.mu.Lock()
	fs, ok := a.tasks[id]
	a.mu.Unlock()
	if !ok {
		return Value{}, fmt.Errorf("vm: await on unknown task %s", id)
	}
	<-fs.done
	return fs.value, fs.err
}

// condvarChannel is a bounded FIFO channel guarded by a mutex plus
// not_full/not_empty condition variables (spec §4.6.4 "bounded channel
// with not_full/not_empty condvars").
type condvarChannel struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	buf      []Value
	capacity int
	closed   bool
}

func newCondvarChannel(capacity int) *condvarChannel {
	c := &condvarChannel{capacity: capacity}
	c.notFull = sync.NewCond(&c.mu)
	c.notEmpty = sync.NewCond(&c.mu)
	return c
}

// MakeChannel registers a new bounded channel and returns its ID.
func (a *AsyncRuntime) MakeChannel(capacity int) ChannelID {
	id := ChannelID(uuid.New().String())
	a.mu.Lock()
	a.channels[id] = newCondvarChannel(capacity)
	a.mu.Unlock()
	return id
}

func (a *AsyncRuntime) chanByID(id ChannelID) (*condvarChannel, error) {
	a.mu.Lock()
	ch, ok := a.channels[id]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("vm: unknown channel %s", id)
	}
	return ch, nil
}

// Send blocks until there is capacity, then enqueues val.
func (a *AsyncRuntime) Send(id ChannelID, val Value) error {
	ch, err := a.chanByID(id)
	if err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for len(ch.buf) >= ch.capacity && !ch.closed {
		ch.notFull.Wait()
	}
	if ch.closed {
		return fmt.Errorf("vm: send on closed channel %s", id)
	}
	ch.buf = append(ch.buf, val)
	ch.notEmpty.Signal()
	return nil
}

// Recv blocks until a value is available or the channel is closed and
// drained.
func (a *AsyncRuntime) Recv(id ChannelID) (Value, error) {
	ch, err := a.chanByID(id)
	if err != nil {
		return Value{}, err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for len(ch.buf) == 0 && !ch.closed {
		ch.notEmpty.Wait()
	}
	if len(ch.buf) == 0 {
		return Value{}, fmt.Errorf("vm: recv on closed, empty channel %s", id)
	}
	v := ch.buf[0]
	ch.buf = ch.buf[1:]
	ch.notFull.Signal()
	return v, nil
}

// TryRecv returns immediately: (value, true, nil) on success,
// (_, false, nil) if empty and open, (_, false, err) if closed+empty.
func (a *AsyncRuntime) TryRecv(id ChannelID) (Value, bool, error) {
	ch, err := a.chanByID(id)
	if err != nil {
		return Value{}, false, err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if len(ch.buf) == 0 {
		if ch.closed {
			return Value{}, false, fmt.Errorf("vm: recv on closed, empty channel %s", id)
		}
		return Value{}, false, nil
	}
	v := ch.buf[0]
	ch.buf = ch.buf[1:]
	ch.notFull.Signal()
	return v, true, nil
}

// SendTimeout is Send bounded by a deadline.
func (a *AsyncRuntime) SendTimeout(id ChannelID, val Value, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- a.Send(id, val) }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("vm: send timeout on channel %s", id)
	}
}

// RecvTimeout is Recv bounded by a deadline.
func (a *AsyncRuntime) RecvTimeout(id ChannelID, timeout time.Duration) (Value, error) {
	type result struct {
		v   Value
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := a.Recv(id)
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-time.After(timeout):
		return Value{}, fmt.Errorf("vm: recv timeout on channel %s", id)
	}
}

// Close marks the channel closed and wakes any blocked senders/
// receivers so they observe the closed state.
func (a *AsyncRuntime) Close(id ChannelID) error {
	ch, err := a.chanByID(id)
	if err != nil {
		return err
	}
	ch.mu.Lock()
	ch.closed = true
	ch.notEmpty.Broadcast()
	ch.notFull.Broadcast()
	ch.mu.Unlock()
	return nil
}
