package comms

import "sync"

// Sender accepts values without blocking.
type Sender[T any] interface {
	Send(v T) bool
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc[T any] func(v T) bool

// Send implements Sender.
func (f SenderFunc[T]) Send(v T) bool { return f(v) }

// Pipe is an unbounded FIFO channel for one producer and one consumer.
// Send never blocks; values are delivered on Recv in send order.
type Pipe[T any] struct {
	mu     sync.Mutex
	queue  []T
	closed bool
	signal chan struct{}
	out    chan T
	done   chan struct{}
	once   sync.Once
}

// NewPipe creates a pipe and starts its delivery goroutine. The goroutine
// exits after Close once every queued value was received, or on Stop.
func NewPipe[T any]() *Pipe[T] {
	p := &Pipe[T]{
		signal: make(chan struct{}, 1),
		out:    make(chan T),
		done:   make(chan struct{}),
	}
	go p.pump()
	return p
}

// Send queues v. It returns false if the pipe is closed.
func (p *Pipe[T]) Send(v T) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, v)
	p.mu.Unlock()
	p.wake()
	return true
}

// Recv returns the channel values are delivered on. It is closed after
// Close, once the queue is drained.
func (p *Pipe[T]) Recv() <-chan T { return p.out }

// Len returns the number of values waiting to be received.
func (p *Pipe[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting values. Values already queued are still delivered.
func (p *Pipe[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wake()
}

// Stop closes the pipe and discards undelivered values.
func (p *Pipe[T]) Stop() {
	p.Close()
	p.once.Do(func() { close(p.done) })
}

func (p *Pipe[T]) wake() {
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Pipe[T]) pump() {
	defer close(p.out)
	for {
		select {
		case <-p.done:
			return
		default:
		}
		p.mu.Lock()
		if len(p.queue) == 0 {
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-p.signal:
			case <-p.done:
				return
			}
			continue
		}
		v := p.queue[0]
		var zero T
		p.queue[0] = zero
		p.queue = p.queue[1:]
		p.mu.Unlock()

		select {
		case p.out <- v:
		case <-p.done:
			return
		}
	}
}
