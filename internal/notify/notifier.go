// Package notify delivers state snapshots to subscribers on a dedicated goroutine.
package notify

import (
	"sync"
)

// Notifier fans values out to subscribers. Values are delivered in the order
// they were published and callbacks never run concurrently with each other.
// Publish never blocks on a subscriber, so it is safe to call while holding
// the lock that guards the published state.
type Notifier[T any] struct {
	subscribers map[uint64]func(T)
	wake        chan struct{}
	stopCh      chan struct{}
	done        chan struct{}
	queue       []T
	nextID      uint64
	mu          sync.Mutex
	stopOnce    sync.Once
}

// New creates a notifier and starts its delivery goroutine.
func New[T any]() *Notifier[T] {
	n := &Notifier[T]{
		subscribers: make(map[uint64]func(T)),
		wake:        make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}

	go n.run()

	return n
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier[T]) Subscribe(fn func(T)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subscribers, id)
		n.mu.Unlock()
	}
}

// Publish queues v for delivery. It is a no-op after Stop.
func (n *Notifier[T]) Publish(v T) {
	select {
	case <-n.stopCh:
		return
	default:
	}

	n.mu.Lock()
	n.queue = append(n.queue, v)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Stop ends delivery. Queued values that were not yet delivered are dropped.
// It does not wait for a running callback; receive from Done for that.
func (n *Notifier[T]) Stop() {
	n.stopOnce.Do(func() {
		close(n.stopCh)
	})
}

// Done is closed once the delivery goroutine has exited.
func (n *Notifier[T]) Done() <-chan struct{} {
	return n.done
}

func (n *Notifier[T]) run() {
	defer close(n.done)

	for {
		select {
		case <-n.stopCh:
			return
		case <-n.wake:
		}

		for {
			n.mu.Lock()
			if len(n.queue) == 0 {
				n.mu.Unlock()
				break
			}
			v := n.queue[0]
			var zero T
			n.queue[0] = zero
			n.queue = n.queue[1:]
			subs := make([]func(T), 0, len(n.subscribers))
			for _, fn := range n.subscribers {
				subs = append(subs, fn)
			}
			n.mu.Unlock()

			for _, fn := range subs {
				select {
				case <-n.stopCh:
					return
				default:
				}
				fn(v)
			}
		}
	}
}
