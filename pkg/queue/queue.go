package queue

import (
	"container/list"
	"context"
	"sync"
)

// Queue is an unbounded FIFO shared by the gateway workers. Push never blocks;
// Pop blocks until an item arrives or the context is done.
type Queue[T any] struct {
	mux    sync.Mutex
	items  *list.List
	notify chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mux.Lock()
	for _, item := range items {
		q.items.PushBack(item)
	}
	q.mux.Unlock()
	q.signal()
}

func (q *Queue[T]) TryPop() (T, bool) {
	q.mux.Lock()
	defer q.mux.Unlock()
	front := q.items.Front()
	if front == nil {
		var zero T
		return zero, false
	}
	q.items.Remove(front)
	return front.Value.(T), true
}

func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		if item, ok := q.TryPop(); ok {
			// hand the wakeup on to the next waiting consumer
			if !q.Empty() {
				q.signal()
			}
			return item, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.notify:
		}
	}
}

func (q *Queue[T]) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return q.items.Len()
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
