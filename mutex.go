// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import "sync"

// Mutex is a bounded FIFO queue guarded by a single mutex.
//
// It has the same contract as [Versioned] and serves as the reference for
// differential tests and as the throughput baseline. It never returns
// ErrExhausted.
type Mutex[T Word] struct {
	mu     sync.Mutex
	buffer []T
	head   uint64
	tail   uint64
	mask   uint64
}

// NewMutex creates a mutex-guarded queue.
// Panics unless capacity is a power of two.
func NewMutex[T Word](capacity int) *Mutex[T] {
	checkCapacity(capacity)
	n := uint64(capacity)
	return &Mutex[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Enqueue appends elem. Returns ErrWouldBlock if the queue is full.
func (q *Mutex[T]) Enqueue(elem T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail-q.head > q.mask {
		return ErrWouldBlock
	}
	q.buffer[q.tail&q.mask] = elem
	q.tail++
	return nil
}

// Dequeue removes and returns the front element.
// Returns (zero, ErrWouldBlock) if the queue is empty.
func (q *Mutex[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == q.tail {
		var zero T
		return zero, ErrWouldBlock
	}
	elem := q.buffer[q.head&q.mask]
	q.head++
	return elem, nil
}

// PushBack appends elem and reports whether it was added.
func (q *Mutex[T]) PushBack(elem T) bool {
	return q.Enqueue(elem) == nil
}

// PopFront removes and returns the front element, or zero if empty.
func (q *Mutex[T]) PopFront() T {
	elem, _ := q.Dequeue()
	return elem
}

// Size returns the number of queued elements.
func (q *Mutex[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.tail - q.head)
}

// Empty reports whether the queue is empty.
func (q *Mutex[T]) Empty() bool {
	return q.Size() == 0
}

// Full reports whether the queue is full.
func (q *Mutex[T]) Full() bool {
	return q.Size() == q.Cap()
}

// Cap returns the queue capacity.
func (q *Mutex[T]) Cap() int {
	return int(q.mask + 1)
}
