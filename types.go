// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

// Word is the set of element types a queue can hold.
//
// Elements are fixed-width machine words stored in atomic slots. The zero
// value doubles as the empty sentinel returned by PopFront; use Dequeue
// when zero is a legitimate element.
type Word interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~uintptr
}

// Queue is the combined producer-consumer interface of a bounded FIFO queue.
//
// All methods are non-blocking apart from the bounded internal retry loop.
// Size, Empty and Full are snapshots that may be stale by the time they
// return.
//
// Example:
//
//	q := vq.Build[uint64](vq.New(1024))
//
//	if !q.PushBack(42) {
//	    // full, or gave up under contention
//	}
//
//	v, err := q.Dequeue()
//	if vq.IsWouldBlock(err) {
//	    // empty
//	}
type Queue[T Word] interface {
	Producer[T]
	Consumer[T]

	// Size returns the number of queued elements, 0 <= Size() <= Cap().
	// Returns 0 if no consistent snapshot was seen within the retry budget.
	Size() int

	// Empty reports whether the queue holds no elements.
	// Returns false if no consistent snapshot was seen within the retry budget.
	Empty() bool

	// Full reports whether the queue has no free slot.
	// Returns false if no consistent snapshot was seen within the retry budget.
	Full() bool

	// Cap returns the fixed capacity.
	Cap() int
}

// Producer is the interface for adding elements.
type Producer[T Word] interface {
	// Enqueue appends elem.
	// Returns nil on success, ErrWouldBlock if the queue is full, or
	// ErrExhausted if the retry budget ran out under contention.
	Enqueue(elem T) error

	// PushBack appends elem and reports whether it was added.
	// False covers both a full queue and an exhausted retry budget.
	PushBack(elem T) bool
}

// Consumer is the interface for removing elements.
type Consumer[T Word] interface {
	// Dequeue removes and returns the front element.
	// Returns (zero, ErrWouldBlock) if the queue is empty, or
	// (zero, ErrExhausted) if the retry budget ran out under contention.
	Dequeue() (T, error)

	// PopFront removes and returns the front element, or the zero value
	// if the queue is empty or the retry budget ran out. Call Empty to tell
	// the two apart, or use Dequeue.
	PopFront() T
}

// Op identifies a queue operation in diagnostics.
type Op uint8

const (
	OpPush Op = iota
	OpPop
	OpSize
	OpEmpty
	OpFull
	OpSnapshot
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpPush:
		return "push_back"
	case OpPop:
		return "pop_front"
	case OpSize:
		return "size"
	case OpEmpty:
		return "empty"
	case OpFull:
		return "full"
	case OpSnapshot:
		return "snapshot"
	}
	return "unknown"
}
