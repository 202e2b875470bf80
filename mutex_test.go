// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/vq"
)

func TestMutexBasic(t *testing.T) {
	q := vq.NewMutex[int](4)

	if q.Cap() != 4 || q.Size() != 0 || !q.Empty() || q.Full() {
		t.Fatalf("initial: Cap=%d Size=%d Empty=%v Full=%v", q.Cap(), q.Size(), q.Empty(), q.Full())
	}

	for i := range 4 {
		if err := q.Enqueue(i + 100); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if err := q.Enqueue(999); !errors.Is(err, vq.ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}
	if !q.Full() || q.Size() != 4 {
		t.Fatalf("full: Full=%v Size=%d", q.Full(), q.Size())
	}

	for i := range 4 {
		v, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if v != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, i+100)
		}
	}
	if _, err := q.Dequeue(); !errors.Is(err, vq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
	if q.PopFront() != 0 || !q.PushBack(1) {
		t.Fatal("PopFront/PushBack wrappers disagree with Dequeue/Enqueue")
	}
}

func TestMutexWraparound(t *testing.T) {
	q := vq.NewMutex[uint64](2)
	for i := range uint64(1000) {
		if !q.PushBack(i) {
			t.Fatalf("PushBack(%d): got false", i)
		}
		if v := q.PopFront(); v != i {
			t.Fatalf("PopFront: got %d, want %d", v, i)
		}
	}
}
