// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import "code.hybscloud.com/atomix"

// ring is the fixed slot array behind a versioned queue.
//
// Slots are overwritten in place and never cleared; a popped slot is retired
// only by the cursor moving past it. Which goroutine may touch a slot is
// decided entirely by the cursor, so the ring itself carries no indices.
type ring struct {
	slots []atomix.Uint64
	mask  uint64
}

func newRing(n uint64) ring {
	return ring{
		slots: make([]atomix.Uint64, n),
		mask:  n - 1,
	}
}

// store publishes v into the slot for offset.
func (r *ring) store(offset, v uint64) {
	r.slots[offset&r.mask].StoreRelease(v)
}

// load reads the slot for offset.
func (r *ring) load(offset uint64) uint64 {
	return r.slots[offset&r.mask].LoadAcquire()
}
