// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint summarizes a multiset of values.
//
// Sum adds the xxhash of every value, so the result does not depend on
// insertion order and two workers' fingerprints can be merged by addition.
// Equal multisets always have equal fingerprints.
type Fingerprint struct {
	Count uint64
	Sum   uint64
}

// Add records v.
func (f *Fingerprint) Add(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	f.Sum += xxhash.Sum64(b[:])
	f.Count++
}

// Merge returns the fingerprint of both multisets.
func (f Fingerprint) Merge(g Fingerprint) Fingerprint {
	return Fingerprint{Count: f.Count + g.Count, Sum: f.Sum + g.Sum}
}
