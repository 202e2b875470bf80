// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import "code.hybscloud.com/atomix"

// Ordering selects the memory orderings of the counter word.
//
// Ordering is a type parameter of [Versioned], so the choice is fixed at
// compile time. Cursor words are always loaded with acquire and published
// with release, and slots are always stored with release and loaded with
// acquire; that pairing alone carries every element from its writer to its
// reader. The counter only arbitrates, which is why [Relaxed] may leave it
// unordered.
//
// The interface is sealed: only [Relaxed] and [AcqRel] implement it.
type Ordering interface {
	loadCounter(a *atomix.Uint64) uint64
	casCounter(a *atomix.Uint64, old, new uint64) bool
	name() string
}

// Relaxed loads and swaps the counter with relaxed ordering.
// Fewer fences; the default.
type Relaxed struct{}

func (Relaxed) loadCounter(a *atomix.Uint64) uint64 { return a.LoadRelaxed() }

func (Relaxed) casCounter(a *atomix.Uint64, old, new uint64) bool {
	return a.CompareAndSwapRelaxed(old, new)
}

func (Relaxed) name() string { return "relaxed" }

// AcqRel loads the counter with acquire and swaps it with acquire-release.
type AcqRel struct{}

func (AcqRel) loadCounter(a *atomix.Uint64) uint64 { return a.LoadAcquire() }

func (AcqRel) casCounter(a *atomix.Uint64, old, new uint64) bool {
	return a.CompareAndSwapAcqRel(old, new)
}

func (AcqRel) name() string { return "acqrel" }
