// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

import (
	"errors"
	"fmt"
)

// Layout selects how the cursor is spread over atomic words.
//
// Both layouts arbitrate on a separate counter word. The layout only decides
// how (version, back, front) is published for readers.
type Layout uint8

const (
	// LayoutPacked stores version, back and front in one cursor word:
	//
	//	| version | back | front |
	//
	// Every push and pop rewrites the whole word. Needs
	// versionBits + 2*offsetBits <= 64.
	LayoutPacked Layout = iota

	// LayoutSplit stores back and front in two words, each tagged with the
	// version of the mutation that last wrote it:
	//
	//	| version | back |    | version | front |
	//
	// A push rewrites only the back word and a pop only the front word.
	// Needs versionBits + offsetBits <= 64.
	LayoutSplit
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutPacked:
		return "packed"
	case LayoutSplit:
		return "split"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// ParseLayout maps a layout name back to its Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "packed":
		return LayoutPacked, nil
	case "split":
		return LayoutSplit, nil
	}
	return 0, fmt.Errorf("vq: unknown layout %q", s)
}

// Default field widths.
const (
	PackedOffsetBits  = 24
	PackedVersionBits = 16
	SplitOffsetBits   = 32
	SplitVersionBits  = 32
)

const wordBits = 64

var (
	errLayout = errors.New("vq: unknown cursor layout")
	errWidths = errors.New("vq: cursor field widths do not fit a 64-bit word")
)

// Cursor is the logical queue position.
//
// Back is the next write offset and Front the next read offset, both kept
// modulo 2^offsetBits. Front starts one capacity ahead of Back so that an
// empty queue (Front-Back == N) and a full queue (Front == Back) never share
// an encoding.
type Cursor struct {
	Version uint64
	Back    uint64
	Front   uint64
}

// Codec packs and unpacks cursors for one layout and pair of field widths.
//
// Codec is a value type with no shared state; all methods are pure.
type Codec struct {
	layout      Layout
	offsetBits  uint
	versionBits uint
	offsetMask  uint64
	versionMask uint64
}

// NewCodec returns a codec for layout with the given field widths.
func NewCodec(layout Layout, offsetBits, versionBits int) (Codec, error) {
	if layout != LayoutPacked && layout != LayoutSplit {
		return Codec{}, errLayout
	}
	if offsetBits < 2 || versionBits < 1 {
		return Codec{}, fmt.Errorf("%w: offset=%d version=%d", errWidths, offsetBits, versionBits)
	}
	need := versionBits + offsetBits
	if layout == LayoutPacked {
		need += offsetBits
	}
	if need > wordBits {
		return Codec{}, fmt.Errorf("%w: %s needs %d bits", errWidths, layout, need)
	}
	return Codec{
		layout:      layout,
		offsetBits:  uint(offsetBits),
		versionBits: uint(versionBits),
		offsetMask:  uint64(1)<<offsetBits - 1,
		versionMask: uint64(1)<<versionBits - 1,
	}, nil
}

// DefaultCodec returns the codec with the default widths for layout.
func DefaultCodec(layout Layout) Codec {
	var c Codec
	var err error
	if layout == LayoutSplit {
		c, err = NewCodec(layout, SplitOffsetBits, SplitVersionBits)
	} else {
		c, err = NewCodec(layout, PackedOffsetBits, PackedVersionBits)
	}
	if err != nil {
		panic(err)
	}
	return c
}

// Layout returns the codec's word layout.
func (c Codec) Layout() Layout { return c.layout }

// OffsetBits returns the width of the back and front fields.
func (c Codec) OffsetBits() int { return int(c.offsetBits) }

// VersionBits returns the width of the version field.
func (c Codec) VersionBits() int { return int(c.versionBits) }

// MaxCapacity is the largest capacity the offset field can address
// without empty and full colliding: 2^(offsetBits-1).
func (c Codec) MaxCapacity() uint64 {
	return uint64(1) << (c.offsetBits - 1)
}

// Next returns the version following v, wrapping within the version field.
func (c Codec) Next(v uint64) uint64 {
	return (v + 1) & c.versionMask
}

// Advance returns the offset following off, wrapping within the offset field.
func (c Codec) Advance(off uint64) uint64 {
	return (off + 1) & c.offsetMask
}

// Distance returns Front-Back modulo the offset field.
// It is capacity for an empty queue and 0 for a full one.
func (c Codec) Distance(cur Cursor) uint64 {
	return (cur.Front - cur.Back) & c.offsetMask
}

// Encode returns every cursor word for cur.
// The packed layout uses only the first word.
func (c Codec) Encode(cur Cursor) [2]uint64 {
	v := cur.Version & c.versionMask
	back := cur.Back & c.offsetMask
	front := cur.Front & c.offsetMask
	if c.layout == LayoutPacked {
		return [2]uint64{v<<(2*c.offsetBits) | back<<c.offsetBits | front, 0}
	}
	return [2]uint64{v<<c.offsetBits | back, v<<c.offsetBits | front}
}

// Publish returns the index and value of the one word a committed op
// writes for cur. Pushes publish the back word, pops the front word; in the
// packed layout both are word 0.
func (c Codec) Publish(op Op, cur Cursor) (int, uint64) {
	words := c.Encode(cur)
	if c.layout == LayoutSplit && op == OpPop {
		return 1, words[1]
	}
	return 0, words[0]
}

// Decode unpacks words observed alongside counter.
//
// The bool is true only when the version tag of the cursor word (packed) or
// of either offset word (split) equals the counter's version. A false result
// means a writer has committed but not yet published, and the offsets must
// not be used.
func (c Codec) Decode(counter uint64, words [2]uint64) (Cursor, bool) {
	last := counter & c.versionMask
	if c.layout == LayoutPacked {
		w := words[0]
		if (w>>(2*c.offsetBits))&c.versionMask != last {
			return Cursor{}, false
		}
		return Cursor{
			Version: last,
			Back:    (w >> c.offsetBits) & c.offsetMask,
			Front:   w & c.offsetMask,
		}, true
	}
	backTag := (words[0] >> c.offsetBits) & c.versionMask
	frontTag := (words[1] >> c.offsetBits) & c.versionMask
	if backTag != last && frontTag != last {
		return Cursor{}, false
	}
	return Cursor{
		Version: last,
		Back:    words[0] & c.offsetMask,
		Front:   words[1] & c.offsetMask,
	}, true
}

// Tags returns the version tags embedded in words. Both tags are equal in
// the packed layout.
func (c Codec) Tags(words [2]uint64) (back, front uint64) {
	if c.layout == LayoutPacked {
		tag := (words[0] >> (2 * c.offsetBits)) & c.versionMask
		return tag, tag
	}
	return (words[0] >> c.offsetBits) & c.versionMask, (words[1] >> c.offsetBits) & c.versionMask
}
