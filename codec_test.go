// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq_test

import (
	"slices"
	"testing"

	"code.hybscloud.com/vq"
)

// =============================================================================
// Codec - Field Layout
// =============================================================================

func TestCodecDefaults(t *testing.T) {
	tests := []struct {
		layout      vq.Layout
		offsetBits  int
		versionBits int
		maxCap      uint64
	}{
		{vq.LayoutPacked, 24, 16, 1 << 23},
		{vq.LayoutSplit, 32, 32, 1 << 31},
	}
	for tt := range slices.Values(tests) {
		t.Run(tt.layout.String(), func(t *testing.T) {
			c := vq.DefaultCodec(tt.layout)
			if c.Layout() != tt.layout {
				t.Fatalf("Layout: got %v, want %v", c.Layout(), tt.layout)
			}
			if c.OffsetBits() != tt.offsetBits {
				t.Fatalf("OffsetBits: got %d, want %d", c.OffsetBits(), tt.offsetBits)
			}
			if c.VersionBits() != tt.versionBits {
				t.Fatalf("VersionBits: got %d, want %d", c.VersionBits(), tt.versionBits)
			}
			if c.MaxCapacity() != tt.maxCap {
				t.Fatalf("MaxCapacity: got %d, want %d", c.MaxCapacity(), tt.maxCap)
			}
		})
	}
}

func TestNewCodecRejectsBadWidths(t *testing.T) {
	tests := []struct {
		name        string
		layout      vq.Layout
		offsetBits  int
		versionBits int
	}{
		{"packed overflow", vq.LayoutPacked, 24, 17},
		{"packed wide offsets", vq.LayoutPacked, 32, 8},
		{"split overflow", vq.LayoutSplit, 32, 33},
		{"offset too narrow", vq.LayoutSplit, 1, 8},
		{"no version", vq.LayoutPacked, 8, 0},
		{"unknown layout", vq.Layout(7), 8, 8},
	}
	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := vq.NewCodec(tt.layout, tt.offsetBits, tt.versionBits); err == nil {
				t.Fatalf("NewCodec(%v, %d, %d): got nil error", tt.layout, tt.offsetBits, tt.versionBits)
			}
		})
	}

	// Exact fits are accepted.
	if _, err := vq.NewCodec(vq.LayoutPacked, 24, 16); err != nil {
		t.Fatalf("NewCodec packed 24/16: %v", err)
	}
	if _, err := vq.NewCodec(vq.LayoutSplit, 48, 16); err != nil {
		t.Fatalf("NewCodec split 48/16: %v", err)
	}
}

func TestLayoutString(t *testing.T) {
	for _, l := range []vq.Layout{vq.LayoutPacked, vq.LayoutSplit} {
		got, err := vq.ParseLayout(l.String())
		if err != nil {
			t.Fatalf("ParseLayout(%q): %v", l.String(), err)
		}
		if got != l {
			t.Fatalf("ParseLayout(%q): got %v, want %v", l.String(), got, l)
		}
	}
	if _, err := vq.ParseLayout("ring"); err == nil {
		t.Fatal("ParseLayout(ring): got nil error")
	}
	if s := vq.Layout(9).String(); s != "Layout(9)" {
		t.Fatalf("Layout(9).String: got %q", s)
	}
}

// =============================================================================
// Codec - Encode / Decode
// =============================================================================

func TestCodecPackedEncode(t *testing.T) {
	c := vq.DefaultCodec(vq.LayoutPacked)
	cur := vq.Cursor{Version: 5, Back: 3, Front: 7}

	words := c.Encode(cur)
	if want := uint64(5)<<48 | 3<<24 | 7; words[0] != want {
		t.Fatalf("Encode: got %#x, want %#x", words[0], want)
	}
	if words[1] != 0 {
		t.Fatalf("Encode: second word got %#x, want 0", words[1])
	}

	got, ok := c.Decode(5, words)
	if !ok {
		t.Fatal("Decode: got inconsistent, want consistent")
	}
	if got != cur {
		t.Fatalf("Decode: got %+v, want %+v", got, cur)
	}

	// A stale tag means a committed writer has not published yet.
	if _, ok := c.Decode(6, words); ok {
		t.Fatal("Decode with newer counter: got consistent")
	}

	// Only the low versionBits of the counter take part.
	if _, ok := c.Decode(1<<16|5, words); !ok {
		t.Fatal("Decode with high counter bits: got inconsistent")
	}

	back, front := c.Tags(words)
	if back != 5 || front != 5 {
		t.Fatalf("Tags: got (%d, %d), want (5, 5)", back, front)
	}
}

func TestCodecSplitEncode(t *testing.T) {
	c := vq.DefaultCodec(vq.LayoutSplit)
	cur := vq.Cursor{Version: 9, Back: 12, Front: 20}

	words := c.Encode(cur)
	if want := uint64(9)<<32 | 12; words[0] != want {
		t.Fatalf("Encode back: got %#x, want %#x", words[0], want)
	}
	if want := uint64(9)<<32 | 20; words[1] != want {
		t.Fatalf("Encode front: got %#x, want %#x", words[1], want)
	}

	got, ok := c.Decode(9, words)
	if !ok || got != cur {
		t.Fatalf("Decode: got %+v ok=%v, want %+v", got, ok, cur)
	}

	// Either tag may carry the counter's version.
	mixed := [2]uint64{uint64(9)<<32 | 12, uint64(4)<<32 | 20}
	if got, ok := c.Decode(9, mixed); !ok || got.Back != 12 || got.Front != 20 {
		t.Fatalf("Decode back-tagged: got %+v ok=%v", got, ok)
	}
	mixed = [2]uint64{uint64(4)<<32 | 12, uint64(9)<<32 | 20}
	if _, ok := c.Decode(9, mixed); !ok {
		t.Fatal("Decode front-tagged: got inconsistent")
	}

	stale := [2]uint64{uint64(7)<<32 | 12, uint64(8)<<32 | 20}
	if _, ok := c.Decode(9, stale); ok {
		t.Fatal("Decode with stale tags: got consistent")
	}

	back, front := c.Tags(stale)
	if back != 7 || front != 8 {
		t.Fatalf("Tags: got (%d, %d), want (7, 8)", back, front)
	}
}

func TestCodecEncodeMasksFields(t *testing.T) {
	c, err := vq.NewCodec(vq.LayoutPacked, 4, 8)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	words := c.Encode(vq.Cursor{Version: 0x1ff, Back: 0x13, Front: 0x2a})
	got, ok := c.Decode(0xff, words)
	if !ok {
		t.Fatal("Decode: got inconsistent")
	}
	want := vq.Cursor{Version: 0xff, Back: 0x3, Front: 0xa}
	if got != want {
		t.Fatalf("Decode: got %+v, want %+v", got, want)
	}
}

func TestCodecPublish(t *testing.T) {
	cur := vq.Cursor{Version: 3, Back: 1, Front: 6}

	packed := vq.DefaultCodec(vq.LayoutPacked)
	for _, op := range []vq.Op{vq.OpPush, vq.OpPop} {
		i, w := packed.Publish(op, cur)
		if i != 0 || w != packed.Encode(cur)[0] {
			t.Fatalf("packed Publish(%v): got (%d, %#x)", op, i, w)
		}
	}

	split := vq.DefaultCodec(vq.LayoutSplit)
	words := split.Encode(cur)
	if i, w := split.Publish(vq.OpPush, cur); i != 0 || w != words[0] {
		t.Fatalf("split Publish(push): got (%d, %#x), want (0, %#x)", i, w, words[0])
	}
	if i, w := split.Publish(vq.OpPop, cur); i != 1 || w != words[1] {
		t.Fatalf("split Publish(pop): got (%d, %#x), want (1, %#x)", i, w, words[1])
	}
}

// =============================================================================
// Codec - Offset Arithmetic
// =============================================================================

func TestCodecWraparound(t *testing.T) {
	c, err := vq.NewCodec(vq.LayoutSplit, 4, 8)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	if got := c.Next(255); got != 0 {
		t.Fatalf("Next(255): got %d, want 0", got)
	}
	if got := c.Next(7); got != 8 {
		t.Fatalf("Next(7): got %d, want 8", got)
	}
	if got := c.Advance(15); got != 0 {
		t.Fatalf("Advance(15): got %d, want 0", got)
	}

	tests := []struct {
		back, front uint64
		want        uint64
	}{
		{0, 8, 8},  // empty, capacity 8
		{5, 5, 0},  // full
		{14, 2, 4}, // front wrapped past zero
		{3, 9, 6},
	}
	for tt := range slices.Values(tests) {
		if got := c.Distance(vq.Cursor{Back: tt.back, Front: tt.front}); got != tt.want {
			t.Fatalf("Distance(back=%d, front=%d): got %d, want %d", tt.back, tt.front, got, tt.want)
		}
	}
}
