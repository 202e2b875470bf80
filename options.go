// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vq

// Options configures queue creation.
type Options struct {
	// Capacity (exact power of 2)
	capacity int

	// Cursor encoding; zero widths pick the layout defaults
	layout      Layout
	offsetBits  int
	versionBits int

	// Counter ordering: AcqRel when set, Relaxed otherwise
	strict bool

	retry    RetryPolicy
	observer Observer
	verbose  bool // Report every failed attempt to the observer
}

func (o Options) codec() (Codec, error) {
	ob, vb := o.offsetBits, o.versionBits
	if ob == 0 && vb == 0 {
		return DefaultCodec(o.layout), nil
	}
	return NewCodec(o.layout, ob, vb)
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Packed cursor, relaxed counter (defaults)
//	q := vq.Build[uint64](vq.New(1024))
//
//	// Split cursor words, acquire-release counter
//	q := vq.BuildStrict[uint64](vq.New(4096).Split().Strict())
//
//	// Small fields to exercise wraparound
//	q := vq.Build[int](vq.New(4).Widths(4, 8))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Panics unless capacity is a power of 2. Capacity is not rounded: a wrong
// capacity is a programming error.
func New(capacity int) *Builder {
	checkCapacity(capacity)
	return &Builder{opts: Options{
		capacity: capacity,
		layout:   LayoutPacked,
		retry:    DefaultRetryPolicy(),
	}}
}

// Packed selects [LayoutPacked]. This is the default.
func (b *Builder) Packed() *Builder {
	b.opts.layout = LayoutPacked
	return b
}

// Split selects [LayoutSplit].
func (b *Builder) Split() *Builder {
	b.opts.layout = LayoutSplit
	return b
}

// Widths sets the offset and version field widths in bits.
// Build panics if they do not fit the layout.
func (b *Builder) Widths(offsetBits, versionBits int) *Builder {
	b.opts.offsetBits = offsetBits
	b.opts.versionBits = versionBits
	return b
}

// Strict selects the [AcqRel] counter ordering.
func (b *Builder) Strict() *Builder {
	b.opts.strict = true
	return b
}

// RetryLimit sets the attempt budget of every operation.
func (b *Builder) RetryLimit(n int) *Builder {
	b.opts.retry.Limit = n
	return b
}

// SpinLimit sets how many failed attempts pause the CPU before the retry
// loop starts yielding the processor.
func (b *Builder) SpinLimit(n int) *Builder {
	b.opts.retry.Spins = n
	return b
}

// Observe installs an observer for diagnostics. Without it, exhaustion
// is logged at warn level to [log/slog.Default]; pass [NopObserver] to
// silence it.
func (b *Builder) Observe(o Observer) *Builder {
	b.opts.observer = o
	return b
}

// Verbose reports every failed attempt to the observer, not only exhaustion.
func (b *Builder) Verbose() *Builder {
	b.opts.verbose = true
	return b
}

// Build creates a Queue[T] from the builder's configuration.
//
// Ordering selection:
//
//	default  → *Versioned[T, Relaxed]
//	Strict() → *Versioned[T, AcqRel]
//
// For concrete return types, use BuildRelaxed or BuildStrict.
func Build[T Word](b *Builder) Queue[T] {
	if b.opts.strict {
		return newVersioned[T, AcqRel](b.opts)
	}
	return newVersioned[T, Relaxed](b.opts)
}

// BuildRelaxed creates a queue with the Relaxed counter ordering.
// Panics if the builder is configured with Strict().
func BuildRelaxed[T Word](b *Builder) *Versioned[T, Relaxed] {
	if b.opts.strict {
		panic("vq: BuildRelaxed requires a builder without Strict()")
	}
	return newVersioned[T, Relaxed](b.opts)
}

// BuildStrict creates a queue with the AcqRel counter ordering.
// Panics unless the builder is configured with Strict().
func BuildStrict[T Word](b *Builder) *Versioned[T, AcqRel] {
	if !b.opts.strict {
		panic("vq: BuildStrict requires Strict()")
	}
	return newVersioned[T, AcqRel](b.opts)
}

// BuildMutex creates the mutex-guarded reference queue with the builder's
// capacity. All other options are ignored.
func BuildMutex[T Word](b *Builder) *Mutex[T] {
	return NewMutex[T](b.opts.capacity)
}

// checkCapacity panics unless n is a positive power of 2.
func checkCapacity(n int) {
	if n <= 0 || n&(n-1) != 0 {
		panic("vq: capacity must be a power of 2")
	}
}
