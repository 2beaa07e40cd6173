package pickle

// BufferProvider supplies the out-of-band buffers a protocol-5 pickle's
// NEXT_BUFFER opcode pulls from, in the exact order buffer_callbacks
// collected them during pickling. This decoder does not implement a
// buffer callback protocol of its own (there is nothing to call back into
// - we only ever decode); it just drains the slice of already-collected
// buffers the caller hands in through DecoderConfig.Buffers.
type BufferProvider interface {
	// NextBuffer returns the next out-of-band buffer, and false if none
	// remain.
	NextBuffer() (Bytes, bool)
}

// sliceBufferProvider adapts a plain []Bytes (or [][]byte, via
// NewSliceBufferProvider) to BufferProvider.
type sliceBufferProvider struct {
	buffers []Bytes
	pos     int
}

// NewSliceBufferProvider returns a BufferProvider that yields the given
// buffers in order, once each.
func NewSliceBufferProvider(buffers []Bytes) BufferProvider {
	return &sliceBufferProvider{buffers: buffers}
}

func (p *sliceBufferProvider) NextBuffer() (Bytes, bool) {
	if p.pos >= len(p.buffers) {
		return nil, false
	}
	b := p.buffers[p.pos]
	p.pos++
	return b, true
}

// ExtensionRegistry maps the small integer codes EXT1/EXT2/EXT4 carry to
// the (module, name) pair copyreg.*_extension_registry would resolve them
// to. Like the Global emulation in globals.go, resolving a code only ever
// produces a Class value classified the same way GLOBAL/STACK_GLOBAL
// would be - it never executes anything.
type ExtensionRegistry map[int]Class

// Lookup resolves code, returning its Class and whether code was
// registered at all.
func (r ExtensionRegistry) Lookup(code int) (Class, bool) {
	c, ok := r[code]
	return c, ok
}
