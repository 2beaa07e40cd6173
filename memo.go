package pickle

// memoEntry is one slot of the memo table: a decoded value together with
// the number of outstanding memoRef values that still point at it. The
// count is what lets the post-processor move a shared value into its
// single remaining use instead of deep-copying it - see postprocess.go.
type memoEntry struct {
	value    any
	refcount int
}

// memo is the id -> (value, refcount) table described in spec §3/§4.2. It
// is private to a single decode: NewDecoderWithConfig creates a fresh one
// for each Decoder, which is good for exactly one Decode call.
type memo struct {
	table map[uint32]*memoEntry
}

func newMemo() *memo {
	return &memo{table: make(map[uint32]*memoEntry)}
}

// size is the id MEMOIZE uses: Python's memo dict grows by exactly one
// entry per PUT/BINPUT/LONG_BINPUT/MEMOIZE, so its length doubles as an
// auto-incrementing counter.
func (m *memo) size() uint32 {
	return uint32(len(m.table))
}

// save stores v at id, replacing whatever was there (PUT opcodes may
// rebind an id; CPython's memo is a plain dict assignment, not an insert),
// and returns the memoRef placeholder with a fresh refcount of 1.
func (m *memo) save(id uint32, v any) memoRef {
	m.table[id] = &memoEntry{value: v, refcount: 1}
	return memoRef(id)
}

// load returns the memoRef placeholder for id, bumping its refcount to
// account for the new reference about to be pushed onto the operand
// stack.
func (m *memo) load(id uint32, pos int64) (memoRef, error) {
	e, ok := m.table[id]
	if !ok {
		return 0, &MissingMemoError{ID: id, Pos: pos}
	}
	e.refcount++
	return memoRef(id), nil
}

// resave replaces the value stored at id in place, keeping its current
// refcount. Used when an in-progress container is reached indirectly
// through a memoRef (a self-referential list or dict being built via
// GET-then-APPEND/SETITEM) rather than sitting directly on the operand
// stack: the id is the only stable handle such a container has while
// Go's append may relocate its backing array.
func (m *memo) resave(id uint32, v any) {
	e, ok := m.table[id]
	if !ok {
		m.table[id] = &memoEntry{value: v, refcount: 1}
		return
	}
	e.value = v
}

// peek returns the value currently stored at id without touching its
// refcount. It backs the "see through a memoRef" behavior collections.go
// needs when a still-undecoded Value is used as a Dict/Set key: hashing
// and equality must be able to look at what a memoRef actually refers to,
// any number of times, without that accounting as a "resolve".
func (m *memo) peek(id uint32) (any, bool) {
	e, ok := m.table[id]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// bump records one more outstanding reference to id beyond the ones load
// already accounted for - needed when DUP duplicates a memoRef that is
// already sitting on the operand stack, since that manufactures a second
// reference without going through a GET opcode.
func (m *memo) bump(id uint32) {
	if e, ok := m.table[id]; ok {
		e.refcount++
	}
}

// take consumes one outstanding reference to id, as the post-processor
// does while resolving a memoRef it finds (see postprocess.go). It always
// returns the entry's current value. When this was the last outstanding
// reference, the entry is deleted and the caller is free to treat the
// value as its own to move; otherwise the entry (and its value) is left in
// place for the references that remain, and the caller must not mutate
// what it gets back in place - postprocessor.walk never does, since it
// only ever builds new composites from what it reads.
func (m *memo) take(id uint32) (any, bool) {
	e, ok := m.table[id]
	if !ok {
		return nil, false
	}
	e.refcount--
	v := e.value
	if e.refcount <= 0 {
		delete(m.table, id)
	}
	return v, true
}

