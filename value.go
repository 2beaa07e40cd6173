package pickle

import "math/big"

// None is the Go representation of Python's None.
type None struct{}

// List is a Python list: an ordered, mutable-by-construction sequence.
//
// It is built incrementally by APPEND/APPENDS and by LIST, so unlike Tuple
// its backing array may be grown after the initial EMPTY_LIST.
type List []any

// Tuple is a Python tuple: an ordered, immutable-by-construction sequence.
type Tuple []any

// Bytes is a Python bytes object: a raw sequence of 8-bit values with no
// text encoding attached.
//
// Bytes is distinct from string even when the underlying content is
// identical - this mirrors Python 3, where b"x" != "x".
type Bytes []byte

// Class identifies a (module, name) pair referenced by a GLOBAL or
// STACK_GLOBAL opcode, the way Python's pickle.find_class would.
type Class struct {
	Module string
	Name   string
}

// GlobalKind classifies a Class reference into the handful of builtins this
// decoder knows how to emulate without executing arbitrary code.
type GlobalKind int

const (
	// GlobalOther is any (module, name) pair this decoder does not
	// special-case. In strict mode, applying REDUCE to it is an error;
	// in non-strict mode it degrades to an opaque placeholder.
	GlobalOther GlobalKind = iota
	GlobalSet
	GlobalFrozenset
	GlobalBytearray
	GlobalList
	GlobalInt
	GlobalEncode
)

func (k GlobalKind) String() string {
	switch k {
	case GlobalSet:
		return "set"
	case GlobalFrozenset:
		return "frozenset"
	case GlobalBytearray:
		return "bytearray"
	case GlobalList:
		return "list"
	case GlobalInt:
		return "int"
	case GlobalEncode:
		return "_codecs.encode"
	default:
		return "other"
	}
}

// Global is the transient value a GLOBAL/STACK_GLOBAL opcode pushes: a
// symbolic reference to a class or function, classified just enough to let
// REDUCE/NEWOBJ/NEWOBJ_EX recover a handful of built-in container types.
//
// A Global surviving to the end of decoding (Kind == GlobalOther, never
// consumed by REDUCE) is preserved by the post-processor as an opaque
// sentinel rather than an error; see DecoderConfig.Strict for when that is
// instead rejected outright.
type Global struct {
	Kind  GlobalKind
	Class Class // the (module, name) referenced, after any FixImports rewrite
}

// memoRef is the transient placeholder GET/BINGET/LONG_BINGET and
// PUT/BINPUT/LONG_BINPUT/MEMOIZE leave on the operand stack in place of the
// real value. It never survives past the post-processing pass - see
// postprocess.go.
type memoRef uint32

// BinPersId wraps a persistent-id reference recovered from PERSID or
// BINPERSID. It is opaque to this decoder: resolving it into an
// application object is the caller's job (see doc.go's discussion, and
// AsPersistentID in typeconv.go).
type BinPersId struct {
	Pid any
}

// OpaqueObject is what INST/OBJ/NEWOBJ/NEWOBJ_EX degrade to when their
// class is not one of the handful this decoder emulates (see globals.go)
// and Strict is off: the class identity and arguments are kept, since this
// decoder never executes the referenced class's code. A later BUILD
// replaces the whole OpaqueObject with its state, so Decode never fills
// State itself.
type OpaqueObject struct {
	Class  Class
	Args   Tuple // the __new__/__init__ argument tuple, if any
	Kwargs Dict  // NEWOBJ_EX's keyword-argument dict, if any
	State  any   // not set by Decode; the post-processor walks it if present
}

// bigIntFloat64 converts b to the nearest float64, reporting whether the
// conversion was exact. It underlies Dict/Set hashing and equality, which
// need to compare big.Int against float64 without losing the "was this
// lossless" information, and AsFloat64.
func bigIntFloat64(b *big.Int) (float64, big.Accuracy) {
	return new(big.Float).SetInt(b).Float64()
}
