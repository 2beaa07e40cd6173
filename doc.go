// Package pickle decodes Python's pickle format.
//
// Use Decoder to decode a pickle from an input stream:
//
//	d := pickle.NewDecoder(r)
//	obj, err := d.Decode() // obj is interface{} representing the decoded Python value
//
// This package is decode-only: there is no Encoder. A malicious pickle can
// make CPython's own unpickler run arbitrary code via REDUCE/__reduce__;
// this decoder never calls into the module/name a GLOBAL or STACK_GLOBAL
// opcode names, so it cannot be made to do that. A fixed, closed table
// (see globals.go) recognizes a handful of container builtins well enough
// to reconstruct them; applying anything else it cannot identify is an
// UnresolvedGlobalError under the default Strict setting, and degrades to
// an opaque placeholder with Strict off - never a panic or an executed
// call.
//
// The following table summarizes the mapping between Python values and Go:
//
//	Python            Go
//	------            --
//
//	None          ↔   pickle.None
//	bool          ↔   bool
//	int           ↔   int64          (+)
//	long          ↔   *big.Int       (+)
//	float         ↔   float64
//	list          ↔   pickle.List
//	tuple         ↔   pickle.Tuple
//	dict          ↔   pickle.Dict
//	set           ↔   pickle.Set
//	frozenset     ↔   pickle.FrozenSet
//	bytes         ↔   pickle.Bytes
//	bytearray     ↔   pickle.Bytes
//	str           ↔   string         (~)
//
// With Strict off, classes, and class instances this decoder cannot
// reconstruct from the table in globals.go, come back as pickle.Global and
// pickle.OpaqueObject respectively rather than a Go struct: this package
// has no way to know what fields a class unknown to it should have. A
// BUILD applied to such an instance replaces the OpaqueObject with its
// state. With Strict on (NewDecoder's default), applying such a class is
// an UnresolvedGlobalError.
//
// (+) each integer is narrowed to int64 as it is decoded whenever the
// value fits, and stays a *big.Int only when it does not, matching how
// small and large Python ints alike are just "int" on the Python side.
//
// (~) whether the legacy (protocol 0/1) STRING/BINSTRING/SHORT_BINSTRING
// opcodes decode to string or to Bytes is controlled by
// DecoderConfig.DecodeStrings and DecoderConfig.Encoding - see their doc
// comments. UNICODE/BINUNICODE/SHORT_BINUNICODE/BINUNICODE8 always decode
// to string, matching Python 3's single text type. A legacy string that
// doesn't fit Encoding is, by default, a decode error; set
// DecoderConfig.UnicodeErrors to "replace" to get CPython's own
// errors="replace" behavior (substitute U+FFFD) instead.
//
// # Pickle protocol versions
//
// Over time the pickle stream format evolved: protocol 0 is a
// human-readable, line-oriented format; protocols 1 and 2 add binary
// encodings for the same opcodes' purposes; protocol 3 adds a bytes
// opcode; protocol 4 adds short forms, framing, and out-of-line
// memoization (MEMOIZE); protocol 5 adds out-of-band buffers. See
// https://docs.python.org/3/library/pickle.html#data-stream-format for the
// full history. Decode inspects the stream's own PROTO opcode (or its
// absence, for a protocol-0 stream) and needs no separate configuration
// to handle any supported version.
//
// # Persistent references
//
// Pickle was originally built for ZODB (http://zodb.org), where a pickle
// can reference another on-disk object without embedding it. A PERSID or
// BINPERSID opcode decodes to a BinPersId, leaving it to the caller to
// resolve the wrapped id into an application object if it wants to.
//
// # Out-of-band buffers
//
// A protocol-5 pickle that used PickleBuffer-based out-of-band transfer
// pulls those buffers back in via NEXT_BUFFER, in the same order they
// were collected during pickling. Configure DecoderConfig.Buffers with a
// BufferProvider to supply them; decoding a NEXT_BUFFER without one
// configured is an UnsupportedOpcodeError.
//
// # Extension registry
//
// EXT1/EXT2/EXT4 reference copyreg's extension registry by a small
// integer instead of spelling out a module and name. Configure
// DecoderConfig.Extensions to resolve them; an unregistered code is an
// UnsupportedOpcodeError.
package pickle
