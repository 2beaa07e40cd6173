package pickle

import (
	"io"
	"math/big"
	"strconv"
	"unicode/utf8"
)

// DecoderConfig controls the handful of behaviors CPython's own Unpickler
// exposes as constructor arguments. The zero value decodes legacy strings
// as Bytes and runs in non-strict mode with fix_imports off; NewDecoder
// does not use the zero value; it turns DecodeStrings, Strict, and
// FixImports all on, matching CPython's own Unpickler defaults.
type DecoderConfig struct {
	// DecodeStrings, if true (NewDecoder's default), decodes legacy
	// STRING/BINSTRING/SHORT_BINSTRING payloads into a Go string using
	// Encoding, matching CPython 2's str semantics. If false, those
	// opcodes produce Bytes, matching Python 3's encoding="bytes"
	// unpickling mode.
	DecodeStrings bool

	// Encoding names the codec DecodeStrings uses. Only "utf-8"/"utf8",
	// "latin1"/"latin-1"/"iso-8859-1" and "ascii" are understood, plus
	// "bytes", which makes those opcodes produce Bytes just as
	// DecodeStrings false does; anything else is reported as an error the
	// first time it is needed (with UnicodeErrors "replace", every byte
	// becomes U+FFFD instead). Defaults to "ASCII" when empty, matching
	// CPython's own default.
	Encoding string

	// FixImports rewrites a handful of Python-2-only module spellings
	// (__builtin__.set and friends) to their Python 3 equivalents before
	// classifying a GLOBAL/STACK_GLOBAL/EXT* reference. NewDecoder turns
	// it on; the zero value leaves it off, which keeps the raw names a
	// protocol-0/1 producer wrote.
	FixImports bool

	// Strict, if true (NewDecoder's default), turns an unrecognized
	// Global actually being applied (via REDUCE, NEWOBJ, NEWOBJ_EX) or
	// surviving post-processing unconsumed into an UnresolvedGlobalError,
	// instead of degrading to an OpaqueObject/opaque Global sentinel.
	Strict bool

	// UnicodeErrors mirrors CPython's _Unpickler errors= constructor
	// argument: it governs what happens when a legacy STRING/BINSTRING/
	// SHORT_BINSTRING payload fails to decode under Encoding. "strict"
	// (the default, used when empty) reports the failure as an error;
	// "replace" substitutes the Unicode replacement character for each
	// byte that doesn't fit the codec, matching Python's own "replace"
	// error handler, and never fails.
	UnicodeErrors string

	// Buffers supplies the out-of-band buffers NEXT_BUFFER (protocol 5)
	// pulls from, in pickling order. Decoding a buffer-using stream
	// without one configured is an UnsupportedOpcodeError.
	Buffers BufferProvider

	// Extensions resolves EXT1/EXT2/EXT4 codes to a Class. Decoding an
	// unregistered extension code is an UnsupportedOpcodeError.
	Extensions ExtensionRegistry
}

func (c DecoderConfig) encoding() string {
	if c.Encoding == "" {
		return "ascii"
	}
	return c.Encoding
}

// Decoder reads a single pickle stream and produces its decoded Value.
// It is not safe for concurrent use, and is good for exactly one Decode
// call: the memo table and operand/mark stacks are per-stream state.
type Decoder struct {
	r   *byteReader
	cfg DecoderConfig

	memo  *memo
	stack []any
	marks []int

	unsupported []UnsupportedGlobalError
}

// NewDecoder returns a Decoder configured to match CPython's own
// Unpickler defaults: legacy strings decode to Go strings (DecodeStrings),
// fix_imports rewriting is applied, and an unresolved global is a hard
// error (Strict). Use NewDecoderWithConfig to change any of these.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, DecoderConfig{
		DecodeStrings: true,
		FixImports:    true,
		Strict:        true,
	})
}

// NewDecoderWithConfig returns a Decoder using cfg verbatim.
func NewDecoderWithConfig(r io.Reader, cfg DecoderConfig) *Decoder {
	return &Decoder{
		r:    newByteReader(r),
		cfg:  cfg,
		memo: newMemo(),
	}
}

// Decode reads exactly one pickle from the stream and returns its final,
// fully-resolved Value - no memoRef survives into the result. A Global
// left unconsumed is kept as is, except that in Strict mode an
// unrecognized one (GlobalOther) is an UnresolvedGlobalError. It returns
// an error, and leaves the reader in
// an unspecified position, at the first malformed opcode; a pickle stream
// decoder never resyncs.
func (d *Decoder) Decode() (any, error) {
	for {
		op, err := d.r.readByte()
		if err != nil {
			return nil, err
		}
		if op == opStop {
			v, err := d.pop(op)
			if err != nil {
				return nil, err
			}
			if !d.r.atEOF() {
				return nil, &TrailingBytesError{Pos: d.r.pos}
			}
			return resolve(d.memo, v, d.cfg.Strict)
		}
		if err := d.dispatch(op); err != nil {
			return nil, err
		}
	}
}

// UnsupportedGlobals returns every (module, name) pair this Decoder saw
// applied but could not reduce to a concrete value, in the order
// encountered. It is only meaningful in non-strict mode: Strict mode fails
// the decode outright on the first one instead (UnresolvedGlobalError).
func (d *Decoder) UnsupportedGlobals() []UnsupportedGlobalError {
	return append([]UnsupportedGlobalError(nil), d.unsupported...)
}

// ---- operand / mark stack ----

func (d *Decoder) push(v any) { d.stack = append(d.stack, v) }

func (d *Decoder) pop(op byte) (any, error) {
	if len(d.stack) == 0 {
		return nil, &StackUnderflowError{Op: op, Pos: d.r.pos}
	}
	v := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return v, nil
}

func (d *Decoder) top(op byte) (any, error) {
	if len(d.stack) == 0 {
		return nil, &StackUnderflowError{Op: op, Pos: d.r.pos}
	}
	return d.stack[len(d.stack)-1], nil
}

func (d *Decoder) mark() {
	d.marks = append(d.marks, len(d.stack))
}

// popMark pops and returns everything above the topmost mark, discarding
// the mark itself.
func (d *Decoder) popMark(op byte) ([]any, error) {
	if len(d.marks) == 0 {
		return nil, &StackUnderflowError{Op: op, Pos: d.r.pos}
	}
	at := d.marks[len(d.marks)-1]
	d.marks = d.marks[:len(d.marks)-1]
	items := append([]any(nil), d.stack[at:]...)
	d.stack = d.stack[:at]
	return items, nil
}

// resolveSlot returns the value logically at stack index idx, peeking
// through a memoRef without touching its refcount.
func (d *Decoder) resolveSlot(idx int) any {
	if id, ok := d.stack[idx].(memoRef); ok {
		v, _ := d.memo.peek(uint32(id))
		return v
	}
	return d.stack[idx]
}

// setSlot writes a new value for the container logically at stack index
// idx, through the memo table if it is addressed indirectly. See
// memo.resave for why this is needed rather than just d.stack[idx] = v.
func (d *Decoder) setSlot(idx int, v any) {
	if id, ok := d.stack[idx].(memoRef); ok {
		d.memo.resave(uint32(id), v)
		return
	}
	d.stack[idx] = v
}

// memoizeTop stores the current stack top at id and replaces it in place
// with a memoRef placeholder, the same placeholder a GET for id would
// push. Without this, a container later mutated in place (APPEND et al.
// reached through this exact stack slot, not through a later GET) would
// leave the memo table holding a stale copy: Go's append may relocate a
// List's backing array, so "the object PUT saved" and "the object
// sitting on the stack a moment later" would silently diverge. Folding
// PUT's target into the same memoRef indirection GET already uses keeps
// a single source of truth - this is also what makes the self-
// referential-list case (APPENDS mutating a list found via a prior
// BINGET of itself) resolve correctly rather than just losing the
// mutation.
func (d *Decoder) memoizeTop(id uint32) error {
	idx := len(d.stack) - 1
	if idx < 0 {
		return &StackUnderflowError{Op: opMemoize, Pos: d.r.pos}
	}
	ref := d.memo.save(id, d.stack[idx])
	d.stack[idx] = ref
	return nil
}

func (d *Decoder) getList(idx int, op byte) (List, error) {
	v := d.resolveSlot(idx)
	lst, ok := v.(List)
	if !ok {
		return nil, &InvalidStackTopError{Expected: "list", Got: v, Pos: d.r.pos}
	}
	return lst, nil
}

func (d *Decoder) getDict(idx int, op byte) (Dict, error) {
	v := d.resolveSlot(idx)
	dd, ok := v.(Dict)
	if !ok {
		return Dict{}, &InvalidStackTopError{Expected: "dict", Got: v, Pos: d.r.pos}
	}
	return dd, nil
}

// withHashGuard runs f, turning a panic from an unhashable Dict/Set key
// (List/Dict/Set/FrozenSet used where Python would raise TypeError) into
// a proper InvalidValueError instead of letting it escape Decode.
func (d *Decoder) withHashGuard(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvalidValueError{Msg: "unhashable type", Pos: d.r.pos}
		}
	}()
	f()
	return nil
}

// ---- dispatch ----

func (d *Decoder) dispatch(op byte) error {
	switch op {

	// framing / meta

	case opProto:
		v, err := d.r.readByte()
		if err != nil {
			return err
		}
		if v > highestProtocol {
			return &InvalidPickleVersionError{Version: v, Pos: d.r.pos}
		}
		return nil

	case opFrame:
		_, err := d.r.readU64LE() // frame length: not needed by a non-streaming decoder
		return err

	// stack manipulation

	case opMark:
		d.mark()
		return nil

	case opPop:
		if len(d.marks) > 0 && len(d.stack) == d.marks[len(d.marks)-1] {
			_, err := d.popMark(op)
			return err
		}
		_, err := d.pop(op)
		return err

	case opPopMark:
		_, err := d.popMark(op)
		return err

	case opDup:
		v, err := d.top(op)
		if err != nil {
			return err
		}
		if id, ok := v.(memoRef); ok {
			d.memo.bump(uint32(id))
		}
		d.push(v)
		return nil

	// memo save

	case opPut:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		id, perr := strconv.ParseUint(string(line), 10, 32)
		if perr != nil {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		return d.memoizeTop(uint32(id))

	case opBinput:
		b, err := d.r.readByte()
		if err != nil {
			return err
		}
		return d.memoizeTop(uint32(b))

	case opLongBinput:
		id, err := d.r.readU32LE()
		if err != nil {
			return err
		}
		return d.memoizeTop(id)

	case opMemoize:
		return d.memoizeTop(d.memo.size())

	// memo load

	case opGet:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		id, perr := strconv.ParseUint(string(line), 10, 32)
		if perr != nil {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		ref, err := d.memo.load(uint32(id), d.r.pos)
		if err != nil {
			return err
		}
		d.push(ref)
		return nil

	case opBinget:
		b, err := d.r.readByte()
		if err != nil {
			return err
		}
		ref, err := d.memo.load(uint32(b), d.r.pos)
		if err != nil {
			return err
		}
		d.push(ref)
		return nil

	case opLongBinget:
		id, err := d.r.readU32LE()
		if err != nil {
			return err
		}
		ref, err := d.memo.load(id, d.r.pos)
		if err != nil {
			return err
		}
		d.push(ref)
		return nil

	// singletons

	case opNone:
		d.push(None{})
		return nil

	case opNewtrue:
		d.push(true)
		return nil

	case opNewfalse:
		d.push(false)
		return nil

	// text integers

	case opInt:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		v, perr := parseIntLiteral(string(line))
		if perr != nil {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		d.push(v)
		return nil

	case opLong:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		s := string(line)
		if len(s) > 0 && (s[len(s)-1] == 'L' || s[len(s)-1] == 'l') {
			s = s[:len(s)-1]
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		d.push(demoteBigInt(n))
		return nil

	// binary integers

	case opBinint:
		v, err := d.r.readI32LE()
		if err != nil {
			return err
		}
		d.push(int64(v))
		return nil

	case opBinint1:
		b, err := d.r.readByte()
		if err != nil {
			return err
		}
		d.push(int64(b))
		return nil

	case opBinint2:
		v, err := d.r.readU16LE()
		if err != nil {
			return err
		}
		d.push(int64(v))
		return nil

	case opLong1:
		data, err := d.r.readU8Prefixed()
		if err != nil {
			return err
		}
		d.push(demoteBigInt(decodeLong(data)))
		return nil

	case opLong4:
		n, err := d.r.readI32LE()
		if err != nil {
			return err
		}
		data, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		d.push(demoteBigInt(decodeLong(data)))
		return nil

	// floats

	case opFloat:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		f, perr := strconv.ParseFloat(string(line), 64)
		if perr != nil {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		d.push(f)
		return nil

	case opBinfloat:
		f, err := d.r.readF64BE()
		if err != nil {
			return err
		}
		d.push(f)
		return nil

	// byte strings

	case opShortBinbytes:
		b, err := d.r.readU8Prefixed()
		if err != nil {
			return err
		}
		d.push(Bytes(b))
		return nil

	case opBinbytes:
		n, err := d.r.readU32LE()
		if err != nil {
			return err
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		d.push(Bytes(b))
		return nil

	case opBinbytes8:
		n, err := d.r.readU64LE()
		if err != nil {
			return err
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		d.push(Bytes(b))
		return nil

	case opBytearray8:
		n, err := d.r.readU64LE()
		if err != nil {
			return err
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		d.push(Bytes(b))
		return nil

	// legacy (protocol 0/1) strings

	case opString:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		raw, uerr := unquotePyString(string(line))
		if uerr != nil {
			return &InvalidLiteralError{Raw: string(line), Pos: d.r.pos}
		}
		decoded, derr := decodeStringEscape(raw)
		if derr != nil {
			return &InvalidLiteralError{Raw: raw, Pos: d.r.pos}
		}
		return d.pushLegacyString([]byte(decoded))

	case opBinstring:
		n, err := d.r.readI32LE()
		if err != nil {
			return err
		}
		if n < 0 {
			return &NegativeLengthError{Length: int64(n), Pos: d.r.pos}
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		return d.pushLegacyString(b)

	case opShortBinstring:
		b, err := d.r.readU8Prefixed()
		if err != nil {
			return err
		}
		return d.pushLegacyString(b)

	// unicode

	case opUnicode:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		s, _ := decodeRawUnicodeEscape(string(line))
		d.push(s)
		return nil

	case opShortBinunicode:
		b, err := d.r.readU8Prefixed()
		if err != nil {
			return err
		}
		return d.pushUTF8(b)

	case opBinunicode:
		n, err := d.r.readU32LE()
		if err != nil {
			return err
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		return d.pushUTF8(b)

	case opBinunicode8:
		n, err := d.r.readU64LE()
		if err != nil {
			return err
		}
		b, err := d.r.readExact(int64(n))
		if err != nil {
			return err
		}
		return d.pushUTF8(b)

	// tuples

	case opEmptyTuple:
		d.push(Tuple{})
		return nil

	case opTuple1:
		a, err := d.pop(op)
		if err != nil {
			return err
		}
		d.push(Tuple{a})
		return nil

	case opTuple2:
		b, err := d.pop(op)
		if err != nil {
			return err
		}
		a, err := d.pop(op)
		if err != nil {
			return err
		}
		d.push(Tuple{a, b})
		return nil

	case opTuple3:
		c, err := d.pop(op)
		if err != nil {
			return err
		}
		b, err := d.pop(op)
		if err != nil {
			return err
		}
		a, err := d.pop(op)
		if err != nil {
			return err
		}
		d.push(Tuple{a, b, c})
		return nil

	case opTuple:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		d.push(Tuple(items))
		return nil

	// lists

	case opEmptyList:
		d.push(List{})
		return nil

	case opList:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		d.push(List(items))
		return nil

	case opAppend:
		v, err := d.pop(op)
		if err != nil {
			return err
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		lst, err := d.getList(idx, op)
		if err != nil {
			return err
		}
		d.setSlot(idx, append(lst, v))
		return nil

	case opAppends:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		lst, err := d.getList(idx, op)
		if err != nil {
			return err
		}
		d.setSlot(idx, append(lst, items...))
		return nil

	// dicts

	case opEmptyDict:
		d.push(newDictMemo(d.memo))
		return nil

	case opDict:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		if len(items)%2 != 0 {
			return &InvalidValueError{Msg: "odd number of DICT items", Pos: d.r.pos}
		}
		dd := newDictMemo(d.memo)
		for i := 0; i < len(items); i += 2 {
			key, val := items[i], items[i+1]
			if err := d.withHashGuard(func() { dd.Set(key, val) }); err != nil {
				return err
			}
		}
		d.push(dd)
		return nil

	case opSetitem:
		v, err := d.pop(op)
		if err != nil {
			return err
		}
		k, err := d.pop(op)
		if err != nil {
			return err
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		dd, err := d.getDict(idx, op)
		if err != nil {
			return err
		}
		return d.withHashGuard(func() { dd.Set(k, v) })

	case opSetitems:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		if len(items)%2 != 0 {
			return &InvalidValueError{Msg: "odd number of SETITEMS items", Pos: d.r.pos}
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		dd, err := d.getDict(idx, op)
		if err != nil {
			return err
		}
		for i := 0; i < len(items); i += 2 {
			key, val := items[i], items[i+1]
			if err := d.withHashGuard(func() { dd.Set(key, val) }); err != nil {
				return err
			}
		}
		return nil

	// sets

	case opEmptySet:
		d.push(newSetMemo(d.memo))
		return nil

	case opFrozenset:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		fs := newFrozenSetMemo(d.memo)
		for _, it := range items {
			item := it
			if err := d.withHashGuard(func() { fs.Add(item) }); err != nil {
				return err
			}
		}
		d.push(fs)
		return nil

	case opAdditems:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		v := d.resolveSlot(idx)
		switch s := v.(type) {
		case Set:
			for _, it := range items {
				item := it
				if err := d.withHashGuard(func() { s.Add(item) }); err != nil {
					return err
				}
			}
			return nil
		case FrozenSet:
			for _, it := range items {
				item := it
				if err := d.withHashGuard(func() { s.Add(item) }); err != nil {
					return err
				}
			}
			return nil
		default:
			return &InvalidStackTopError{Expected: "set", Got: v, Pos: d.r.pos}
		}

	// globals / reductions

	case opGlobal:
		mod, err := d.r.readLine()
		if err != nil {
			return err
		}
		name, err := d.r.readLine()
		if err != nil {
			return err
		}
		class, kind := classifyGlobal(Class{Module: string(mod), Name: string(name)}, d.cfg.FixImports)
		d.push(Global{Kind: kind, Class: class})
		return nil

	case opStackGlobal:
		nameVal, err := d.pop(op)
		if err != nil {
			return err
		}
		modVal, err := d.pop(op)
		if err != nil {
			return err
		}
		name, nerr := AsString(deref(d.memo, nameVal))
		mod, merr := AsString(deref(d.memo, modVal))
		if nerr != nil || merr != nil {
			return &InvalidStackTopError{Expected: "string", Got: nameVal, Pos: d.r.pos}
		}
		class, kind := classifyGlobal(Class{Module: mod, Name: name}, d.cfg.FixImports)
		d.push(Global{Kind: kind, Class: class})
		return nil

	case opReduce:
		return d.doReduce(op)

	case opNewobj:
		return d.doNewobj(op, false)

	case opNewobjEx:
		return d.doNewobj(op, true)

	case opBuild:
		// Pop the state, pop the placeholder the state belongs to, and
		// push the state in its place - whatever __setstate__ would have
		// received becomes the result outright. This deliberately drops
		// the placeholder's class identity (OpaqueObject.Class/Args),
		// same as spec.md's BUILD: the only way to recover identity is
		// for the caller to have inspected the Global/OpaqueObject before
		// BUILD consumed it.
		state, err := d.pop(op)
		if err != nil {
			return err
		}
		idx := len(d.stack) - 1
		if idx < 0 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		d.setSlot(idx, state)
		return nil

	case opInst:
		mod, err := d.r.readLine()
		if err != nil {
			return err
		}
		name, err := d.r.readLine()
		if err != nil {
			return err
		}
		args, err := d.popMark(op)
		if err != nil {
			return err
		}
		return d.applyClass(Class{Module: string(mod), Name: string(name)}, Tuple(args))

	case opObj:
		items, err := d.popMark(op)
		if err != nil {
			return err
		}
		if len(items) < 1 {
			return &StackUnderflowError{Op: op, Pos: d.r.pos}
		}
		g, ok := deref(d.memo, items[0]).(Global)
		if !ok {
			return &InvalidStackTopError{Expected: "global", Got: items[0], Pos: d.r.pos}
		}
		return d.applyGlobalOrOpaque(g, Tuple(items[1:]), nil)

	// persistent ids

	case opPersid:
		line, err := d.r.readLine()
		if err != nil {
			return err
		}
		d.push(BinPersId{Pid: Bytes(append([]byte(nil), line...))})
		return nil

	case opBinpersid:
		v, err := d.pop(op)
		if err != nil {
			return err
		}
		d.push(BinPersId{Pid: v})
		return nil

	// out-of-band buffers

	case opNextBuffer:
		if d.cfg.Buffers == nil {
			return &UnsupportedOpcodeError{Op: op, Pos: d.r.pos}
		}
		b, ok := d.cfg.Buffers.NextBuffer()
		if !ok {
			return &InvalidValueError{Msg: "no more out-of-band buffers", Pos: d.r.pos}
		}
		d.push(b)
		return nil

	case opReadonlyBuffer:
		if d.cfg.Buffers == nil {
			return &UnsupportedOpcodeError{Op: op, Pos: d.r.pos}
		}
		_, err := d.top(op) // read-only views aren't modeled separately; left as-is
		return err

	// extension registry

	case opExt1:
		b, err := d.r.readByte()
		if err != nil {
			return err
		}
		return d.pushExtension(int(b))

	case opExt2:
		v, err := d.r.readU16LE()
		if err != nil {
			return err
		}
		return d.pushExtension(int(v))

	case opExt4:
		v, err := d.r.readI32LE()
		if err != nil {
			return err
		}
		return d.pushExtension(int(v))

	default:
		return &UnsupportedOpcodeError{Op: op, Pos: d.r.pos}
	}
}

func (d *Decoder) pushExtension(code int) error {
	class, ok := d.cfg.Extensions.Lookup(code)
	if !ok {
		return &UnsupportedOpcodeError{Op: opExt1, Pos: d.r.pos}
	}
	normClass, kind := classifyGlobal(class, d.cfg.FixImports)
	d.push(Global{Kind: kind, Class: normClass})
	return nil
}

func (d *Decoder) pushLegacyString(raw []byte) error {
	if !d.cfg.DecodeStrings || d.cfg.Encoding == "bytes" {
		d.push(Bytes(raw))
		return nil
	}
	if d.cfg.UnicodeErrors == "replace" {
		d.push(decodeWithEncodingReplace(raw, d.cfg.encoding()))
		return nil
	}
	s, err := decodeWithEncoding(raw, d.cfg.encoding())
	if err != nil {
		return &InvalidValueError{Msg: err.Error(), Pos: d.r.pos}
	}
	d.push(s)
	return nil
}

func (d *Decoder) pushUTF8(b []byte) error {
	if !utf8.Valid(b) {
		return &StringNotUTF8Error{Pos: d.r.pos}
	}
	d.push(string(b))
	return nil
}

func (d *Decoder) doReduce(op byte) error {
	argsVal, err := d.pop(op)
	if err != nil {
		return err
	}
	calleeVal, err := d.pop(op)
	if err != nil {
		return err
	}
	g, ok := deref(d.memo, calleeVal).(Global)
	if !ok {
		return &InvalidStackTopError{Expected: "global", Got: calleeVal, Pos: d.r.pos}
	}
	argsTuple, ok := deref(d.memo, argsVal).(Tuple)
	if !ok {
		return &InvalidStackTopError{Expected: "tuple", Got: argsVal, Pos: d.r.pos}
	}
	return d.applyGlobalOrOpaque(g, argsTuple, nil)
}

func (d *Decoder) doNewobj(op byte, extended bool) error {
	var kwargsVal any
	if extended {
		v, err := d.pop(op)
		if err != nil {
			return err
		}
		kwargsVal = v
	}
	argsVal, err := d.pop(op)
	if err != nil {
		return err
	}
	clsVal, err := d.pop(op)
	if err != nil {
		return err
	}
	g, ok := deref(d.memo, clsVal).(Global)
	if !ok {
		return &InvalidStackTopError{Expected: "global", Got: clsVal, Pos: d.r.pos}
	}
	argsTuple, ok := deref(d.memo, argsVal).(Tuple)
	if !ok {
		return &InvalidStackTopError{Expected: "tuple", Got: argsVal, Pos: d.r.pos}
	}
	var kwargs *Dict
	if extended {
		kd, ok := deref(d.memo, kwargsVal).(Dict)
		if !ok {
			return &InvalidStackTopError{Expected: "dict", Got: kwargsVal, Pos: d.r.pos}
		}
		kwargs = &kd
	}
	return d.applyGlobalOrOpaque(g, argsTuple, kwargs)
}

func (d *Decoder) applyClass(class Class, args Tuple) error {
	normClass, kind := classifyGlobal(class, d.cfg.FixImports)
	return d.applyGlobalOrOpaque(Global{Kind: kind, Class: normClass}, args, nil)
}

// applyGlobalOrOpaque is the shared tail of REDUCE/NEWOBJ/NEWOBJ_EX/INST/
// OBJ: try the closed emulation table in globals.go, and otherwise degrade
// to an OpaqueObject (or, in strict mode, fail outright).
func (d *Decoder) applyGlobalOrOpaque(g Global, args Tuple, kwargs *Dict) error {
	var val any
	var handled bool
	var err error
	if gerr := d.withHashGuard(func() { val, handled, err = reduceGlobal(d.memo, g.Kind, args, d.r.pos) }); gerr != nil {
		return gerr
	}
	if err != nil {
		return err
	}
	if handled {
		d.push(val)
		return nil
	}
	if d.cfg.Strict {
		return &UnresolvedGlobalError{Class: g.Class, Pos: d.r.pos}
	}
	d.unsupported = append(d.unsupported, UnsupportedGlobalError{Class: g.Class, Pos: d.r.pos})
	obj := OpaqueObject{Class: g.Class, Args: args}
	if kwargs != nil {
		obj.Kwargs = *kwargs
	}
	d.push(obj)
	return nil
}

// parseIntLiteral parses the decimal text argument of the protocol-0 INT
// opcode, which doubles as Python's bool encoding ("01"/"00").
func parseIntLiteral(s string) (any, error) {
	switch s {
	case litTrue:
		return true, nil
	case litFalse:
		return false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errMalformedEscape
	}
	return demoteBigInt(n), nil
}

func demoteBigInt(n *big.Int) any {
	if i, ok := demoteInt(n); ok {
		return i
	}
	return n
}
