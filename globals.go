package pickle

import (
	"fmt"
	"math/big"
)

// Global emulation: best-effort reduction of a handful of builtin
// (module, name) pairs that protocol-2+ pickles commonly spell as a
// GLOBAL/STACK_GLOBAL followed by REDUCE or NEWOBJ, instead of one of the
// opcodes this decoder can execute directly (EMPTY_SET, FROZENSET, ...).
//
// This is deliberately small and closed: nothing here ever calls into the
// referenced module, so there is no way for a pickle to make this decoder
// run arbitrary code. Anything not in the table below becomes an opaque
// Global(GlobalOther) sentinel (or, in strict mode, an
// UnresolvedGlobalError) rather than being guessed at.

// legacyImportNames maps a handful of Python-2-only module spellings to
// their Python 3 equivalents, mirroring the rewriting CPython's own
// Unpickler does when fix_imports is enabled (the default). Only the
// names this decoder actually classifies below need an entry; anything
// else passes through unrewritten.
var legacyImportNames = map[Class]Class{
	{Module: "__builtin__", Name: "set"}:       {Module: "builtins", Name: "set"},
	{Module: "__builtin__", Name: "frozenset"}: {Module: "builtins", Name: "frozenset"},
	{Module: "__builtin__", Name: "bytearray"}: {Module: "builtins", Name: "bytearray"},
	{Module: "__builtin__", Name: "list"}:      {Module: "builtins", Name: "list"},
	{Module: "__builtin__", Name: "int"}:       {Module: "builtins", Name: "int"},
}

// normalizeClass applies legacyImportNames when fixImports is set, the way
// classifyGlobal expects its input pre-normalized.
func normalizeClass(c Class, fixImports bool) Class {
	if !fixImports {
		return c
	}
	if n, ok := legacyImportNames[c]; ok {
		return n
	}
	return c
}

// globalTable is the fixed classification CPython's builtins would need
// REDUCE/NEWOBJ support for, in order to round-trip a set, frozenset,
// bytearray, list, int, or codecs.encode(...) call. Keyed post-
// normalization, so both __builtin__ and builtins spellings resolve once
// fixImports has run.
var globalTable = map[Class]GlobalKind{
	{Module: "builtins", Name: "set"}:       GlobalSet,
	{Module: "builtins", Name: "frozenset"}: GlobalFrozenset,
	{Module: "builtins", Name: "bytearray"}: GlobalBytearray,
	{Module: "builtins", Name: "list"}:      GlobalList,
	{Module: "builtins", Name: "int"}:       GlobalInt,
	{Module: "_codecs", Name: "encode"}:     GlobalEncode,
}

// classifyGlobal resolves class to a GlobalKind. fixImports controls
// whether legacy Python-2 module spellings are rewritten first.
func classifyGlobal(class Class, fixImports bool) (Class, GlobalKind) {
	class = normalizeClass(class, fixImports)
	if k, ok := globalTable[class]; ok {
		return class, k
	}
	return class, GlobalOther
}

// reduceGlobal applies a recognized Global to its REDUCE argument tuple
// (or, for NEWOBJ/NEWOBJ_EX, its cls.__new__ argument tuple - CPython
// treats the two identically for the handful of types this decoder
// emulates). mm is the in-progress decode's memo table, needed because
// set/frozenset construction must be able to peek through a still-memoRef
// element.
//
// ok is false when kind is GlobalOther: callers decide for themselves
// whether that is an error (strict mode) or an opaque placeholder.
func reduceGlobal(mm *memo, kind GlobalKind, args Tuple, pos int64) (value any, ok bool, err error) {
	arg0 := func() (any, error) {
		if len(args) != 1 {
			return nil, &InvalidValueError{Msg: fmt.Sprintf("expected 1 argument, got %d", len(args)), Pos: pos}
		}
		return args[0], nil
	}

	switch kind {
	case GlobalSet:
		a, err := arg0()
		if err != nil {
			return nil, true, err
		}
		s := newSetMemo(mm)
		items, err := asIterable(mm, a, pos)
		if err != nil {
			return nil, true, err
		}
		for _, it := range items {
			s.Add(it)
		}
		return s, true, nil

	case GlobalFrozenset:
		a, err := arg0()
		if err != nil {
			return nil, true, err
		}
		s := newFrozenSetMemo(mm)
		items, err := asIterable(mm, a, pos)
		if err != nil {
			return nil, true, err
		}
		for _, it := range items {
			s.Add(it)
		}
		return s, true, nil

	case GlobalBytearray:
		if len(args) == 0 {
			return Bytes(nil), true, nil
		}
		a, err := arg0()
		if err != nil {
			return nil, true, err
		}
		if s, isStr := deref(mm, a).(string); isStr {
			b := make([]byte, 0, len(s))
			for _, r := range s {
				b = append(b, byte(r))
			}
			return Bytes(b), true, nil
		}
		b, convErr := AsBytes(deref(mm, a))
		if convErr != nil {
			return nil, true, &InvalidValueError{Msg: "bytearray() argument must be bytes-like", Pos: pos}
		}
		return Bytes(b), true, nil

	case GlobalList:
		a, err := arg0()
		if err != nil {
			return nil, true, err
		}
		items, err := asIterable(mm, a, pos)
		if err != nil {
			return nil, true, err
		}
		return List(items), true, nil

	case GlobalInt:
		if len(args) == 0 {
			return int64(0), true, nil
		}
		a, err := arg0()
		if err != nil {
			return nil, true, err
		}
		switch v := deref(mm, a).(type) {
		case int64, *big.Int:
			return v, true, nil
		case string:
			n, ok := new(big.Int).SetString(v, 10)
			if !ok {
				return nil, true, &InvalidLiteralError{Raw: v, Pos: pos}
			}
			if i, fits := demoteInt(n); fits {
				return i, true, nil
			}
			return n, true, nil
		default:
			return nil, true, &InvalidStackTopError{Expected: "int-like", Got: v, Pos: pos}
		}

	case GlobalEncode:
		if len(args) < 1 || len(args) > 2 {
			return nil, true, &InvalidValueError{Msg: fmt.Sprintf("_codecs.encode expected 1 or 2 arguments, got %d", len(args)), Pos: pos}
		}
		s, convErr := AsString(deref(mm, args[0]))
		if convErr != nil {
			return nil, true, &InvalidValueError{Msg: "_codecs.encode() argument must be a string", Pos: pos}
		}
		enc := "utf-8"
		if len(args) == 2 {
			e, convErr := AsString(deref(mm, args[1]))
			if convErr != nil {
				return nil, true, &InvalidValueError{Msg: "_codecs.encode() encoding must be a string", Pos: pos}
			}
			enc = e
		}
		b, encErr := encodeString(s, enc)
		if encErr != nil {
			return nil, true, &InvalidValueError{Msg: encErr.Error(), Pos: pos}
		}
		return Bytes(b), true, nil

	default:
		return nil, false, nil
	}
}

// asIterable coerces a REDUCE argument meant to be iterated (a List or
// Tuple) into a plain slice, peeking through any top-level memoRef first.
func asIterable(mm *memo, v any, pos int64) ([]any, error) {
	switch x := deref(mm, v).(type) {
	case List:
		return []any(x), nil
	case Tuple:
		return []any(x), nil
	default:
		return nil, &InvalidStackTopError{Expected: "iterable", Got: x, Pos: pos}
	}
}
