package pickle

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"math/big"
	"testing"
)

// hexInput decodes a hex literal into a *bytes.Reader, panicking on a
// malformed literal - these are all fixed test data, so a decode failure
// here means the test itself is wrong, not the code under test.
func hexInput(h string) *bytes.Reader {
	data, err := hex.DecodeString(h)
	if err != nil {
		panic(err)
	}
	return bytes.NewReader(data)
}

func decodeHex(t *testing.T, h string) (any, error) {
	t.Helper()
	return NewDecoder(hexInput(h)).Decode()
}

// The vectors below are CPython's own pickle.dumps output rather than
// hand-assembled, so they are byte for byte what a real Python process
// would produce.
func TestDecodeLiterals(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want any
	}{
		{"none", "80024e2e", None{}},
		{"true", "8002882e", true},
		{"false", "8002892e", false},
		{"binint1", "80024b052e", int64(5)},
		{"binint_negative", "80024ac7cfffff2e", int64(-12345)},
		{"binfloat", "800247400921f9f01b866e2e", 3.14159},
		{"binunicode", "80025802000000686971002e", "hi"},
		{"short_binbytes", "80034302686971002e", Bytes("hi")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHex(t, tt.hex)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !deepEqualValue(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeBigInt(t *testing.T) {
	got, err := decodeHex(t, "80028a0d000000000000000000000000102e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := new(big.Int).Lsh(big.NewInt(1), 100)
	b, ok := got.(*big.Int)
	if !ok {
		t.Fatalf("Decode() = %#v (%T), want *big.Int", got, got)
	}
	if b.Cmp(want) != 0 {
		t.Errorf("Decode() = %v, want %v", b, want)
	}
}

func TestDecodeList(t *testing.T) {
	got, err := decodeHex(t, "80025d7100284b014b024b03652e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := List{int64(1), int64(2), int64(3)}
	if !deepEqualValue(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeTuple(t *testing.T) {
	got, err := decodeHex(t, "80024b0158010000006171008671012e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Tuple{int64(1), "a"}
	if !deepEqualValue(got, want) {
		t.Errorf("Decode() = %#v, want %#v", got, want)
	}
}

func TestDecodeDict(t *testing.T) {
	got, err := decodeHex(t, "80027d71002858010000006171014b0158010000006271024b02752e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dd, ok := got.(Dict)
	if !ok {
		t.Fatalf("Decode() = %#v (%T), want Dict", got, got)
	}
	if dd.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", dd.Len())
	}
	if v, ok := dd.Get_("a"); !ok || v != int64(1) {
		t.Errorf(`dd.Get("a") = %v, %v, want 1, true`, v, ok)
	}
	if v, ok := dd.Get_("b"); !ok || v != int64(2) {
		t.Errorf(`dd.Get("b") = %v, %v, want 2, true`, v, ok)
	}
}

func TestDecodeSet(t *testing.T) {
	got, err := decodeHex(t, "8004950b000000000000008f94284b014b024b03902e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	s, ok := got.(Set)
	if !ok {
		t.Fatalf("Decode() = %#v (%T), want Set", got, got)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for _, m := range []int64{1, 2, 3} {
		if !s.Has(m) {
			t.Errorf("set missing member %v", m)
		}
	}
}

func TestDecodeFrozenSet(t *testing.T) {
	got, err := decodeHex(t, "8004950800000000000000284b014b0291942e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	fs, ok := got.(FrozenSet)
	if !ok {
		t.Fatalf("Decode() = %#v (%T), want FrozenSet", got, got)
	}
	if fs.Len() != 2 || !fs.Has(int64(1)) || !fs.Has(int64(2)) {
		t.Errorf("unexpected frozenset contents: %v", fs)
	}
}

func TestDecodeNested(t *testing.T) {
	got, err := decodeHex(t, "80025d7100284b015d7101284b024b03657d710258010000007871034b044b0586710473652e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	lst, ok := got.(List)
	if !ok || len(lst) != 3 {
		t.Fatalf("Decode() = %#v, want a 3-element List", got)
	}
	if !deepEqualValue(lst[0], int64(1)) {
		t.Errorf("lst[0] = %#v, want 1", lst[0])
	}
	if !deepEqualValue(lst[1], List{int64(2), int64(3)}) {
		t.Errorf("lst[1] = %#v, want [2 3]", lst[1])
	}
	dd, ok := lst[2].(Dict)
	if !ok {
		t.Fatalf("lst[2] = %#v (%T), want Dict", lst[2], lst[2])
	}
	v, ok := dd.Get_("x")
	if !ok || !deepEqualValue(v, Tuple{int64(4), int64(5)}) {
		t.Errorf(`dd.Get("x") = %#v, %v, want (4, 5), true`, v, ok)
	}
}

// TestDecodeSharedMemoOwnership is spec.md §8 scenario 4: a memoized tuple
// referenced twice (non-cyclically) must decode to two tuples that compare
// equal but are independently owned, not two aliases of the same backing
// array - mutating one slice must never be observable through the other.
func TestDecodeSharedMemoOwnership(t *testing.T) {
	got, err := decodeHex(t, "80024b014b028671006800862e")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	outer, ok := got.(Tuple)
	if !ok || len(outer) != 2 {
		t.Fatalf("Decode() = %#v, want a 2-element Tuple", got)
	}
	first, ok1 := outer[0].(Tuple)
	second, ok2 := outer[1].(Tuple)
	if !ok1 || !ok2 {
		t.Fatalf("Decode() elements = %#v, %#v, want two Tuples", outer[0], outer[1])
	}
	if !deepEqualValue(first, Tuple{int64(1), int64(2)}) || !deepEqualValue(second, Tuple{int64(1), int64(2)}) {
		t.Fatalf("Decode() = %#v, want (1, 2) twice", outer)
	}
	first[0] = int64(99)
	if second[0] != int64(1) {
		t.Errorf("mutating the first tuple changed the second: second[0] = %v, want unchanged 1", second[0])
	}
}

// TestDecodeSelfReferentialList is the MEMOIZE/BINGET construction a
// real pickle.dumps([1, 2, <itself>]) produces: decoding it must fail
// with RecursiveError rather than build a Go value that contains itself.
func TestDecodeSelfReferentialList(t *testing.T) {
	_, err := decodeHex(t, "8004950b000000000000005d94284b014b026800652e")
	var rec *RecursiveError
	if !errors.As(err, &rec) {
		t.Fatalf("Decode() error = %v, want *RecursiveError", err)
	}
	if rec.ID != 0 {
		t.Errorf("RecursiveError.ID = %d, want 0", rec.ID)
	}
}

func TestDecodeBinfloatBitPattern(t *testing.T) {
	// A NaN and -0.0 must round-trip with their exact bit pattern, not
	// just compare == to some canonical NaN/zero.
	for _, bits := range []uint64{
		0x7ff8000000000000, // a quiet NaN
		0x8000000000000000, // -0.0
	} {
		var buf bytes.Buffer
		buf.WriteByte(opProto)
		buf.WriteByte(2)
		buf.WriteByte(opBinfloat)
		for i := 7; i >= 0; i-- {
			buf.WriteByte(byte(bits >> (8 * i)))
		}
		buf.WriteByte(opStop)

		got, err := NewDecoder(&buf).Decode()
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		f, ok := got.(float64)
		if !ok {
			t.Fatalf("Decode() = %#v (%T), want float64", got, got)
		}
		if math.Float64bits(f) != bits {
			t.Errorf("Decode() bits = %#x, want %#x", math.Float64bits(f), bits)
		}
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data, _ := hex.DecodeString("80024e2e00")
	_, err := NewDecoder(bytes.NewReader(data)).Decode()
	var te *TrailingBytesError
	if !errors.As(err, &te) {
		t.Fatalf("Decode() error = %v, want *TrailingBytesError", err)
	}
}

func TestDecodeStackUnderflow(t *testing.T) {
	// TUPLE2 with only one value ever pushed.
	data, _ := hex.DecodeString("80024b018602e.")
	_ = data
	data, _ = hex.DecodeString("80024b01862e")
	_, err := NewDecoder(bytes.NewReader(data)).Decode()
	var su *StackUnderflowError
	if !errors.As(err, &su) {
		t.Fatalf("Decode() error = %v, want *StackUnderflowError", err)
	}
}

// TestEOFMidPayload checks that truncating a well-formed pickle anywhere
// before its final byte is reported as EOFWhileParsingError, never a
// panic and never a short read silently treated as success.
func TestEOFMidPayload(t *testing.T) {
	full, err := hex.DecodeString("80025d7100284b014b024b03652e")
	if err != nil {
		t.Fatal(err)
	}
	for n := 1; n < len(full); n++ {
		_, err := NewDecoder(bytes.NewReader(full[:n])).Decode()
		if err == nil {
			t.Fatalf("truncated to %d bytes: Decode() succeeded, want error", n)
		}
		var eof *EOFWhileParsingError
		if !errors.As(err, &eof) {
			t.Errorf("truncated to %d bytes: error = %v (%T), want EOFWhileParsingError", n, err, err)
		}
	}
}

func TestDecodeUnsupportedOpcode(t *testing.T) {
	data, _ := hex.DecodeString("ff")
	_, err := NewDecoder(bytes.NewReader(data)).Decode()
	var uo *UnsupportedOpcodeError
	if !errors.As(err, &uo) {
		t.Fatalf("Decode() error = %v, want *UnsupportedOpcodeError", err)
	}
}

// TestDecodeBuildReplacesPlaceholder exercises BUILD against an
// OpaqueObject placeholder from an unrecognized INST class: BUILD must
// drop the placeholder (and its class identity) entirely and leave just
// the state behind, per spec.md §4.3/§9.
func TestDecodeBuildReplacesPlaceholder(t *testing.T) {
	// MARK; INST "m"/"c" (no args, unrecognized -> OpaqueObject in
	// non-strict mode); EMPTY_DICT (the state); BUILD; STOP.
	dec := NewDecoderWithConfig(hexInput("28696d0a630a7d622e"), DecoderConfig{Strict: false})
	got, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dd, ok := got.(Dict)
	if !ok {
		t.Fatalf("Decode() = %#v (%T), want bare Dict, not OpaqueObject", got, got)
	}
	if dd.Len() != 0 {
		t.Errorf("Decode() Dict.Len() = %d, want 0", dd.Len())
	}
	unsup := dec.UnsupportedGlobals()
	if len(unsup) != 1 || unsup[0].Class != (Class{Module: "m", Name: "c"}) {
		t.Errorf("UnsupportedGlobals() = %#v, want one entry for m.c", unsup)
	}
}

func TestDecodeMissingMemo(t *testing.T) {
	// BINGET 5 with nothing ever memoized.
	data, _ := hex.DecodeString("8002680500") // h 05, then junk - should fail before reaching it
	_, err := NewDecoder(bytes.NewReader(data)).Decode()
	var mm *MissingMemoError
	if !errors.As(err, &mm) {
		t.Fatalf("Decode() error = %v, want *MissingMemoError", err)
	}
}

// deepEqualValue compares two decoded values, recursing into List/Tuple
// elementwise. Dict/Set/FrozenSet aren't compared this way in these tests
// (their member order is unspecified) - callers inspect those directly
// with Get_/Has instead.
func deepEqualValue(a, b any) bool {
	switch x := a.(type) {
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !deepEqualValue(x[i], y[i]) {
				return false
			}
		}
		return true
	case Tuple:
		y, ok := b.(Tuple)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !deepEqualValue(x[i], y[i]) {
				return false
			}
		}
		return true
	case Bytes:
		y, ok := b.(Bytes)
		return ok && string(x) == string(y)
	default:
		return a == b
	}
}
