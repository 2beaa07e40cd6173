package pickle

import (
	"math"
	"math/big"
	"testing"
)

// TestCrossTypeEquality mirrors the teacher's dict_test.go: a dict keyed by
// one numeric representation must be found by a different one as long as
// they compare equal, the way Python's own int/float/bool all share a hash
// bucket for 1 == 1.0 == True.
func TestCrossTypeEquality(t *testing.T) {
	d := NewDict()
	d.Set(int64(1), "int one")

	if v, ok := d.Get_(true); !ok || v != "int one" {
		t.Errorf("Get(true) = %v, %v, want %q, true", v, ok, "int one")
	}
	if v, ok := d.Get_(1.0); !ok || v != "int one" {
		t.Errorf("Get(1.0) = %v, %v, want %q, true", v, ok, "int one")
	}
	if v, ok := d.Get_(big.NewInt(1)); !ok || v != "int one" {
		t.Errorf("Get(big.NewInt(1)) = %v, %v, want %q, true", v, ok, "int one")
	}

	// Overwriting through a different representation replaces the entry,
	// it does not add a second one.
	d.Set(true, "bool true")
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after overwrite via a different representation", d.Len())
	}
	if v, _ := d.Get_(int64(1)); v != "bool true" {
		t.Errorf("Get(int64(1)) = %v, want %q", v, "bool true")
	}
}

func TestBytesStringDistinct(t *testing.T) {
	d := NewDict()
	d.Set(Bytes("a"), "bytes")
	d.Set("a", "string")

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (Bytes and string must not collide)", d.Len())
	}
	if v, _ := d.Get_(Bytes("a")); v != "bytes" {
		t.Errorf("Get(Bytes(\"a\")) = %v, want %q", v, "bytes")
	}
	if v, _ := d.Get_("a"); v != "string" {
		t.Errorf(`Get("a") = %v, want %q`, v, "string")
	}
}

func TestTupleAsKey(t *testing.T) {
	d := NewDict()
	d.Set(Tuple{int64(1), "x"}, "first")

	if v, ok := d.Get_(Tuple{int64(1), "x"}); !ok || v != "first" {
		t.Errorf("Get(equal tuple) = %v, %v, want %q, true", v, ok, "first")
	}
	if _, ok := d.Get_(Tuple{int64(1), "y"}); ok {
		t.Errorf("Get(different tuple) unexpectedly found a match")
	}
	// A tuple containing a float representation of an int still matches,
	// since tuple equality recurses through the same cross-type rule.
	if v, ok := d.Get_(Tuple{1.0, "x"}); !ok || v != "first" {
		t.Errorf("Get(Tuple{1.0, \"x\"}) = %v, %v, want %q, true", v, ok, "first")
	}
}

func TestNaNHashConsistentWithEquality(t *testing.T) {
	// Invariant 4: F64 equality and hashing use raw bit patterns, so two
	// NaN keys with the identical bit pattern must collide into one entry
	// (even though Go's == always says nan != nan), while two NaNs with
	// different bit patterns must not.
	nan1 := math.Float64frombits(0x7ff8000000000000)
	nan2 := math.Float64frombits(0x7ff8000000000000)
	nan3 := math.Float64frombits(0x7ff8000000000001)

	d := NewDict()
	d.Set(nan1, "first nan")
	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	if v, ok := d.Get_(nan2); !ok || v != "first nan" {
		t.Errorf("Get(identical-bit-pattern NaN) = %v, %v, want %q, true", v, ok, "first nan")
	}

	d.Set(nan3, "second nan")
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (a different-bit-pattern NaN is a distinct key)", d.Len())
	}
	if v, ok := d.Get_(nan3); !ok || v != "second nan" {
		t.Errorf("Get(nan3) = %v, %v, want %q, true", v, ok, "second nan")
	}
	if v, ok := d.Get_(nan1); !ok || v != "first nan" {
		t.Errorf("Get(nan1) after inserting nan3 = %v, %v, want %q, true", v, ok, "first nan")
	}
}

func TestSetMembership(t *testing.T) {
	s := NewSet()
	s.Add(int64(1))
	s.Add(int64(2))
	s.Add(true) // collides with int64(1)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (true collapses into int64(1))", s.Len())
	}
	if !s.Has(int64(1)) || !s.Has(1.0) {
		t.Error("set should contain a member equal to 1 under any numeric representation")
	}
	if s.Has(int64(3)) {
		t.Error("set unexpectedly contains 3")
	}
}

func TestFrozenSetMembership(t *testing.T) {
	fs := NewFrozenSet()
	fs.Add("a")
	fs.Add("b")
	if fs.Len() != 2 || !fs.Has("a") || !fs.Has("b") {
		t.Errorf("unexpected frozenset contents: %v", fs)
	}
}

// TestUnhashableKeyPanics documents the contract withHashGuard/
// guardUnhashable are built around: Dict.Set/Set.Add panic, rather than
// silently accepting, a List/Dict/Set/FrozenSet key - callers that build a
// Dict/Set directly (bypassing the decoder or post-processor) are expected
// to recover from this themselves, same as this decoder's own two guards
// do.
func TestUnhashableKeyPanics(t *testing.T) {
	tests := []struct {
		name string
		key  any
	}{
		{"list", List{int64(1)}},
		{"dict", NewDict()},
		{"set", NewSet()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Set(%s key) did not panic", tt.name)
				}
			}()
			d := NewDict()
			d.Set(tt.key, "value")
		})
	}
}
