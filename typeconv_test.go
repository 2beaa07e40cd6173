package pickle

import (
	"math/big"
	"testing"
)

func TestAsInt64(t *testing.T) {
	ok := []struct {
		in   any
		want int64
	}{
		{true, 1},
		{false, 0},
		{int64(42), 42},
		{big.NewInt(100), 100},
	}
	for _, tt := range ok {
		got, err := AsInt64(tt.in)
		if err != nil {
			t.Errorf("AsInt64(%#v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AsInt64(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := AsInt64("not a number"); err == nil {
		t.Error("AsInt64(string) succeeded, want error")
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	if _, err := AsInt64(huge); err == nil {
		t.Error("AsInt64(2**100) succeeded, want overflow error")
	}
}

func TestAsFloat64(t *testing.T) {
	ok := []struct {
		in   any
		want float64
	}{
		{3.5, 3.5},
		{true, 1},
		{false, 0},
		{int64(7), 7},
		{big.NewInt(9), 9},
	}
	for _, tt := range ok {
		got, err := AsFloat64(tt.in)
		if err != nil {
			t.Errorf("AsFloat64(%#v): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AsFloat64(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := AsFloat64("nope"); err == nil {
		t.Error("AsFloat64(string) succeeded, want error")
	}
}

func TestAsBytes(t *testing.T) {
	got, err := AsBytes(Bytes("hi"))
	if err != nil || string(got) != "hi" {
		t.Errorf("AsBytes(Bytes(\"hi\")) = %q, %v", got, err)
	}
	got, err = AsBytes("hi")
	if err != nil || string(got) != "hi" {
		t.Errorf("AsBytes(\"hi\") = %q, %v", got, err)
	}
	if _, err := AsBytes(int64(1)); err == nil {
		t.Error("AsBytes(int64) succeeded, want error")
	}
}

func TestAsString(t *testing.T) {
	got, err := AsString("hi")
	if err != nil || got != "hi" {
		t.Errorf(`AsString("hi") = %q, %v`, got, err)
	}
	got, err = AsString(Bytes("hi"))
	if err != nil || got != "hi" {
		t.Errorf("AsString(Bytes) = %q, %v", got, err)
	}
	if _, err := AsString(int64(1)); err == nil {
		t.Error("AsString(int64) succeeded, want error")
	}
}

func TestAsPersistentID(t *testing.T) {
	got, err := AsPersistentID(BinPersId{Pid: Bytes("42")})
	if err != nil {
		t.Fatalf("AsPersistentID: %v", err)
	}
	if b, ok := got.(Bytes); !ok || string(b) != "42" {
		t.Errorf("AsPersistentID() = %#v, want Bytes(\"42\")", got)
	}
	if _, err := AsPersistentID("not a pid"); err == nil {
		t.Error("AsPersistentID(string) succeeded, want error")
	}
}
