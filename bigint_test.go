package pickle

import (
	"math/big"
	"testing"
)

func TestDecodeLong(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int64
	}{
		{"empty is zero", nil, 0},
		{"single positive byte", []byte{0x05}, 5},
		{"single negative byte", []byte{0xff}, -1},
		{"positive needing two bytes", []byte{0xff, 0x00}, 255},
		{"negative two bytes", []byte{0x00, 0xff}, -256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeLong(tt.data)
			if got.Cmp(big.NewInt(tt.want)) != 0 {
				t.Errorf("decodeLong(%x) = %v, want %d", tt.data, got, tt.want)
			}
		})
	}
}

func TestDecodeLongBig(t *testing.T) {
	// 2**100, little-endian two's complement, as CPython's pickle itself
	// would encode it for LONG1.
	data := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x10}
	got := decodeLong(data)
	want := new(big.Int).Lsh(big.NewInt(1), 100)
	if got.Cmp(want) != 0 {
		t.Errorf("decodeLong() = %v, want %v", got, want)
	}
}

func TestDemoteInt(t *testing.T) {
	if n, ok := demoteInt(big.NewInt(42)); !ok || n != 42 {
		t.Errorf("demoteInt(42) = %d, %v, want 42, true", n, ok)
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	if _, ok := demoteInt(huge); ok {
		t.Errorf("demoteInt(2**100) unexpectedly fit in int64")
	}
	maxI64 := big.NewInt(9223372036854775807)
	if n, ok := demoteInt(maxI64); !ok || n != 9223372036854775807 {
		t.Errorf("demoteInt(maxInt64) = %d, %v, want max int64, true", n, ok)
	}
	overMax := new(big.Int).Add(maxI64, big.NewInt(1))
	if _, ok := demoteInt(overMax); ok {
		t.Errorf("demoteInt(maxInt64+1) unexpectedly fit in int64")
	}
}
