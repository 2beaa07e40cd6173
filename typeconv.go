package pickle

import (
	"fmt"
	"math/big"
)

// Convenience accessors for callers that know what shape they expect and
// would rather get an error than write out a type switch. Grounded on the
// teacher's typeconv.go (AsInt64/AsBytes/AsString), extended here for the
// larger Value vocabulary this decoder produces.

// AsInt64 returns v as an int64, accepting bool, int64 and any *big.Int
// that fits. It returns an error for anything else, or for a big.Int that
// overflows int64.
func AsInt64(v any) (int64, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int64:
		return x, nil
	case *big.Int:
		if n, ok := demoteInt(x); ok {
			return n, nil
		}
		return 0, fmt.Errorf("pickle: %v overflows int64", x)
	default:
		return 0, fmt.Errorf("pickle: %T is not an integer", v)
	}
}

// AsFloat64 returns v as a float64, accepting F64, bool, int64, and
// *big.Int (via the nearest representable float64).
func AsFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case int64:
		return float64(x), nil
	case *big.Int:
		f, _ := bigIntFloat64(x)
		return f, nil
	default:
		return 0, fmt.Errorf("pickle: %T is not a number", v)
	}
}

// AsBytes returns v's raw bytes, accepting Bytes and string (the latter
// via its UTF-8 representation).
func AsBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case Bytes:
		return []byte(x), nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("pickle: %T is not bytes", v)
	}
}

// AsString returns v as a string, accepting string and Bytes (the latter
// verbatim, with no UTF-8 validation - callers that need validation should
// check utf8.ValidString themselves).
func AsString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case Bytes:
		return string(x), nil
	default:
		return "", fmt.Errorf("pickle: %T is not a string", v)
	}
}

// AsPersistentID unwraps a BinPersId, returning its underlying id value.
func AsPersistentID(v any) (any, error) {
	p, ok := v.(BinPersId)
	if !ok {
		return nil, fmt.Errorf("pickle: %T is not a persistent id", v)
	}
	return p.Pid, nil
}
