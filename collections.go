package pickle

// Dict, Set and FrozenSet: Python's three hash-keyed containers.
//
// All three are built on github.com/aristanetworks/gomap, a generic open
// map that takes a custom (equal, hash) pair instead of requiring
// `comparable` keys. That is what lets Bytes ([]byte-backed), Tuple, and
// *big.Int act as keys at all, and it is what lets int64(1), float64(1.0)
// and a *big.Int holding 1 collide into a single entry the way a real
// Python dict would.
//
// A decode in progress may still have memoRef placeholders sitting where a
// key or set member will eventually be: GET doesn't know yet whether its
// target is hashable, only the post-processor's final walk does. So the
// equal/hash pair bound into a Dict/Set built *during* decoding is one that
// can transparently see through a memoRef via the decoder's memo table
// (without disturbing its refcount - that bookkeeping is the
// post-processor's job, see postprocess.go). Once decoding is done no
// memoRef values remain, so a Dict/Set built for general use (NewDict,
// NewSet, NewFrozenSet) is handed a nil memo and simply panics if it ever
// sees one, which would indicate an internal bug rather than a real input.

import (
	"fmt"
	"hash/maphash"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/aristanetworks/gomap"
)

// Dict represents a Python dict.
//
// Dict is a pointer-like type: its zero value is an empty, unusable-for-Set
// dictionary, just like a nil map.
type Dict struct {
	m *gomap.Map[any, any]
}

// NewDict returns a new, empty dictionary for general (post-decode) use.
func NewDict() Dict {
	return newDictMemo(nil)
}

func newDictMemo(mm *memo) Dict {
	return Dict{m: gomap.NewHint[any, any](0, equalFunc(mm), hashFunc(mm))}
}

// Get returns the value associated with a key equal to key, or nil if
// there is none.
func (d Dict) Get(key any) any {
	v, _ := d.Get_(key)
	return v
}

// Get_ is the comma-ok form of Get.
func (d Dict) Get_(key any) (value any, ok bool) {
	return d.m.Get(key)
}

// Set associates key with value, dropping any previous entry whose key
// compared equal.
func (d Dict) Set(key, value any) {
	d.m.Set(key, value)
}

// Del removes the entry whose key compares equal to key, if any.
func (d Dict) Del(key any) {
	d.m.Delete(key)
}

// Len returns the number of entries.
func (d Dict) Len() int {
	return d.m.Len()
}

// Iter returns an iterator over all entries, in unspecified order.
func (d Dict) Iter() func(yield func(key, value any) bool) {
	it := d.m.Iter()
	return func(yield func(key, value any) bool) {
		for it.Next() {
			if !yield(it.Key(), it.Elem()) {
				return
			}
		}
	}
}

// String renders the dictionary with keys sorted for determinism.
func (d Dict) String() string {
	type kv struct{ k, v string }
	pairs := make([]kv, 0, d.Len())
	d.Iter()(func(k, v any) bool {
		pairs = append(pairs, kv{fmt.Sprintf("%v", k), fmt.Sprintf("%v", v)})
		return true
	})
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })
	s := "{"
	for i, p := range pairs {
		if i > 0 {
			s += ", "
		}
		s += p.k + ": " + p.v
	}
	return s + "}"
}

// setlike is the shared implementation behind Set and FrozenSet: Python
// distinguishes them only by mutability, which this decoder does not
// enforce (both are "done growing" by the time REDUCE/EMPTY_SET/ADDITEMS
// hands them back).
type setlike struct {
	m *gomap.Map[any, struct{}]
}

func newSetlikeMemo(mm *memo) setlike {
	return setlike{m: gomap.NewHint[any, struct{}](0, equalFunc(mm), hashFunc(mm))}
}

func (s setlike) add(v any)      { s.m.Set(v, struct{}{}) }
func (s setlike) Len() int       { return s.m.Len() }
func (s setlike) Has(v any) bool { _, ok := s.m.Get(v); return ok }

func (s setlike) Iter() func(yield func(member any) bool) {
	it := s.m.Iter()
	return func(yield func(member any) bool) {
		for it.Next() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}

func (s setlike) sprintf(name string) string {
	items := make([]string, 0, s.Len())
	s.Iter()(func(v any) bool {
		items = append(items, fmt.Sprintf("%v", v))
		return true
	})
	sort.Strings(items)
	out := name + "{"
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out + "}"
}

// Set represents a Python set: an unordered, duplicate-collapsing
// collection of hashable members.
type Set struct{ setlike }

// NewSet returns a new, empty set for general (post-decode) use.
func NewSet() Set { return Set{newSetlikeMemo(nil)} }

func newSetMemo(mm *memo) Set { return Set{newSetlikeMemo(mm)} }

// Add inserts v, a no-op if an equal member is already present.
func (s Set) Add(v any) { s.add(v) }

func (s Set) String() string { return s.sprintf("Set") }

// FrozenSet represents a Python frozenset.
type FrozenSet struct{ setlike }

// NewFrozenSet returns a new, empty frozenset for general (post-decode) use.
func NewFrozenSet() FrozenSet { return FrozenSet{newSetlikeMemo(nil)} }

func newFrozenSetMemo(mm *memo) FrozenSet { return FrozenSet{newSetlikeMemo(mm)} }

// Add inserts v, a no-op if an equal member is already present. FrozenSet
// exposes this only so the decoder can build one incrementally from
// EMPTY_SET/ADDITEMS/FROZENSET payloads; callers should treat a FrozenSet
// handed back from Decode as immutable.
func (s FrozenSet) Add(v any) { s.add(v) }

func (s FrozenSet) String() string { return s.sprintf("FrozenSet") }

// ---- equality ----

// kind classifies x for the purposes of equal/hash: it groups bool and all
// numeric Go types together so cross-type comparisons (1 == 1.0 == True,
// matching Python) are a single small matrix instead of one case per pair
// of concrete types.
type kind uint

const (
	kBool kind = iota
	kInt
	kUint
	kFloat
	kBigInt
	kBytes
	kString
	kTuple
	kOther
)

func kindOf(mm *memo, x any) (kind, any) {
	x = deref(mm, x)
	switch v := x.(type) {
	case bool:
		return kBool, x
	case int, int8, int16, int32, int64:
		return kInt, x
	case uint, uint8, uint16, uint32, uint64:
		return kUint, x
	case float32, float64:
		return kFloat, x
	case *big.Int:
		return kBigInt, v
	case Bytes:
		return kBytes, v
	case string:
		return kString, v
	case Tuple:
		return kTuple, v
	default:
		return kOther, x
	}
}

// deref follows a memoRef to its current memo value, transparently and
// without affecting refcount bookkeeping. See the package doc comment
// above for why this is needed during decoding.
func deref(mm *memo, x any) any {
	id, ok := x.(memoRef)
	if !ok {
		return x
	}
	if mm == nil {
		panic("pickle: internal error: memoRef seen outside of decoding")
	}
	v, ok := mm.peek(uint32(id))
	if !ok {
		panic(fmt.Sprintf("pickle: memo key error %d", uint32(id)))
	}
	return deref(mm, v) // a memoRef can itself alias another memoRef's slot
}

// asInt64 is used from equal's combined kBool/kInt branch, so it must
// accept either a bool or a genuine signed-int value.
func asInt64(x any) int64 {
	if b, ok := x.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return reflect.ValueOf(x).Int()
}

func asUint64(x any) uint64 {
	return reflect.ValueOf(x).Uint()
}

func asFloat64(x any) float64 {
	return reflect.ValueOf(x).Float()
}

// equalFunc and hashFunc close over a (possibly nil) memo so gomap's
// generic Map can be handed a plain (K,K)->bool / (seed,K)->uint64 pair.
func equalFunc(mm *memo) func(a, b any) bool {
	return func(a, b any) bool { return equal(mm, a, b) }
}

func hashFunc(mm *memo) func(seed maphash.Seed, x any) uint64 {
	return func(seed maphash.Seed, x any) uint64 { return hashValue(mm, seed, x) }
}

// equal implements the equality Python's dict/set would use for a == b,
// including cross-type numeric equality (bool, int, float, big.Int all
// compare by value) and NaN semantics for float64 (two F64s compare equal
// exactly when their bit patterns match, per spec invariant 4 - plain Go
// == would never find a NaN key, since NaN == NaN is always false, so the
// float/float case compares math.Float64bits instead).
func equal(mm *memo, xa, xb any) bool {
	ka, a := kindOf(mm, xa)
	kb, b := kindOf(mm, xb)

	switch ka {
	case kBytes:
		bb, ok := b.(Bytes)
		return ok && string(a.(Bytes)) == string(bb)
	case kString:
		sb, ok := b.(string)
		return ok && a.(string) == sb
	case kTuple:
		tb, ok := b.(Tuple)
		if !ok {
			return false
		}
		ta := a.(Tuple)
		if len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !equal(mm, ta[i], tb[i]) {
				return false
			}
		}
		return true
	case kOther:
		if ka != kb {
			return false
		}
		if _, isNone := a.(None); isNone {
			_, bIsNone := b.(None)
			return bIsNone
		}
		return a == b
	}

	// numeric tower: bool < int < uint < float < bigint: normalize so we
	// only implement one half of the comparison matrix.
	if ka > kb {
		ka, kb = kb, ka
		a, b = b, a
	}
	switch ka {
	case kBool, kInt:
		ai := asInt64(a)
		switch kb {
		case kBool, kInt:
			return ai == asInt64(b)
		case kUint:
			bu := asUint64(b)
			return ai >= 0 && uint64(ai) == bu
		case kFloat:
			return float64(ai) == asFloat64(b)
		case kBigInt:
			bi := b.(*big.Int)
			return bi.IsInt64() && ai == bi.Int64()
		}
	case kUint:
		au := asUint64(a)
		switch kb {
		case kUint:
			return au == asUint64(b)
		case kFloat:
			return float64(au) == asFloat64(b)
		case kBigInt:
			bi := b.(*big.Int)
			return bi.IsUint64() && au == bi.Uint64()
		}
	case kFloat:
		af := asFloat64(a)
		switch kb {
		case kFloat:
			// Raw bit pattern, not af == asFloat64(b): Go's == is always
			// false for NaN, but invariant 4 wants two NaN keys to
			// compare equal exactly when their bit patterns match.
			return math.Float64bits(af) == math.Float64bits(asFloat64(b))
		case kBigInt:
			bf, acc := bigIntFloat64(b.(*big.Int))
			return acc == big.Exact && af == bf
		}
	case kBigInt:
		return a.(*big.Int).Cmp(b.(*big.Int)) == 0
	}
	return false
}

// hashValue hashes x consistently with equal: equal(a,b) implies
// hashValue(a) == hashValue(b). It panics with an "unhashable type"
// message for List/Dict/Set/FrozenSet, matching invariant 3.
func hashValue(mm *memo, seed maphash.Seed, x any) uint64 {
	k, v := kindOf(mm, x)

	switch k {
	case kBytes:
		return maphash.Bytes(seed, []byte(v.(Bytes)))
	case kString:
		return maphash.String(seed, v.(string))
	case kTuple:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString("tuple")
		for _, item := range v.(Tuple) {
			writeUint64(&h, hashValue(mm, seed, item))
		}
		return h.Sum64()
	case kOther:
		switch vv := v.(type) {
		case None:
			return maphash.String(seed, "None")
		default:
			panic(fmt.Sprintf("pickle: unhashable type: %T", vv))
		}
	}

	var h maphash.Hash
	h.SetSeed(seed)

	hashInt := func(i int64) { writeUint64(&h, uint64(i)) }
	hashFloat := func(f float64) {
		if i := int64(f); float64(i) == f {
			hashInt(i)
			return
		}
		writeUint64(&h, math.Float64bits(f))
	}

	switch k {
	case kBool:
		b := v.(bool)
		if b {
			hashInt(1)
		} else {
			hashInt(0)
		}
	case kInt:
		hashInt(asInt64(v))
	case kUint:
		writeUint64(&h, asUint64(v))
	case kFloat:
		hashFloat(asFloat64(v))
	case kBigInt:
		b := v.(*big.Int)
		switch {
		case b.IsInt64():
			hashInt(b.Int64())
		case b.IsUint64():
			writeUint64(&h, b.Uint64())
		default:
			if f, acc := bigIntFloat64(b); acc == big.Exact {
				hashFloat(f)
			} else {
				h.WriteString("bigint")
				h.Write(b.Bytes())
				if b.Sign() < 0 {
					h.WriteByte('-')
				}
			}
		}
	}
	return h.Sum64()
}

func writeUint64(h *maphash.Hash, u uint64) {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	h.Write(b[:])
}
