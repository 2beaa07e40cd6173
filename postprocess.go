package pickle

import "math/big"

// resolve is the single depth-first rewrite pass that turns a decoder's
// raw result - which may still contain memoRef placeholders anywhere a
// GET opcode put one - into the final Value tree Decode hands back.
//
// Each occurrence of a memoRef id consumes one of the references the
// decoder's memo table counted for that id (one from the PUT/MEMOIZE that
// created it, one more per later GET): see memo.take. The last remaining
// reference moves the stored value out of the memo outright; every
// earlier one leaves the entry in place and gets its own independently
// walked result instead, since walk never mutates what it reads and
// always rebuilds composites from scratch - the result is that the final
// tree holds no two branches that alias the same mutable value, matching
// spec.md §3's "ownership (not sharing) after post-processing" invariant,
// not CPython's own aliasing behavior.
//
// A memo id reached while it is still being resolved - descending into
// its own value re-enters resolveRef for the same id - is a genuine
// cycle, reported as RecursiveError rather than recursing forever.
func resolve(mm *memo, root any, strict bool) (any, error) {
	p := &postprocessor{
		mm:        mm,
		strict:    strict,
		resolving: make(map[uint32]bool),
	}
	return p.walk(root)
}

type postprocessor struct {
	mm        *memo
	strict    bool
	resolving map[uint32]bool
}

func (p *postprocessor) walk(v any) (any, error) {
	switch x := v.(type) {
	case memoRef:
		return p.resolveRef(uint32(x))

	case List:
		out := make(List, len(x))
		for i, item := range x {
			r, err := p.walk(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	case Tuple:
		out, err := p.walkTuple(x)
		if err != nil {
			return nil, err
		}
		return out, nil

	case Dict:
		return p.walkDict(x)

	case Set:
		sl, err := p.walkSetlike(x.setlike)
		if err != nil {
			return nil, err
		}
		return Set{sl}, nil

	case FrozenSet:
		sl, err := p.walkSetlike(x.setlike)
		if err != nil {
			return nil, err
		}
		return FrozenSet{sl}, nil

	case BinPersId:
		pid, err := p.walk(x.Pid)
		if err != nil {
			return nil, err
		}
		return BinPersId{Pid: pid}, nil

	case OpaqueObject:
		args, err := p.walkTuple(x.Args)
		if err != nil {
			return nil, err
		}
		kwargs := x.Kwargs
		if kwargs.m != nil {
			rd, err := p.walkDict(kwargs)
			if err != nil {
				return nil, err
			}
			kwargs = rd.(Dict)
		}
		state, err := p.walk(x.State)
		if err != nil {
			return nil, err
		}
		return OpaqueObject{Class: x.Class, Args: args, Kwargs: kwargs, State: state}, nil

	case Global:
		if p.strict && x.Kind == GlobalOther {
			return nil, &UnresolvedGlobalError{Class: x.Class}
		}
		return x, nil

	case Bytes:
		// Bytes is a mutable []byte; own-copy it so that two resolved
		// references to what started life as the same memoized value
		// (the clone-on-multi-reference path above) never alias the same
		// backing array.
		return append(Bytes(nil), x...), nil

	case *big.Int:
		return new(big.Int).Set(x), nil

	default:
		// None, bool, int64, float64, string: immutable leaves, already
		// final.
		return v, nil
	}
}

func (p *postprocessor) walkTuple(t Tuple) (Tuple, error) {
	if t == nil {
		return nil, nil
	}
	out := make(Tuple, len(t))
	for i, item := range t {
		r, err := p.walk(item)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (p *postprocessor) walkDict(d Dict) (any, error) {
	type pair struct{ k, v any }
	pairs := make([]pair, 0, d.Len())
	d.Iter()(func(k, v any) bool {
		pairs = append(pairs, pair{k, v})
		return true
	})

	out := NewDict()
	for _, pr := range pairs {
		rk, err := p.walk(pr.k)
		if err != nil {
			return nil, err
		}
		rv, err := p.walk(pr.v)
		if err != nil {
			return nil, err
		}
		if err := guardUnhashable(func() { out.Set(rk, rv) }); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *postprocessor) walkSetlike(s setlike) (setlike, error) {
	members := make([]any, 0, s.Len())
	s.Iter()(func(m any) bool {
		members = append(members, m)
		return true
	})

	out := newSetlikeMemo(nil)
	for _, m := range members {
		rm, err := p.walk(m)
		if err != nil {
			return setlike{}, err
		}
		if err := guardUnhashable(func() { out.add(rm) }); err != nil {
			return setlike{}, err
		}
	}
	return out, nil
}

// resolveRef resolves one occurrence of memoRef(id): move-or-clone per
// memo.take, with re-entrancy while the id's own value is still being
// walked reported as Recursive rather than looping forever.
func (p *postprocessor) resolveRef(id uint32) (any, error) {
	if p.resolving[id] {
		return nil, &RecursiveError{ID: id}
	}
	v, ok := p.mm.take(id)
	if !ok {
		return nil, &MissingMemoError{ID: id}
	}
	p.resolving[id] = true
	rv, err := p.walk(v)
	delete(p.resolving, id)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// guardUnhashable turns a panic from hashing/equating an unhashable Value
// (List/Dict/Set/FrozenSet used as a key or set member - possible here
// when a memoRef resolves to one of those only after the fact) into an
// InvalidValueError.
func guardUnhashable(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvalidValueError{Msg: "unhashable type"}
		}
	}()
	f()
	return nil
}
