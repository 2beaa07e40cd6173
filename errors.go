package pickle

import "fmt"

// EOFWhileParsingError is returned when the reader is exhausted mid-opcode
// or mid-payload.
type EOFWhileParsingError struct {
	Pos int64
}

func (e *EOFWhileParsingError) Error() string {
	return fmt.Sprintf("pickle: unexpected EOF at position %d", e.Pos)
}

// TrailingBytesError is returned when bytes remain in the reader after STOP.
type TrailingBytesError struct {
	Pos int64
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("pickle: trailing bytes after STOP at position %d", e.Pos)
}

// UnsupportedOpcodeError is returned for an unknown, or a disabled (e.g. no
// buffer provider configured for NEXT_BUFFER), opcode.
type UnsupportedOpcodeError struct {
	Op  byte
	Pos int64
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("pickle: unsupported opcode %#x (%q) at position %d", e.Op, rune(e.Op), e.Pos)
}

// StackUnderflowError is returned when an operation needed an operand or a
// mark frame that was not there.
type StackUnderflowError struct {
	Op  byte
	Pos int64
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("pickle: stack underflow in opcode %q at position %d", rune(e.Op), e.Pos)
}

// NegativeLengthError is returned when a signed length prefix was negative.
type NegativeLengthError struct {
	Length int64
	Pos    int64
}

func (e *NegativeLengthError) Error() string {
	return fmt.Sprintf("pickle: negative length %d at position %d", e.Length, e.Pos)
}

// StringNotUTF8Error is returned when UTF-8 decoding was required but failed.
type StringNotUTF8Error struct {
	Pos int64
}

func (e *StringNotUTF8Error) Error() string {
	return fmt.Sprintf("pickle: invalid UTF-8 at position %d", e.Pos)
}

// InvalidLiteralError is returned when an ASCII number or escape sequence
// could not be parsed.
type InvalidLiteralError struct {
	Raw string
	Pos int64
}

func (e *InvalidLiteralError) Error() string {
	return fmt.Sprintf("pickle: invalid literal %q at position %d", e.Raw, e.Pos)
}

// InvalidStackTopError is returned when a shape-specific opcode found the
// wrong kind of value on top of the stack.
type InvalidStackTopError struct {
	Expected string
	Got      any
	Pos      int64
}

func (e *InvalidStackTopError) Error() string {
	return fmt.Sprintf("pickle: expected %s on stack, got %T at position %d", e.Expected, e.Got, e.Pos)
}

// InvalidValueError is returned when a semantic precondition failed, e.g. a
// malformed REDUCE argument tuple.
type InvalidValueError struct {
	Msg string
	Pos int64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("pickle: %s at position %d", e.Msg, e.Pos)
}

// MissingMemoError is returned for a memo reference to an absent id.
type MissingMemoError struct {
	ID  uint32
	Pos int64
}

func (e *MissingMemoError) Error() string {
	return fmt.Sprintf("pickle: memo key error %d at position %d", e.ID, e.Pos)
}

// RecursiveError is returned when the post-processor finds a true cycle:
// a memo entry is re-entered while it is still being resolved.
type RecursiveError struct {
	ID uint32
}

func (e *RecursiveError) Error() string {
	return fmt.Sprintf("pickle: recursive structure through memo id %d", e.ID)
}

// UnresolvedGlobalError is returned in strict mode when a position that
// demands a concrete value (REDUCE, NEWOBJ, NEWOBJ_EX, INST, OBJ, or an
// unrecognized Global left over at the end of post-processing) is only
// given an unrecognized Global.
type UnresolvedGlobalError struct {
	Class Class
	Pos   int64
}

func (e *UnresolvedGlobalError) Error() string {
	return fmt.Sprintf("pickle: unresolved global %s.%s at position %d (strict mode)", e.Class.Module, e.Class.Name, e.Pos)
}

// UnsupportedGlobalError records one (module, name) pair a non-strict
// decode run saw applied (via REDUCE, NEWOBJ, NEWOBJ_EX, INST, or OBJ) but
// could not reduce to a concrete value, and so degraded to an
// OpaqueObject instead. It is never returned as Decode's error - that is
// UnresolvedGlobalError's job, and only happens in Strict mode - but
// Decoder.UnsupportedGlobals collects every instance seen across a
// successful non-strict decode so a caller can enumerate them afterward.
type UnsupportedGlobalError struct {
	Class Class
	Pos   int64
}

func (e *UnsupportedGlobalError) Error() string {
	return fmt.Sprintf("pickle: unsupported global %s.%s at position %d", e.Class.Module, e.Class.Name, e.Pos)
}

// InvalidPickleVersionError is returned by PROTO when the advertised
// protocol is outside the range this decoder understands.
type InvalidPickleVersionError struct {
	Version byte
	Pos     int64
}

func (e *InvalidPickleVersionError) Error() string {
	return fmt.Sprintf("pickle: invalid pickle protocol %d at position %d", e.Version, e.Pos)
}
