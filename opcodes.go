package pickle

// Opcodes, grouped by the protocol version that introduced them.
//
// Names and byte values follow CPython's pickle.py / pickletools.py; see
// https://docs.python.org/3/library/pickle.html#data-stream-format.
const (
	// Protocol 0

	opMark           byte = '(' // push markobject on stack
	opStop           byte = '.' // every pickle ends with STOP
	opPop            byte = '0' // discard topmost stack item
	opPopMark        byte = '1' // discard stack top through topmost markobject
	opDup            byte = '2' // duplicate top stack item
	opFloat          byte = 'F' // push float; decimal string argument
	opInt            byte = 'I' // push int or bool; decimal string argument
	opBinint         byte = 'J' // push four-byte signed int
	opBinint1        byte = 'K' // push 1-byte unsigned int
	opLong           byte = 'L' // push long; decimal string argument
	opBinint2        byte = 'M' // push 2-byte unsigned int
	opNone           byte = 'N' // push None
	opPersid         byte = 'P' // push persistent id; string argument
	opBinpersid      byte = 'Q' // push persistent id; argument from stack
	opReduce         byte = 'R' // apply callable to argtuple, both on stack
	opString         byte = 'S' // push string; NL-terminated string argument
	opBinstring      byte = 'T' // push string; counted binary string argument
	opShortBinstring byte = 'U' // ditto, length < 256 bytes
	opUnicode        byte = 'V' // push unicode; raw-unicode-escaped argument
	opBinunicode     byte = 'X' // push unicode; counted UTF-8 argument
	opAppend         byte = 'a' // append stack top to list below it
	opBuild          byte = 'b' // call __setstate__ / __dict__.update()
	opGlobal         byte = 'c' // push find_class(modname, name); 2 string args
	opDict           byte = 'd' // build a dict from stack items
	opEmptyDict      byte = '}' // push empty dict
	opAppends        byte = 'e' // extend list on stack by topmost slice
	opGet            byte = 'g' // push item from memo; string index
	opBinget         byte = 'h' // push item from memo; 1-byte index
	opInst           byte = 'i' // build & push class instance
	opLongBinget     byte = 'j' // push item from memo; 4-byte index
	opList           byte = 'l' // build list from topmost stack items
	opEmptyList      byte = ']' // push empty list
	opObj            byte = 'o' // build & push class instance
	opPut            byte = 'p' // store stack top in memo; string index
	opBinput         byte = 'q' // store stack top in memo; 1-byte index
	opLongBinput     byte = 'r' // store stack top in memo; 4-byte index
	opSetitem        byte = 's' // add key+value pair to dict
	opTuple          byte = 't' // build tuple from topmost stack items
	opEmptyTuple     byte = ')' // push empty tuple
	opSetitems       byte = 'u' // modify dict by adding topmost key+value pairs
	opBinfloat       byte = 'G' // push float; 8-byte big-endian argument

	// not opcodes, INT payload values meaning bool
	litTrue  = "01"
	litFalse = "00"

	// Protocol 2

	opProto    byte = 0x80 // identify pickle protocol
	opNewobj   byte = 0x81 // build object by applying cls.__new__ to argtuple
	opExt1     byte = 0x82 // push object from extension registry; 1-byte index
	opExt2     byte = 0x83 // ditto, 2-byte index
	opExt4     byte = 0x84 // ditto, 4-byte index
	opTuple1   byte = 0x85 // build 1-tuple from stack top
	opTuple2   byte = 0x86 // build 2-tuple from two topmost stack items
	opTuple3   byte = 0x87 // build 3-tuple from three topmost stack items
	opNewtrue  byte = 0x88 // push True
	opNewfalse byte = 0x89 // push False
	opLong1    byte = 0x8a // push long from < 256 bytes
	opLong4    byte = 0x8b // push arbitrarily large long

	// Protocol 3

	opBinbytes      byte = 'B' // push bytes; counted binary argument
	opShortBinbytes byte = 'C' // ditto, length < 256 bytes

	// Protocol 4

	opShortBinunicode byte = 0x8c // push short unicode; UTF-8 length < 256 bytes
	opBinunicode8     byte = 0x8d // push unicode; 8-byte length argument
	opBinbytes8       byte = 0x8e // push bytes; 8-byte length argument
	opEmptySet        byte = 0x8f // push empty set
	opAdditems        byte = 0x90 // modify set by adding topmost stack items
	opFrozenset       byte = 0x91 // build frozenset from topmost stack items
	opNewobjEx        byte = 0x92 // like NEWOBJ, with keyword arguments
	opStackGlobal     byte = 0x93 // like GLOBAL, but names come off the stack
	opMemoize         byte = 0x94 // store top of stack in memo, at memo.size
	opFrame           byte = 0x95 // begin a new frame; 8-byte length, no effect here

	// Protocol 5

	opBytearray8      byte = 0x96 // push bytearray; 8-byte length argument
	opNextBuffer      byte = 0x97 // push next out-of-band buffer
	opReadonlyBuffer  byte = 0x98 // make top of stack a read-only view
)

// highestProtocol is the newest PROTO version this decoder understands.
const highestProtocol = 5
