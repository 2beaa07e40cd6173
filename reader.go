package pickle

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// byteReader is a positioned, buffered byte source. It is the sole
// dependency the interpreter has on the outside world: everything it reads
// passes through here, so position tracking for error reporting lives in
// one place.
type byteReader struct {
	r   *bufio.Reader
	pos int64

	// reusable buffer for readLine, like the teacher's Decoder.line.
	line []byte
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReader(r)}
}

// wrapEOF turns a plain io.EOF into a positioned EOFWhileParsingError. Any
// EOF seen mid-instruction is by definition unexpected: a well-formed
// stream only ends right after STOP.
func (b *byteReader) wrapEOF(err error) error {
	if err == io.EOF {
		return &EOFWhileParsingError{Pos: b.pos}
	}
	return err
}

func (b *byteReader) readByte() (byte, error) {
	c, err := b.r.ReadByte()
	if err != nil {
		return 0, b.wrapEOF(err)
	}
	b.pos++
	return c, nil
}

// readExact reads exactly n bytes. A negative n is reported as
// NegativeLengthError rather than treated as a read of zero bytes; callers
// that decode a signed length prefix (BINSTRING, LONG4) should go through
// this rather than casting to an unsigned count.
func (b *byteReader) readExact(n int64) ([]byte, error) {
	if n < 0 {
		return nil, &NegativeLengthError{Length: n, Pos: b.pos}
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(b.r, buf); err != nil {
			return nil, b.wrapEOF(err)
		}
	}
	b.pos += n
	return buf, nil
}

// readLine reads up to and including LF. LF is stripped, and a trailing CR
// (so callers can transparently accept CRLF-terminated streams) is
// stripped too. The returned slice is only valid until the next readLine
// call.
func (b *byteReader) readLine() ([]byte, error) {
	b.line = b.line[:0]
	for {
		chunk, isPrefix, err := b.r.ReadLine()
		if err != nil {
			return nil, b.wrapEOF(err)
		}
		b.pos += int64(len(chunk))
		b.line = append(b.line, chunk...)
		if !isPrefix {
			break
		}
	}
	b.pos++ // account for the LF itself, which bufio.ReadLine strips silently
	return b.line, nil
}

func (b *byteReader) readU8Prefixed() ([]byte, error) {
	n, err := b.readByte()
	if err != nil {
		return nil, err
	}
	return b.readExact(int64(n))
}

func (b *byteReader) readU16LE() (uint16, error) {
	buf, err := b.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (b *byteReader) readI32LE() (int32, error) {
	buf, err := b.readExact(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (b *byteReader) readU32LE() (uint32, error) {
	buf, err := b.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (b *byteReader) readU64LE() (uint64, error) {
	buf, err := b.readExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func (b *byteReader) readF64BE() (float64, error) {
	buf, err := b.readExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
}

func (b *byteReader) readF64LE() (float64, error) {
	buf, err := b.readExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// atEOF reports whether the reader has no more bytes, without consuming
// any. Used after STOP to detect TrailingBytes.
func (b *byteReader) atEOF() bool {
	_, err := b.r.Peek(1)
	return err == io.EOF
}
