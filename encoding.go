package pickle

import (
	"fmt"
	"unicode/utf8"
)

// encodeString emulates _codecs.encode(s, encoding) for the handful of
// encodings old protocol-0/1 pickles of Python 2 str subclasses actually
// use: "utf-8", "latin1" (an identity byte-for-byte mapping, since every
// code point s can legally contain here is already <= 0xff coming out of
// raw-unicode-escape) and "ascii" (utf-8's restriction). Anything else is
// reported rather than guessed at - this is emulation of a fixed, known
// call, not a general codec registry.
func encodeString(s, encoding string) ([]byte, error) {
	switch normalizeEncodingName(encoding) {
	case "utf-8":
		return []byte(s), nil
	case "ascii":
		for _, r := range s {
			if r > 0x7f {
				return nil, fmt.Errorf("pickle: character %U is out of range for encoding %q", r, encoding)
			}
		}
		return []byte(s), nil
	case "latin1":
		b := make([]byte, 0, len(s))
		for _, r := range s {
			if r > 0xff {
				return nil, fmt.Errorf("pickle: character %U is out of range for encoding %q", r, encoding)
			}
			b = append(b, byte(r))
		}
		return b, nil
	default:
		return nil, fmt.Errorf("pickle: unsupported encoding %q", encoding)
	}
}

// decodeWithEncoding is encodeString's inverse, used by DecoderConfig.
// DecodeStrings to turn a legacy STRING/BINSTRING/SHORT_BINSTRING payload
// into a Go string.
func decodeWithEncoding(b []byte, encoding string) (string, error) {
	switch normalizeEncodingName(encoding) {
	case "utf-8":
		if !utf8.Valid(b) {
			return "", fmt.Errorf("pickle: invalid utf-8 for encoding %q", encoding)
		}
		return string(b), nil
	case "ascii":
		for _, c := range b {
			if c > 0x7f {
				return "", fmt.Errorf("pickle: byte %#x out of range for encoding %q", c, encoding)
			}
		}
		return string(b), nil
	case "latin1":
		r := make([]rune, len(b))
		for i, c := range b {
			r[i] = rune(c)
		}
		return string(r), nil
	default:
		return "", fmt.Errorf("pickle: unsupported encoding %q", encoding)
	}
}

// decodeWithEncodingReplace is decodeWithEncoding's "replace"-mode sibling
// (DecoderConfig.UnicodeErrors == "replace"): every byte (utf-8: every
// byte that does not start a valid sequence; ascii: every byte above 0x7f;
// an unknown encoding: every byte) that would otherwise
// fail becomes U+FFFD instead of aborting the decode, matching Python's own
// errors="replace" unpickling mode.
func decodeWithEncodingReplace(b []byte, encoding string) string {
	switch normalizeEncodingName(encoding) {
	case "utf-8":
		var out []rune
		for len(b) > 0 {
			r, size := utf8.DecodeRune(b)
			if r == utf8.RuneError && size <= 1 {
				out = append(out, '�')
				b = b[1:]
				continue
			}
			out = append(out, r)
			b = b[size:]
		}
		return string(out)
	case "ascii":
		out := make([]rune, len(b))
		for i, c := range b {
			if c > 0x7f {
				out[i] = '�'
			} else {
				out[i] = rune(c)
			}
		}
		return string(out)
	case "latin1":
		// Every byte is a valid latin1 code point, so there is never
		// anything to replace.
		out := make([]rune, len(b))
		for i, c := range b {
			out[i] = rune(c)
		}
		return string(out)
	default:
		out := make([]rune, len(b))
		for i := range b {
			out[i] = '�'
		}
		return string(out)
	}
}

func normalizeEncodingName(enc string) string {
	switch enc {
	case "utf8", "utf-8", "UTF-8", "UTF8":
		return "utf-8"
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1", "L1":
		return "latin1"
	case "ascii", "us-ascii", "646":
		return "ascii"
	default:
		return enc
	}
}
