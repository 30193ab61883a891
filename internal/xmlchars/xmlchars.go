// Package xmlchars classifies bytes and runes per the XML 1.0 character and
// name productions.
package xmlchars

import "unicode/utf8"

// Whitespace lists the XML S production bytes.
var Whitespace = []byte(" \t\r\n")

var whitespaceLUT = [256]bool{
	'\t': true,
	'\n': true,
	'\r': true,
	' ':  true,
}

// IsWhitespace reports whether b is an XML whitespace byte.
func IsWhitespace(b byte) bool {
	return whitespaceLUT[b]
}

// IsWhitespaceBytes reports whether data holds only XML whitespace.
func IsWhitespaceBytes(data []byte) bool {
	for _, b := range data {
		if !whitespaceLUT[b] {
			return false
		}
	}
	return true
}

// TrimSpace removes leading and trailing XML whitespace.
func TrimSpace(data []byte) []byte {
	start := 0
	for start < len(data) && whitespaceLUT[data[start]] {
		start++
	}
	end := len(data)
	for end > start && whitespaceLUT[data[end-1]] {
		end--
	}
	return data[start:end]
}

// IsChar reports whether r is a valid XML 1.0 character.
// Per XML 1.0 section 2.2, Char excludes most control codes and surrogates.
func IsChar(r rune) bool {
	switch {
	case r == 0x9 || r == 0xA || r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// InvalidCharIndex returns the byte index of the first invalid XML character
// or malformed UTF-8 sequence in data, or -1 when data is valid.
func InvalidCharIndex(data []byte) int {
	for i := 0; i < len(data); {
		b := data[i]
		if b < utf8.RuneSelf {
			if b < 0x20 && !whitespaceLUT[b] {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		if !IsChar(r) {
			return i
		}
		i += size
	}
	return -1
}
