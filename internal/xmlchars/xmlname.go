package xmlchars

import (
	"unicode"
	"unicode/utf8"
)

var nameStartByteLUT = [utf8.RuneSelf]bool{
	':': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true,
	'H': true, 'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true,
	'O': true, 'P': true, 'Q': true, 'R': true, 'S': true, 'T': true, 'U': true,
	'V': true, 'W': true, 'X': true, 'Y': true, 'Z': true,
	'_': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true,
	'h': true, 'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true,
	'o': true, 'p': true, 'q': true, 'r': true, 's': true, 't': true, 'u': true,
	'v': true, 'w': true, 'x': true, 'y': true, 'z': true,
}

var nameByteLUT = [utf8.RuneSelf]bool{
	'-': true, '.': true,
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	':': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true,
	'H': true, 'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true,
	'O': true, 'P': true, 'Q': true, 'R': true, 'S': true, 'T': true, 'U': true,
	'V': true, 'W': true, 'X': true, 'Y': true, 'Z': true,
	'_': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true,
	'h': true, 'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true,
	'o': true, 'p': true, 'q': true, 'r': true, 's': true, 't': true, 'u': true,
	'v': true, 'w': true, 'x': true, 'y': true, 'z': true,
}

// nameStartTable holds the non-ASCII NameStartChar ranges of XML 1.0 fifth edition.
var nameStartTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xC0, Hi: 0xD6, Stride: 1},
		{Lo: 0xD8, Hi: 0xF6, Stride: 1},
		{Lo: 0xF8, Hi: 0x2FF, Stride: 1},
		{Lo: 0x370, Hi: 0x37D, Stride: 1},
		{Lo: 0x37F, Hi: 0x1FFF, Stride: 1},
		{Lo: 0x200C, Hi: 0x200D, Stride: 1},
		{Lo: 0x2070, Hi: 0x218F, Stride: 1},
		{Lo: 0x2C00, Hi: 0x2FEF, Stride: 1},
		{Lo: 0x3001, Hi: 0xD7FF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFDCF, Stride: 1},
		{Lo: 0xFDF0, Hi: 0xFFFD, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0xEFFFF, Stride: 1},
	},
	LatinOffset: 2,
}

// nameCharTable holds the NameChar additions beyond NameStartChar.
var nameCharTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0xB7, Hi: 0xB7, Stride: 1},
		{Lo: 0x300, Hi: 0x36F, Stride: 1},
		{Lo: 0x203F, Hi: 0x2040, Stride: 1},
	},
	LatinOffset: 1,
}

// IsNameStartByte reports whether the ASCII byte b may start a name.
func IsNameStartByte(b byte) bool {
	return b < utf8.RuneSelf && nameStartByteLUT[b]
}

// IsNameByte reports whether the ASCII byte b may continue a name.
func IsNameByte(b byte) bool {
	return b < utf8.RuneSelf && nameByteLUT[b]
}

// IsNameStartRune reports whether r matches NameStartChar.
func IsNameStartRune(r rune) bool {
	if r < utf8.RuneSelf {
		return IsNameStartByte(byte(r))
	}
	return unicode.Is(nameStartTable, r)
}

// IsNameRune reports whether r matches NameChar.
func IsNameRune(r rune) bool {
	if r < utf8.RuneSelf {
		return IsNameByte(byte(r))
	}
	return unicode.Is(nameStartTable, r) || unicode.Is(nameCharTable, r)
}

// NameLen returns the length in bytes of the XML name at the start of data,
// or 0 when data does not start with a name.
func NameLen(data []byte) int {
	i := 0
	for i < len(data) {
		b := data[i]
		if b < utf8.RuneSelf {
			if i == 0 {
				if !nameStartByteLUT[b] {
					return 0
				}
			} else if !nameByteLUT[b] {
				return i
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		if i == 0 {
			if !IsNameStartRune(r) {
				return 0
			}
		} else if !IsNameRune(r) {
			return i
		}
		i += size
	}
	return i
}

// IsName reports whether data is exactly one XML name.
func IsName(data []byte) bool {
	return len(data) > 0 && NameLen(data) == len(data)
}
