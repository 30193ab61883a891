package xmlcursor

import (
	"bytes"

	"github.com/jacoelho/xmlcursor/internal/charset"
	"github.com/jacoelho/xmlcursor/pkg/xmlparser"
)

var (
	declVersion    = []byte("version")
	declEncoding   = []byte("encoding")
	declStandalone = []byte("standalone")
)

// checkDeclaration validates the pseudo-attributes of an XML declaration and
// returns them. The token content starts with the "xml" target.
func (c *Cursor[L]) checkDeclaration(tok xmlparser.Token) ([]Attribute, error) {
	body := tok.Content[len("xml"):]
	at := tok.Offset + int64(len(tok.Raw)-len(tok.Content)-len("?>"))
	attrs, err := parseAttributes(body, nil)
	if err != nil {
		return nil, newError(ErrCodeInvalidDeclaration, at, "pseudo-attributes", body)
	}
	next := 0
	if len(attrs) == 0 || !bytes.Equal(attrs[0].Name, declVersion) {
		return nil, newError(ErrCodeInvalidDeclaration, at, "version", body)
	}
	if !validVersion(attrs[0].Value) {
		return nil, newError(ErrCodeInvalidDeclaration, at, "version 1.x", attrs[0].Value)
	}
	next++
	if next < len(attrs) && bytes.Equal(attrs[next].Name, declEncoding) {
		if err := c.checkEncoding(attrs[next].Value, at); err != nil {
			return nil, err
		}
		next++
	}
	if next < len(attrs) && bytes.Equal(attrs[next].Name, declStandalone) {
		if v := attrs[next].Value; string(v) != "yes" && string(v) != "no" {
			return nil, newError(ErrCodeInvalidDeclaration, at, "standalone yes or no", v)
		}
		next++
	}
	if next < len(attrs) {
		return nil, newError(ErrCodeInvalidDeclaration, at, "end of declaration", attrs[next].Name)
	}
	return attrs, nil
}

func (c *Cursor[L]) checkEncoding(label []byte, at int64) error {
	if !validEncName(label) {
		return newError(ErrCodeInvalidDeclaration, at, "encoding name", label)
	}
	class, _, err := charset.Classify(string(label))
	if err != nil {
		e := newError(ErrCodeInvalidDeclaration, at, "known encoding", label)
		e.Err = err
		return e
	}
	if class != charset.ClassUTF8 && !c.opts.assumeTranscoded {
		return newError(ErrCodeEncodingMismatch, at, "UTF-8 compatible encoding", label)
	}
	return nil
}

// validVersion matches '1.' [0-9]+.
func validVersion(v []byte) bool {
	if len(v) < 3 || v[0] != '1' || v[1] != '.' {
		return false
	}
	for _, b := range v[2:] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// validEncName matches [A-Za-z] ([A-Za-z0-9._] | '-')*.
func validEncName(name []byte) bool {
	if len(name) == 0 || !isASCIILetter(name[0]) {
		return false
	}
	for _, b := range name[1:] {
		if !isASCIILetter(b) && (b < '0' || b > '9') && b != '.' && b != '_' && b != '-' {
			return false
		}
	}
	return true
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
