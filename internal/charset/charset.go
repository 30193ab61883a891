// Package charset resolves XML encoding labels and converts non-UTF-8 input
// to UTF-8 before it reaches the lexers.
package charset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
)

// Class groups encodings by how their bytes relate to UTF-8.
type Class uint8

const (
	// ClassUnknown is returned with an error for unregistered labels.
	ClassUnknown Class = iota
	// ClassUTF8 covers UTF-8 and its ASCII subset.
	ClassUTF8
	// ClassUTF16 covers UTF-16 in either byte order.
	ClassUTF16
	// ClassOther covers every other registered encoding.
	ClassOther
)

var errUnknownLabel = errors.New("unknown encoding label")

const maxDeclScan = 1024

// Classify resolves label through the WHATWG encoding registry and reports its
// class together with the canonical name.
func Classify(label string) (Class, string, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8":
		return ClassUTF8, "utf-8", nil
	case "us-ascii", "ascii":
		return ClassUTF8, "us-ascii", nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return ClassUnknown, "", fmt.Errorf("%w: %q", errUnknownLabel, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return ClassUnknown, "", fmt.Errorf("%w: %q", errUnknownLabel, label)
	}
	switch name {
	case "utf-8":
		return ClassUTF8, name, nil
	case "utf-16le", "utf-16be":
		return ClassUTF16, name, nil
	default:
		return ClassOther, name, nil
	}
}

// Sniff inspects the first bytes of a document and returns the encoding label
// implied by a byte order mark or a UTF-16 "<?" prefix. It returns "" when the
// prefix looks like UTF-8.
func Sniff(prefix []byte) string {
	if len(prefix) >= 2 {
		if prefix[0] == 0xFE && prefix[1] == 0xFF {
			return "utf-16be"
		}
		if prefix[0] == 0xFF && prefix[1] == 0xFE {
			return "utf-16le"
		}
	}
	if len(prefix) >= 4 {
		if bytes.Equal(prefix[:4], []byte{0x00, 0x3C, 0x00, 0x3F}) {
			return "utf-16be"
		}
		if bytes.Equal(prefix[:4], []byte{0x3C, 0x00, 0x3F, 0x00}) {
			return "utf-16le"
		}
	}
	return ""
}

// NewReader wraps r so that it yields UTF-8. When label is empty the encoding
// is taken from a byte order mark, a UTF-16 prefix or the XML declaration.
// It returns the canonical name of the applied encoding, or "" when the input
// is passed through unchanged.
func NewReader(r io.Reader, label string) (io.Reader, string, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, maxDeclScan)
	}
	if label == "" {
		peek, err := br.Peek(4)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, "", err
		}
		label = Sniff(peek)
		if label == "" {
			label, err = declEncoding(br)
			if err != nil {
				return nil, "", err
			}
			if label == "" {
				return br, "", nil
			}
			// An ASCII declaration naming UTF-16 contradicts its own bytes.
			// The input is left as is so the cursor reports the mismatch.
			if class, _, err := Classify(label); err == nil && class == ClassUTF16 {
				return br, "", nil
			}
		}
	}
	class, name, err := Classify(label)
	if err != nil {
		return nil, "", err
	}
	var enc encoding.Encoding
	switch class {
	case ClassUTF8:
		return br, "", nil
	case ClassUTF16:
		order := unicode.LittleEndian
		if name == "utf-16be" {
			order = unicode.BigEndian
		}
		// ExpectBOM lets a byte order mark override the declared order.
		enc = unicode.UTF16(order, unicode.ExpectBOM)
	default:
		enc, err = htmlindex.Get(name)
		if err != nil {
			return nil, "", err
		}
	}
	return enc.NewDecoder().Reader(br), name, nil
}

func declEncoding(r *bufio.Reader) (string, error) {
	const prefix = "<?xml"
	peek, err := r.Peek(len(prefix))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	if len(peek) < len(prefix) || !bytes.Equal(peek, []byte(prefix)) {
		return "", nil
	}
	decl, err := r.Peek(maxDeclScan)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	end := bytes.Index(decl, []byte("?>"))
	if end < 0 {
		return "", nil
	}
	return DeclaredEncoding(decl[len(prefix):end]), nil
}

// DeclaredEncoding extracts the encoding pseudo-attribute from the body of an
// XML declaration (the bytes between "<?xml" and "?>").
func DeclaredEncoding(body []byte) string {
	data := body
	for {
		data = xmlchars.TrimSpace(data)
		if len(data) == 0 {
			return ""
		}
		n := xmlchars.NameLen(data)
		if n == 0 {
			return ""
		}
		name := data[:n]
		data = xmlchars.TrimSpace(data[n:])
		if len(data) == 0 || data[0] != '=' {
			return ""
		}
		data = xmlchars.TrimSpace(data[1:])
		if len(data) == 0 {
			return ""
		}
		quote := data[0]
		if quote != '\'' && quote != '"' {
			return ""
		}
		data = data[1:]
		end := bytes.IndexByte(data, quote)
		if end < 0 {
			return ""
		}
		value := data[:end]
		data = data[end+1:]
		if string(name) == "encoding" {
			return string(value)
		}
	}
}
