package xmlcursor

import (
	"errors"
	"iter"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

var errMalformedAttrs = errors.New("malformed attribute list")

// Attribute is one name/value pair of a start tag or the XML declaration.
// Value is the raw text between the quotes, with references undecoded.
type Attribute struct {
	Name  []byte
	Value []byte
}

// Attributes holds the attributes of the current node in document order.
// Names are unique.
type Attributes struct {
	list []Attribute
}

// Len returns the number of attributes.
func (a Attributes) Len() int {
	return len(a.list)
}

// At returns the i-th attribute.
func (a Attributes) At(i int) Attribute {
	return a.list[i]
}

// Get returns the value of the attribute called name.
func (a Attributes) Get(name string) ([]byte, bool) {
	for _, attr := range a.list {
		if string(attr.Name) == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// All yields name/value pairs in document order.
func (a Attributes) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for _, attr := range a.list {
			if !yield(attr.Name, attr.Value) {
				return
			}
		}
	}
}

// parseAttributes splits S? (Name S? = S? quoted-value S?)* into dst.
// Duplicate names are rejected.
func parseAttributes(data []byte, dst []Attribute) ([]Attribute, error) {
	for {
		data = trimLeftSpace(data)
		if len(data) == 0 {
			return dst, nil
		}
		n := xmlchars.NameLen(data)
		if n == 0 {
			return dst, errMalformedAttrs
		}
		name := data[:n:n]
		data = trimLeftSpace(data[n:])
		if len(data) == 0 || data[0] != '=' {
			return dst, errMalformedAttrs
		}
		data = trimLeftSpace(data[1:])
		if len(data) == 0 || (data[0] != '"' && data[0] != '\'') {
			return dst, errMalformedAttrs
		}
		end := faststrings.IndexOf(data[1:], data[0])
		if end < 0 {
			return dst, errMalformedAttrs
		}
		value := data[1 : 1+end : 1+end]
		data = data[end+2:]
		if len(data) > 0 && !xmlchars.IsWhitespace(data[0]) {
			return dst, errMalformedAttrs
		}
		for _, attr := range dst {
			if faststrings.Equal(attr.Name, name) {
				return dst, errMalformedAttrs
			}
		}
		dst = append(dst, Attribute{Name: name, Value: value})
	}
}

func trimLeftSpace(data []byte) []byte {
	for len(data) > 0 && xmlchars.IsWhitespace(data[0]) {
		data = data[1:]
	}
	return data
}
