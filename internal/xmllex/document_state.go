// Package xmllex tracks document-level placement rules the token stream
// itself cannot express.
package xmllex

import (
	"bytes"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
)

var utf8BOM = []byte("\xEF\xBB\xBF")

// DocumentState tracks document-boundary lexical state shared by XML token loops.
type DocumentState struct {
	allowBOM    bool
	declAllowed bool
	doctypeSeen bool
	rootSeen    bool
	rootClosed  bool
}

// NewDocumentState returns an initialized document-boundary state.
func NewDocumentState() DocumentState {
	return DocumentState{allowBOM: true, declAllowed: true}
}

// RootSeen reports whether a root start element has been seen.
func (s *DocumentState) RootSeen() bool {
	return s != nil && s.rootSeen
}

// RootClosed reports whether the root element has been closed.
func (s *DocumentState) RootClosed() bool {
	return s != nil && s.rootClosed
}

// StartElementAllowed reports whether a start element may appear at this point.
func (s *DocumentState) StartElementAllowed() bool {
	return s == nil || !s.rootClosed
}

// DeclarationAllowed reports whether an XML declaration may appear here.
func (s *DocumentState) DeclarationAllowed() bool {
	return s == nil || s.declAllowed
}

// DoctypeAllowed reports whether a document type declaration may appear here.
func (s *DocumentState) DoctypeAllowed() bool {
	return s == nil || (!s.doctypeSeen && !s.rootSeen)
}

// OnDeclaration advances state for the XML declaration.
func (s *DocumentState) OnDeclaration() {
	if s == nil {
		return
	}
	s.declAllowed = false
	s.allowBOM = false
}

// OnDoctype advances state for a document type declaration.
func (s *DocumentState) OnDoctype() {
	if s == nil {
		return
	}
	s.doctypeSeen = true
	s.declAllowed = false
	s.allowBOM = false
}

// OnStartElement advances state for a start-element token.
func (s *DocumentState) OnStartElement() {
	if s == nil {
		return
	}
	s.rootSeen = true
	s.declAllowed = false
	s.allowBOM = false
}

// OnEndElement advances state for an end-element token.
// closeRoot should be true only when this token closes the document root element.
func (s *DocumentState) OnEndElement(closeRoot bool) {
	if s == nil {
		return
	}
	if closeRoot {
		s.rootClosed = true
	}
	s.allowBOM = false
}

// ValidateOutsideCharData reports whether character data outside root is ignorable.
func (s *DocumentState) ValidateOutsideCharData(data []byte) bool {
	if s == nil {
		return IsIgnorableOutsideRoot(data, true)
	}
	ok := IsIgnorableOutsideRoot(data, s.allowBOM)
	if ok {
		s.declAllowed = false
		s.allowBOM = false
	}
	return ok
}

// OnOutsideMarkup advances state for comments and PIs outside root.
func (s *DocumentState) OnOutsideMarkup() {
	if s == nil {
		return
	}
	s.declAllowed = false
	s.allowBOM = false
}

// IsIgnorableOutsideRoot reports whether data holds only XML whitespace,
// optionally preceded by a UTF-8 byte order mark when allowBOM is set.
func IsIgnorableOutsideRoot(data []byte, allowBOM bool) bool {
	if allowBOM {
		data = bytes.TrimPrefix(data, utf8BOM)
	}
	return xmlchars.IsWhitespaceBytes(data)
}
