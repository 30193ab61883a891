package xmlparser

import (
	"errors"
	"fmt"

	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
)

var (
	// ErrUnexpectedEOF reports input ending inside a construct.
	ErrUnexpectedEOF = xmllexer.ErrUnexpectedEOF
	// ErrInvalidName reports a malformed XML name.
	ErrInvalidName = errors.New("invalid XML name")
	// ErrInvalidToken reports malformed markup.
	ErrInvalidToken = errors.New("invalid XML token")

	errCDATAEndInText   = errors.New("']]>' not allowed in text")
	errInvalidComment   = errors.New("invalid XML comment")
	errInvalidPI        = errors.New("invalid XML processing instruction")
	errReservedPITarget = errors.New("reserved processing instruction target")
	errMisplacedXMLDecl = errors.New("XML declaration not at start")
	errInvalidAttr      = errors.New("invalid attribute")
	errDuplicateAttr    = errors.New("duplicate attribute name")
	errLTInAttrValue    = errors.New("'<' not allowed in attribute value")
	errInvalidDoctype   = errors.New("invalid DOCTYPE")
	errInvalidSubset    = errors.New("invalid internal subset")
)

// SyntaxError reports malformed markup at an input offset.
type SyntaxError struct {
	Err      error
	Expected string
	Found    string
	Offset   int64
}

// Error formats the syntax error with location and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Expected != "" && e.Found != "":
		return fmt.Sprintf("xml syntax error at offset %d: %v: expected %s, found %q", e.Offset, e.Err, e.Expected, e.Found)
	case e.Expected != "":
		return fmt.Sprintf("xml syntax error at offset %d: %v: expected %s", e.Offset, e.Err, e.Expected)
	default:
		return fmt.Sprintf("xml syntax error at offset %d: %v", e.Offset, e.Err)
	}
}

// Unwrap exposes the underlying error.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
