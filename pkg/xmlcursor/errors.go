package xmlcursor

import (
	"errors"
	"fmt"

	"github.com/jacoelho/xmlcursor/pkg/xmlparser"
)

// ErrorCode classifies cursor failures.
type ErrorCode uint8

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeSyntax
	ErrCodeUnexpectedEOF
	ErrCodeMismatchedEndTag
	ErrCodeInvalidChar
	ErrCodeEncodingMismatch
	ErrCodeInvalidDeclaration
	ErrCodeMissingRoot
	ErrCodeMultipleRoots
	ErrCodeContentOutsideRoot
	ErrCodeMisplacedDoctype
	ErrCodeDepthLimit
	ErrCodePastRoot
	ErrCodeUnsupported
	ErrCodeInvalidBookmark
	ErrCodeRead
)

// Sentinels matched by errors.Is against a *CursorError of the same code.
var (
	ErrSyntax             = errors.New("malformed markup")
	ErrUnexpectedEOF      = errors.New("unexpected end of input")
	ErrMismatchedEndTag   = errors.New("mismatched end element")
	ErrInvalidChar        = errors.New("invalid XML character")
	ErrEncodingMismatch   = errors.New("declared encoding does not match input")
	ErrInvalidDeclaration = errors.New("invalid XML declaration")
	ErrMissingRoot        = errors.New("missing root element")
	ErrMultipleRoots      = errors.New("multiple root elements")
	ErrContentOutsideRoot = errors.New("content outside root element")
	ErrMisplacedDoctype   = errors.New("misplaced DOCTYPE")
	ErrDepthLimit         = errors.New("element depth exceeds MaxDepth")
	ErrPastRoot           = errors.New("navigation past the document node")
	ErrUnsupported        = errors.New("operation needs a saveable lexer")
	ErrInvalidBookmark    = errors.New("invalid bookmark")
	ErrRead               = errors.New("input read failed")
)

var sentinels = [...]error{
	ErrCodeSyntax:             ErrSyntax,
	ErrCodeUnexpectedEOF:      ErrUnexpectedEOF,
	ErrCodeMismatchedEndTag:   ErrMismatchedEndTag,
	ErrCodeInvalidChar:        ErrInvalidChar,
	ErrCodeEncodingMismatch:   ErrEncodingMismatch,
	ErrCodeInvalidDeclaration: ErrInvalidDeclaration,
	ErrCodeMissingRoot:        ErrMissingRoot,
	ErrCodeMultipleRoots:      ErrMultipleRoots,
	ErrCodeContentOutsideRoot: ErrContentOutsideRoot,
	ErrCodeMisplacedDoctype:   ErrMisplacedDoctype,
	ErrCodeDepthLimit:         ErrDepthLimit,
	ErrCodePastRoot:           ErrPastRoot,
	ErrCodeUnsupported:        ErrUnsupported,
	ErrCodeInvalidBookmark:    ErrInvalidBookmark,
	ErrCodeRead:               ErrRead,
}

// Sentinel returns the sentinel error for code, or nil for ErrCodeNone.
func (code ErrorCode) Sentinel() error {
	if int(code) < len(sentinels) {
		return sentinels[code]
	}
	return nil
}

// String returns the sentinel message for code.
func (code ErrorCode) String() string {
	if err := code.Sentinel(); err != nil {
		return err.Error()
	}
	if code == ErrCodeNone {
		return "none"
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(code))
}

// CursorError reports a navigation or well-formedness failure.
type CursorError struct {
	// Err is the underlying cause, such as a *xmlparser.SyntaxError.
	Err      error
	Expected string
	Found    string
	Offset   int64
	Code     ErrorCode
}

// Error formats the cursor error with location and cause.
func (e *CursorError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if xmlparser.IsSyntaxError(e.Err) {
		return e.Err.Error()
	}
	msg := fmt.Sprintf("xml error at offset %d: %s", e.Offset, e.Code)
	switch {
	case e.Expected != "" && e.Found != "":
		msg += fmt.Sprintf(": expected %s, found %q", e.Expected, e.Found)
	case e.Expected != "":
		msg += ": expected " + e.Expected
	case e.Found != "":
		msg += fmt.Sprintf(": %q", e.Found)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *CursorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error code.
func (e *CursorError) Is(target error) bool {
	if e == nil {
		return false
	}
	sentinel := e.Code.Sentinel()
	return sentinel != nil && target == sentinel
}

func newError(code ErrorCode, offset int64, expected string, found []byte) *CursorError {
	if len(found) > 32 {
		found = found[:32]
	}
	return &CursorError{Code: code, Offset: offset, Expected: expected, Found: string(found)}
}
