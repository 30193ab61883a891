// Package xmllexer implements the input scanners the XML parser is built on.
//
// Every variant satisfies Lexer; variants able to rewind also satisfy
// SaveableLexer. They differ only in the input model they scan:
//
//   - SliceLexer scans a contiguous []byte and returns views into it.
//   - RangeLexer scans a sequence of byte chunks.
//   - ForwardLexer scans an io.Reader once.
//   - BufferedLexer scans an io.Reader and keeps enough of it to rewind.
//
// Slices returned by a lexer are never written to again by that lexer. Views
// returned by SliceLexer (and by RangeLexer while a token fits in one chunk)
// borrow the caller's memory and must not outlive it.
package xmllexer

import (
	"errors"
	"io"
	"sync/atomic"
)

var (
	// ErrUnexpectedEOF reports that input ended before a required terminator.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrInvalidMark reports a restore to a mark that was never saved on this
	// source or has been invalidated by a later restore, release or reset.
	ErrInvalidMark = errors.New("invalid lexer mark")
)

// generations numbers every bound source across all lexers, so a mark is
// only ever valid on the source it was saved from.
var generations atomic.Uint32

func nextGeneration() uint32 {
	for {
		if g := generations.Add(1); g != 0 {
			return g
		}
	}
}

// Lexer scans raw input into byte spans under caller control.
type Lexer interface {
	// Start marks the current position as the beginning of a token.
	Start()
	// Empty reports whether no input remains.
	Empty() bool
	// Get returns the bytes between the last Start and the current position.
	Get() []byte
	// AdvanceUntil moves past input until c is found, consuming c when
	// included is set. It returns the bytes scanned by this call. When c never
	// appears it stops at end of input and returns ErrUnexpectedEOF.
	AdvanceUntil(c byte, included bool) ([]byte, error)
	// AdvanceUntilAny is AdvanceUntil stopping at the first byte in set.
	AdvanceUntilAny(set []byte, included bool) ([]byte, error)
	// DropWhile skips bytes that belong to set.
	DropWhile(set []byte)
	// TestAndAdvance consumes lit and returns true if the input continues
	// with it; otherwise the position is left unchanged.
	TestAndAdvance(lit []byte) bool
	// Offset returns the absolute byte offset of the current position.
	Offset() int64
	// Err returns the first read error other than end of input.
	Err() error
}

// SaveableLexer is a Lexer that can return to earlier positions.
type SaveableLexer interface {
	Lexer
	// Save captures the current position and token start.
	Save() Mark
	// Restore returns to m. Saves taken after m are invalidated; m stays valid.
	Restore(m Mark) error
	// Release drops m so buffered input before it may be discarded.
	Release(m Mark)
}

// Mark is a saved lexer position. The zero Mark is never valid.
type Mark struct {
	pos   int64
	start int64
	gen   uint32
}

// Offset returns the absolute input offset the mark points at.
func (m Mark) Offset() int64 {
	return m.pos
}

// Close releases resources held by l, such as the puller of a chunk
// sequence. It never closes the caller's input.
func Close(l Lexer) error {
	if c, ok := l.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
