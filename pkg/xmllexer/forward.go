package xmllexer

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

const defaultBufferSize = 32 * 1024

// ForwardLexer scans an io.Reader once without rewinding. The current token
// is accumulated in an arena that is reset by Start; slices handed out for
// earlier tokens stay valid because the arena only ever grows past them.
type ForwardLexer struct {
	r   *bufio.Reader
	own *bufio.Reader
	tok []byte
	off int64
	err error
	eof bool
}

// NewForwardLexer returns a lexer over r. A *bufio.Reader is used directly.
func NewForwardLexer(r io.Reader) *ForwardLexer {
	l := &ForwardLexer{}
	l.SetSource(r)
	return l
}

// SetSource binds a new reader and resets all state.
func (l *ForwardLexer) SetSource(r io.Reader) {
	switch br := r.(type) {
	case nil:
		l.r = nil
	case *bufio.Reader:
		l.r = br
	default:
		if l.own == nil {
			l.own = bufio.NewReaderSize(r, defaultBufferSize)
		} else {
			l.own.Reset(r)
		}
		l.r = l.own
	}
	l.tok = nil
	l.off = 0
	l.err = nil
	l.eof = r == nil
}

// buffered returns the readahead without consuming it, reading more when
// nothing is buffered.
func (l *ForwardLexer) buffered() []byte {
	if l.r == nil {
		return nil
	}
	if l.r.Buffered() == 0 {
		if l.eof || l.err != nil {
			return nil
		}
		if _, err := l.r.Peek(1); err != nil {
			l.setErr(err)
			return nil
		}
	}
	b, _ := l.r.Peek(l.r.Buffered())
	return b
}

func (l *ForwardLexer) setErr(err error) {
	if errors.Is(err, io.EOF) {
		l.eof = true
		return
	}
	if l.err == nil && !errors.Is(err, bufio.ErrBufferFull) {
		l.err = err
	}
}

func (l *ForwardLexer) consume(b []byte, n int) {
	l.tok = append(l.tok, b[:n]...)
	_, _ = l.r.Discard(n)
	l.off += int64(n)
}

func (l *ForwardLexer) Start() {
	l.tok = l.tok[len(l.tok):]
}

func (l *ForwardLexer) Empty() bool {
	return len(l.buffered()) == 0
}

func (l *ForwardLexer) Get() []byte {
	return l.tok[:len(l.tok):len(l.tok)]
}

func (l *ForwardLexer) scanned(from int) []byte {
	return l.tok[from:len(l.tok):len(l.tok)]
}

func (l *ForwardLexer) AdvanceUntil(c byte, included bool) ([]byte, error) {
	from := len(l.tok)
	for {
		b := l.buffered()
		if len(b) == 0 {
			return l.scanned(from), ErrUnexpectedEOF
		}
		if idx := faststrings.IndexOf(b, c); idx >= 0 {
			if included {
				idx++
			}
			l.consume(b, idx)
			return l.scanned(from), nil
		}
		l.consume(b, len(b))
	}
}

func (l *ForwardLexer) AdvanceUntilAny(set []byte, included bool) ([]byte, error) {
	from := len(l.tok)
	for {
		b := l.buffered()
		if len(b) == 0 {
			return l.scanned(from), ErrUnexpectedEOF
		}
		if idx := faststrings.IndexOfAny(b, set); idx >= 0 {
			if included {
				idx++
			}
			l.consume(b, idx)
			return l.scanned(from), nil
		}
		l.consume(b, len(b))
	}
}

func (l *ForwardLexer) DropWhile(set []byte) {
	if len(set) == 0 {
		return
	}
	for {
		b := l.buffered()
		if len(b) == 0 {
			return
		}
		if idx := faststrings.IndexOfNeither(b, set); idx >= 0 {
			l.consume(b, idx)
			return
		}
		l.consume(b, len(b))
	}
}

func (l *ForwardLexer) TestAndAdvance(lit []byte) bool {
	if l.r == nil {
		return len(lit) == 0
	}
	b, err := l.r.Peek(len(lit))
	if err != nil {
		l.setErr(err)
	}
	if !bytes.Equal(b, lit) {
		return false
	}
	l.consume(b, len(b))
	return true
}

func (l *ForwardLexer) Offset() int64 {
	return l.off
}

func (l *ForwardLexer) Err() error {
	return l.err
}
