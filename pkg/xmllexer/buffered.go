package xmllexer

import (
	"bytes"
	"errors"
	"io"
	"slices"

	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

const maxConsecutiveEmptyReads = 100

// BufferedLexer scans an io.Reader and retains input from the oldest live
// mark (or the current token start) onwards, so it can rewind to any saved
// position. When the window grows it moves to a fresh buffer; the previous
// one is left untouched for slices already returned.
type BufferedLexer struct {
	r      io.Reader
	closer io.Closer
	buf    []byte
	base   int64
	pos    int
	begin  int
	saves  []Mark
	gen    uint32
	size   int
	eof    bool
	err    error
}

// NewBufferedLexer returns a saveable lexer over r.
func NewBufferedLexer(r io.Reader) *BufferedLexer {
	l := &BufferedLexer{size: defaultBufferSize}
	l.SetSource(r)
	return l
}

// SetSource binds a new reader and invalidates every mark.
func (l *BufferedLexer) SetSource(r io.Reader) {
	_ = l.Close()
	l.r = r
	l.buf = make([]byte, 0, l.size)
	l.base = 0
	l.pos = 0
	l.begin = 0
	l.saves = l.saves[:0]
	l.gen = nextGeneration()
	l.eof = r == nil
	l.err = nil
}

// Close releases an adapter installed over a chunk sequence.
func (l *BufferedLexer) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// floor is the lowest window index that must be retained.
func (l *BufferedLexer) floor() int {
	low := l.begin
	for _, m := range l.saves {
		if idx := int(m.start - l.base); idx < low {
			low = idx
		}
	}
	return low
}

// fill reads more input into the window. It reports whether new bytes arrived.
func (l *BufferedLexer) fill() bool {
	if l.eof || l.err != nil {
		return false
	}
	if len(l.buf) == cap(l.buf) {
		low := l.floor()
		live := l.buf[low:]
		next := make([]byte, len(live), max(2*len(live), l.size))
		copy(next, live)
		l.base += int64(low)
		l.pos -= low
		l.begin -= low
		l.buf = next
	}
	for range maxConsecutiveEmptyReads {
		n, err := l.r.Read(l.buf[len(l.buf):cap(l.buf)])
		l.buf = l.buf[:len(l.buf)+n]
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.eof = true
			} else {
				l.err = err
			}
			return n > 0
		}
		if n > 0 {
			return true
		}
	}
	l.err = io.ErrNoProgress
	return false
}

func (l *BufferedLexer) Start() {
	l.begin = l.pos
}

func (l *BufferedLexer) Empty() bool {
	for l.pos >= len(l.buf) {
		if !l.fill() {
			return true
		}
	}
	return false
}

func (l *BufferedLexer) Get() []byte {
	return l.buf[l.begin:l.pos:l.pos]
}

func (l *BufferedLexer) since(abs int64) []byte {
	from := int(abs - l.base)
	return l.buf[from:l.pos:l.pos]
}

func (l *BufferedLexer) AdvanceUntil(c byte, included bool) ([]byte, error) {
	from := l.Offset()
	for {
		if idx := faststrings.IndexOf(l.buf[l.pos:], c); idx >= 0 {
			l.pos += idx
			if included {
				l.pos++
			}
			return l.since(from), nil
		}
		l.pos = len(l.buf)
		if !l.fill() {
			return l.since(from), ErrUnexpectedEOF
		}
	}
}

func (l *BufferedLexer) AdvanceUntilAny(set []byte, included bool) ([]byte, error) {
	from := l.Offset()
	for {
		if idx := faststrings.IndexOfAny(l.buf[l.pos:], set); idx >= 0 {
			l.pos += idx
			if included {
				l.pos++
			}
			return l.since(from), nil
		}
		l.pos = len(l.buf)
		if !l.fill() {
			return l.since(from), ErrUnexpectedEOF
		}
	}
}

func (l *BufferedLexer) DropWhile(set []byte) {
	if len(set) == 0 {
		return
	}
	for {
		if idx := faststrings.IndexOfNeither(l.buf[l.pos:], set); idx >= 0 {
			l.pos += idx
			return
		}
		l.pos = len(l.buf)
		if !l.fill() {
			return
		}
	}
}

func (l *BufferedLexer) TestAndAdvance(lit []byte) bool {
	for len(l.buf)-l.pos < len(lit) {
		if !l.fill() {
			return false
		}
	}
	if !bytes.HasPrefix(l.buf[l.pos:], lit) {
		return false
	}
	l.pos += len(lit)
	return true
}

func (l *BufferedLexer) Offset() int64 {
	return l.base + int64(l.pos)
}

func (l *BufferedLexer) Err() error {
	return l.err
}

func (l *BufferedLexer) Save() Mark {
	m := Mark{pos: l.Offset(), start: l.base + int64(l.begin), gen: l.gen}
	l.saves = append(l.saves, m)
	return m
}

func (l *BufferedLexer) Restore(m Mark) error {
	i := slices.Index(l.saves, m)
	if i < 0 || m.gen != l.gen || m.start < l.base {
		return ErrInvalidMark
	}
	l.saves = l.saves[:i+1]
	l.pos = int(m.pos - l.base)
	l.begin = int(m.start - l.base)
	return nil
}

func (l *BufferedLexer) Release(m Mark) {
	if i := slices.Index(l.saves, m); i >= 0 {
		l.saves = slices.Delete(l.saves, i, i+1)
	}
}
