package xmllexer

import (
	"bytes"
	"slices"

	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

// SliceLexer scans a contiguous buffer. Returned slices are views into it.
type SliceLexer struct {
	input []byte
	pos   int
	begin int
	saves []Mark
	gen   uint32
}

// NewSliceLexer returns a lexer over input.
func NewSliceLexer(input []byte) *SliceLexer {
	l := &SliceLexer{}
	l.SetSource(input)
	return l
}

// SetSource binds a new input and resets position and marks.
func (l *SliceLexer) SetSource(input []byte) {
	l.input = input
	l.pos = 0
	l.begin = 0
	l.saves = l.saves[:0]
	l.gen = nextGeneration()
}

func (l *SliceLexer) Start() {
	l.begin = l.pos
}

func (l *SliceLexer) Empty() bool {
	return l.pos >= len(l.input)
}

func (l *SliceLexer) Get() []byte {
	return l.input[l.begin:l.pos:l.pos]
}

func (l *SliceLexer) AdvanceUntil(c byte, included bool) ([]byte, error) {
	return l.advance(faststrings.IndexOf(l.input[l.pos:], c), included)
}

func (l *SliceLexer) AdvanceUntilAny(set []byte, included bool) ([]byte, error) {
	return l.advance(faststrings.IndexOfAny(l.input[l.pos:], set), included)
}

func (l *SliceLexer) advance(idx int, included bool) ([]byte, error) {
	from := l.pos
	if idx < 0 {
		l.pos = len(l.input)
		return l.input[from:l.pos:l.pos], ErrUnexpectedEOF
	}
	l.pos += idx
	if included {
		l.pos++
	}
	return l.input[from:l.pos:l.pos], nil
}

func (l *SliceLexer) DropWhile(set []byte) {
	if len(set) == 0 {
		return
	}
	idx := faststrings.IndexOfNeither(l.input[l.pos:], set)
	if idx < 0 {
		l.pos = len(l.input)
		return
	}
	l.pos += idx
}

func (l *SliceLexer) TestAndAdvance(lit []byte) bool {
	if !bytes.HasPrefix(l.input[l.pos:], lit) {
		return false
	}
	l.pos += len(lit)
	return true
}

func (l *SliceLexer) Offset() int64 {
	return int64(l.pos)
}

func (l *SliceLexer) Err() error {
	return nil
}

func (l *SliceLexer) Save() Mark {
	m := Mark{pos: int64(l.pos), start: int64(l.begin), gen: l.gen}
	l.saves = append(l.saves, m)
	return m
}

func (l *SliceLexer) Restore(m Mark) error {
	i := slices.Index(l.saves, m)
	if i < 0 || m.gen != l.gen {
		return ErrInvalidMark
	}
	l.saves = l.saves[:i+1]
	l.pos = int(m.pos)
	l.begin = int(m.start)
	return nil
}

// Release drops m. The input stays addressable; only the mark is forgotten.
func (l *SliceLexer) Release(m Mark) {
	if i := slices.Index(l.saves, m); i >= 0 {
		l.saves = slices.Delete(l.saves, i, i+1)
	}
}
