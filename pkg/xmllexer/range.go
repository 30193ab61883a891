package xmllexer

import (
	"bytes"
	"iter"

	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

const minScratchSize = 64

// RangeLexer scans a sequence of byte chunks. A token that fits in one chunk
// is returned as a view into that chunk; a token crossing chunk boundaries is
// merged into an owned scratch window. Lookahead for TestAndAdvance reaches
// across boundaries the same way, but the lexer cannot rewind.
type RangeLexer struct {
	next   func() ([]byte, bool)
	stop   func()
	window []byte
	base   int64
	pos    int
	begin  int
	owned  bool
	done   bool
}

// NewRangeLexer returns a lexer over the chunks of seq. Call Close when the
// lexer is dropped before seq is exhausted.
func NewRangeLexer(seq iter.Seq[[]byte]) *RangeLexer {
	l := &RangeLexer{}
	l.SetSource(seq)
	return l
}

// SetSource binds a new chunk sequence and resets all state.
func (l *RangeLexer) SetSource(seq iter.Seq[[]byte]) {
	_ = l.Close()
	l.window = nil
	l.base = 0
	l.pos = 0
	l.begin = 0
	l.owned = false
	l.done = seq == nil
	if seq != nil {
		l.next, l.stop = iter.Pull(seq)
	}
}

// Close stops the underlying sequence.
func (l *RangeLexer) Close() error {
	if l.stop != nil {
		l.stop()
		l.stop = nil
		l.next = nil
	}
	l.done = true
	return nil
}

// fill appends the next non-empty chunk to the live window, which starts at
// the token mark. It reports false once the sequence is exhausted.
func (l *RangeLexer) fill() bool {
	if l.done {
		return false
	}
	for {
		chunk, ok := l.next()
		if !ok {
			_ = l.Close()
			return false
		}
		if len(chunk) == 0 {
			continue
		}
		keep := l.window[l.begin:]
		switch {
		case len(keep) == 0:
			l.base += int64(len(l.window))
			l.window = chunk
			l.owned = false
			l.pos = 0
			l.begin = 0
		case l.owned && l.begin <= len(l.window)/2:
			// Appending never touches bytes already handed out.
			l.window = append(l.window, chunk...)
		default:
			merged := make([]byte, 0, max(2*(len(keep)+len(chunk)), minScratchSize))
			merged = append(merged, keep...)
			merged = append(merged, chunk...)
			l.base += int64(l.begin)
			l.pos -= l.begin
			l.begin = 0
			l.window = merged
			l.owned = true
		}
		return true
	}
}

func (l *RangeLexer) Start() {
	l.begin = l.pos
}

func (l *RangeLexer) Empty() bool {
	for l.pos >= len(l.window) {
		if !l.fill() {
			return true
		}
	}
	return false
}

func (l *RangeLexer) Get() []byte {
	return l.window[l.begin:l.pos:l.pos]
}

func (l *RangeLexer) since(abs int64) []byte {
	from := int(abs - l.base)
	return l.window[from:l.pos:l.pos]
}

func (l *RangeLexer) AdvanceUntil(c byte, included bool) ([]byte, error) {
	from := l.Offset()
	for {
		if idx := faststrings.IndexOf(l.window[l.pos:], c); idx >= 0 {
			l.pos += idx
			if included {
				l.pos++
			}
			return l.since(from), nil
		}
		l.pos = len(l.window)
		if !l.fill() {
			return l.since(from), ErrUnexpectedEOF
		}
	}
}

func (l *RangeLexer) AdvanceUntilAny(set []byte, included bool) ([]byte, error) {
	from := l.Offset()
	for {
		if idx := faststrings.IndexOfAny(l.window[l.pos:], set); idx >= 0 {
			l.pos += idx
			if included {
				l.pos++
			}
			return l.since(from), nil
		}
		l.pos = len(l.window)
		if !l.fill() {
			return l.since(from), ErrUnexpectedEOF
		}
	}
}

func (l *RangeLexer) DropWhile(set []byte) {
	if len(set) == 0 {
		return
	}
	for {
		if idx := faststrings.IndexOfNeither(l.window[l.pos:], set); idx >= 0 {
			l.pos += idx
			return
		}
		l.pos = len(l.window)
		if !l.fill() {
			return
		}
	}
}

func (l *RangeLexer) TestAndAdvance(lit []byte) bool {
	for len(l.window)-l.pos < len(lit) {
		if !l.fill() {
			return false
		}
	}
	if !bytes.HasPrefix(l.window[l.pos:], lit) {
		return false
	}
	l.pos += len(lit)
	return true
}

func (l *RangeLexer) Offset() int64 {
	return l.base + int64(l.pos)
}

func (l *RangeLexer) Err() error {
	return nil
}
