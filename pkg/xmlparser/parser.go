// Package xmlparser turns lexer output into a forward-only stream of XML
// tokens, checking well-formedness of every construct as it is scanned.
//
// The parser is lexical: it does not match end tags against start tags and
// does not track the document root. Those checks belong to the cursor.
package xmlparser

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
)

// ErrNotSaveable reports Save or Restore on a parser whose lexer cannot rewind.
var ErrNotSaveable = errors.New("lexer cannot save positions")

var (
	litLT        = []byte("<")
	litGT        = []byte(">")
	litSlash     = []byte("/")
	litEmptyEnd  = []byte("/>")
	litPI        = []byte("?")
	litBang      = []byte("!")
	litComment   = []byte("--")
	litCDATA     = []byte("[CDATA[")
	litDoctype   = []byte("DOCTYPE")
	litEq        = []byte("=")
	litDQuote    = []byte(`"`)
	litSQuote    = []byte("'")
	litBOM       = []byte("\xEF\xBB\xBF")
	termPI       = []byte("?>")
	termComment  = []byte("-->")
	termCDATA    = []byte("]]>")
	doubleHyphen = []byte("--")
)

// Parser produces tokens from a lexer of type L.
type Parser[L xmllexer.Lexer] struct {
	lex      L
	saver    xmllexer.SaveableLexer
	err      error
	queue    []Token
	attrs    [][]byte
	front    Token
	start    int64
	qpos     int
	hasFront bool
	started  bool
}

// Mark is a saved parser position.
type Mark struct {
	lex      xmllexer.Mark
	queue    []Token
	front    Token
	qpos     int
	hasFront bool
	started  bool
	valid    bool
}

// Offset returns the input offset of the next token after the mark.
func (m Mark) Offset() int64 {
	if m.hasFront {
		return m.front.Offset
	}
	if m.qpos < len(m.queue) {
		return m.queue[m.qpos].Offset
	}
	return m.lex.Offset()
}

// New returns a parser reading from l.
func New[L xmllexer.Lexer](l L) *Parser[L] {
	p := &Parser[L]{}
	p.Reset(l)
	return p
}

// Reset rebinds the parser to l and clears all state.
func (p *Parser[L]) Reset(l L) {
	p.lex = l
	p.saver, _ = any(l).(xmllexer.SaveableLexer)
	p.err = nil
	p.queue = nil
	p.qpos = 0
	p.front = Token{}
	p.hasFront = false
	p.started = false
}

// Lexer returns the lexer the parser reads from.
func (p *Parser[L]) Lexer() L {
	return p.lex
}

// CanSave reports whether the lexer supports Save and Restore.
func (p *Parser[L]) CanSave() bool {
	return p.saver != nil
}

// Empty reports whether no tokens remain. It also returns true after an error.
func (p *Parser[L]) Empty() bool {
	return !p.fill()
}

// Front returns the next token without consuming it. It returns the zero
// Token when the parser is empty.
func (p *Parser[L]) Front() Token {
	if !p.fill() {
		return Token{}
	}
	return p.front
}

// PopFront consumes the next token.
func (p *Parser[L]) PopFront() {
	if p.fill() {
		p.hasFront = false
	}
}

// Err returns the error that stopped the parser, if any.
func (p *Parser[L]) Err() error {
	return p.err
}

// Offset returns the input offset of the next unread token.
func (p *Parser[L]) Offset() int64 {
	if p.hasFront {
		return p.front.Offset
	}
	if p.qpos < len(p.queue) {
		return p.queue[p.qpos].Offset
	}
	return p.lex.Offset()
}

// Next consumes and returns the next token. It returns io.EOF at the end of
// input and the sticky error after a failure.
func (p *Parser[L]) Next() (Token, error) {
	if !p.fill() {
		if p.err != nil {
			return Token{}, p.err
		}
		return Token{}, io.EOF
	}
	p.hasFront = false
	return p.front, nil
}

// All returns the remaining tokens as a sequence. A failure is yielded once
// as the final pair.
func (p *Parser[L]) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := p.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// Save captures the parser position. It reports false when the lexer
// cannot rewind.
func (p *Parser[L]) Save() (Mark, bool) {
	if p.saver == nil {
		return Mark{}, false
	}
	return Mark{
		lex:      p.saver.Save(),
		queue:    p.queue,
		qpos:     p.qpos,
		front:    p.front,
		hasFront: p.hasFront,
		started:  p.started,
		valid:    true,
	}, true
}

// Restore returns the parser to m. A parser that failed stays failed.
func (p *Parser[L]) Restore(m Mark) error {
	if p.saver == nil {
		return ErrNotSaveable
	}
	if p.err != nil {
		return p.err
	}
	if !m.valid {
		return xmllexer.ErrInvalidMark
	}
	if err := p.saver.Restore(m.lex); err != nil {
		return err
	}
	p.queue = m.queue
	p.qpos = m.qpos
	p.front = m.front
	p.hasFront = m.hasFront
	p.started = m.started
	return nil
}

// Release drops m so the lexer may discard input before it.
func (p *Parser[L]) Release(m Mark) {
	if p.saver != nil && m.valid {
		p.saver.Release(m.lex)
	}
}

func (p *Parser[L]) fill() bool {
	if p.hasFront {
		return true
	}
	if p.err != nil {
		return false
	}
	if p.qpos < len(p.queue) {
		p.front = p.queue[p.qpos]
		p.qpos++
		p.hasFront = true
		return true
	}
	// Saved marks may still reference the drained queue.
	p.queue = nil
	p.qpos = 0
	if p.lex.Empty() {
		if err := p.lex.Err(); err != nil {
			p.err = fmt.Errorf("read input: %w", err)
		}
		return false
	}
	tok, err := p.scan()
	if err != nil {
		p.err = err
		return false
	}
	p.front = tok
	p.hasFront = true
	p.started = true
	return true
}

// scan reads one construct. The lexer is positioned at its first byte.
func (p *Parser[L]) scan() (Token, error) {
	l := p.lex
	l.Start()
	p.start = l.Offset()
	if p.start == 0 && l.TestAndAdvance(litBOM) && l.Empty() {
		if err := l.Err(); err != nil {
			return Token{}, fmt.Errorf("read input: %w", err)
		}
		return p.token(KindText, p.rel(l.Offset()), 0), nil
	}
	if !l.TestAndAdvance(litLT) {
		return p.scanText()
	}
	switch {
	case l.TestAndAdvance(litSlash):
		return p.scanEndTag()
	case l.TestAndAdvance(litPI):
		return p.scanPI(false)
	case l.TestAndAdvance(litBang):
		switch {
		case l.TestAndAdvance(litComment):
			return p.scanComment()
		case l.TestAndAdvance(litCDATA):
			return p.scanCDATA()
		case l.TestAndAdvance(litDoctype):
			return p.scanDoctype()
		}
		if l.Empty() {
			return Token{}, p.eofError("markup declaration")
		}
		return Token{}, p.syntaxError(l.Offset(), ErrInvalidToken, "comment, CDATA section or DOCTYPE", nil)
	default:
		return p.scanStartTag()
	}
}

// rel converts an absolute offset to an index into the current token.
func (p *Parser[L]) rel(abs int64) int {
	return int(abs - p.start)
}

// token builds a token from the bytes scanned since Start. Content is
// Raw[from:len(Raw)-trim].
func (p *Parser[L]) token(kind Kind, from, trim int) Token {
	raw := p.lex.Get()
	return Token{
		Kind:    kind,
		Content: raw[from : len(raw)-trim : len(raw)-trim],
		Raw:     raw,
		Offset:  p.start,
	}
}

func (p *Parser[L]) syntaxError(at int64, err error, expected string, found []byte) error {
	if len(found) > 32 {
		found = found[:32]
	}
	return &SyntaxError{Offset: at, Err: err, Expected: expected, Found: string(found)}
}

// eofError reports input ending inside the current token, or the read error
// that ended it.
func (p *Parser[L]) eofError(expected string) error {
	if err := p.lex.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return &SyntaxError{Offset: p.lex.Offset(), Err: ErrUnexpectedEOF, Expected: expected}
}
