package xmlparser

import (
	"bytes"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
)

var (
	doctypeStop  = []byte(`"'[>`)
	declStop     = []byte(`"'>`)
	sectionStop  = []byte("<]")
	litSubsetEnd = []byte("]")
	litPERef     = []byte("%")
	litSection   = []byte("[")
	litSectionIn = []byte("![")
	litSectionEx = []byte("]>")
	litInclude   = []byte("INCLUDE")
	litIgnore    = []byte("IGNORE")
)

var markupDecls = []struct {
	keyword []byte
	kind    Kind
}{
	{[]byte("ENTITY"), KindEntityDecl},
	{[]byte("ELEMENT"), KindElementDecl},
	{[]byte("ATTLIST"), KindAttlistDecl},
	{[]byte("NOTATION"), KindNotationDecl},
}

// subsetEntry locates a subset token inside the DOCTYPE token. Indexes are
// relative to the DOCTYPE start.
type subsetEntry struct {
	kind     Kind
	from     int
	bodyFrom int
	bodyTo   int
	to       int
}

// scanDoctype reads a DOCTYPE after "<!DOCTYPE", including any internal
// subset, and queues the subset entries behind the DOCTYPE token.
func (p *Parser[L]) scanDoctype() (Token, error) {
	l := p.lex
	wsFrom := l.Offset()
	l.DropWhile(xmlchars.Whitespace)
	if l.Offset() == wsFrom {
		if l.Empty() {
			return Token{}, p.eofError("whitespace")
		}
		return Token{}, p.syntaxError(l.Offset(), errInvalidDoctype, "whitespace after DOCTYPE", nil)
	}
	header := p.rel(l.Offset())
	headerEnd := -1
	var entries []subsetEntry
	for {
		got, err := l.AdvanceUntilAny(doctypeStop, true)
		if err != nil {
			return Token{}, p.eofError("'>'")
		}
		switch c := got[len(got)-1]; c {
		case '"', '\'':
			if _, err := l.AdvanceUntil(c, true); err != nil {
				return Token{}, p.eofError("closing quote")
			}
			continue
		case '[':
			headerEnd = p.rel(l.Offset()) - 1
			entries, err = p.scanSubset()
			if err != nil {
				return Token{}, err
			}
			l.DropWhile(xmlchars.Whitespace)
			if !l.TestAndAdvance(litGT) {
				if l.Empty() {
					return Token{}, p.eofError("'>'")
				}
				return Token{}, p.syntaxError(l.Offset(), errInvalidDoctype, "'>' after internal subset", nil)
			}
		default:
			if headerEnd < 0 {
				headerEnd = p.rel(l.Offset()) - 1
			}
		}
		break
	}
	raw := l.Get()
	tok := Token{
		Kind:    KindDoctype,
		Content: xmlchars.TrimSpace(raw[header:headerEnd]),
		Raw:     raw,
		Offset:  p.start,
	}
	if !xmlchars.IsName(firstField(tok.Content)) {
		return Token{}, p.syntaxError(p.start+int64(header), ErrInvalidName, "document type name", tok.Content)
	}
	if len(entries) > 0 {
		queue := make([]Token, 0, len(entries))
		for _, e := range entries {
			queue = append(queue, Token{
				Kind:    e.kind,
				Content: raw[e.bodyFrom:e.bodyTo:e.bodyTo],
				Raw:     raw[e.from:e.to:e.to],
				Offset:  p.start + int64(e.from),
				Nested:  true,
			})
		}
		p.queue = queue
		p.qpos = 0
	}
	return tok, nil
}

// firstField returns data up to the first whitespace byte.
func firstField(data []byte) []byte {
	for i, b := range data {
		if xmlchars.IsWhitespace(b) {
			return data[:i]
		}
	}
	return data
}

func leadingSpace(data []byte) int {
	n := 0
	for n < len(data) && xmlchars.IsWhitespace(data[n]) {
		n++
	}
	return n
}

// scanSubset reads the internal subset after '[' up to and including the
// closing ']'.
func (p *Parser[L]) scanSubset() ([]subsetEntry, error) {
	l := p.lex
	var entries []subsetEntry
	for {
		sepFrom := p.rel(l.Offset())
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
		if sepTo := p.rel(l.Offset()); sepTo > sepFrom {
			entries = append(entries, subsetEntry{kind: KindText, from: sepFrom, bodyFrom: sepFrom, bodyTo: sepTo, to: sepTo})
		}
		if l.TestAndAdvance(litSubsetEnd) {
			return entries, nil
		}
		from := p.rel(l.Offset())
		if !l.TestAndAdvance(litLT) {
			if l.Empty() {
				return nil, p.eofError("']'")
			}
			return nil, p.syntaxError(l.Offset(), errInvalidSubset, "markup declaration or ']'", nil)
		}
		var (
			entry subsetEntry
			err   error
		)
		switch {
		case l.TestAndAdvance(litPI):
			entry, err = p.scanSubsetPI(from)
		case l.TestAndAdvance(litBang):
			entry, err = p.scanSubsetDecl(from)
		default:
			return nil, p.syntaxError(l.Offset(), errInvalidSubset, "markup declaration", nil)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// skipSeparators consumes whitespace and parameter-entity references.
func (p *Parser[L]) skipSeparators() error {
	l := p.lex
	for {
		l.DropWhile(xmlchars.Whitespace)
		if !l.TestAndAdvance(litPERef) {
			return nil
		}
		at := l.Offset()
		name, err := l.AdvanceUntil(';', true)
		if err != nil {
			return p.eofError("';'")
		}
		if !xmlchars.IsName(name[:len(name)-1]) {
			return p.syntaxError(at, ErrInvalidName, "parameter entity name", name)
		}
	}
}

func (p *Parser[L]) scanSubsetPI(from int) (subsetEntry, error) {
	body := p.rel(p.lex.Offset())
	to, err := p.scanUntil(termPI, body, "'?>'")
	if err != nil {
		return subsetEntry{}, err
	}
	raw := p.lex.Get()
	if _, err := p.checkPI(raw[body:to-len(termPI)], p.start+int64(body), true); err != nil {
		return subsetEntry{}, err
	}
	return subsetEntry{kind: KindPI, from: from, bodyFrom: body, bodyTo: to - len(termPI), to: to}, nil
}

// scanSubsetDecl reads a comment, conditional section or markup declaration
// after "<!".
func (p *Parser[L]) scanSubsetDecl(from int) (subsetEntry, error) {
	l := p.lex
	if l.TestAndAdvance(litComment) {
		body := p.rel(l.Offset())
		to, err := p.scanUntil(termComment, body, "'-->'")
		if err != nil {
			return subsetEntry{}, err
		}
		raw := l.Get()
		if err := p.checkComment(raw[body:to-len(termComment)], p.start+int64(body)); err != nil {
			return subsetEntry{}, err
		}
		return subsetEntry{kind: KindComment, from: from, bodyFrom: body, bodyTo: to - len(termComment), to: to}, nil
	}
	if l.TestAndAdvance(litSection) {
		return p.scanConditional(from)
	}
	for _, decl := range markupDecls {
		if !l.TestAndAdvance(decl.keyword) {
			continue
		}
		wsFrom := l.Offset()
		l.DropWhile(xmlchars.Whitespace)
		if l.Offset() == wsFrom {
			if l.Empty() {
				return subsetEntry{}, p.eofError("whitespace")
			}
			return subsetEntry{}, p.syntaxError(l.Offset(), errInvalidSubset, "whitespace after declaration keyword", nil)
		}
		body := p.rel(l.Offset())
		for {
			got, err := l.AdvanceUntilAny(declStop, true)
			if err != nil {
				return subsetEntry{}, p.eofError("'>'")
			}
			if c := got[len(got)-1]; c != '>' {
				if _, err := l.AdvanceUntil(c, true); err != nil {
					return subsetEntry{}, p.eofError("closing quote")
				}
				continue
			}
			break
		}
		to := p.rel(l.Offset())
		raw := l.Get()
		content := xmlchars.TrimSpace(raw[body : to-1])
		if len(content) == 0 {
			return subsetEntry{}, p.syntaxError(p.start+int64(body), errInvalidSubset, "declaration body", nil)
		}
		bodyFrom := body + leadingSpace(raw[body:to-1])
		return subsetEntry{kind: decl.kind, from: from, bodyFrom: bodyFrom, bodyTo: bodyFrom + len(content), to: to}, nil
	}
	if l.Empty() {
		return subsetEntry{}, p.eofError("markup declaration")
	}
	return subsetEntry{}, p.syntaxError(l.Offset(), errInvalidSubset, "markup declaration", nil)
}

// scanConditional reads a conditional section after "<![", honouring nested
// sections.
func (p *Parser[L]) scanConditional(from int) (subsetEntry, error) {
	l := p.lex
	body := p.rel(l.Offset())
	depth := 1
	for depth > 0 {
		got, err := l.AdvanceUntilAny(sectionStop, true)
		if err != nil {
			return subsetEntry{}, p.eofError("']]>'")
		}
		if got[len(got)-1] == '<' {
			if l.TestAndAdvance(litSectionIn) {
				depth++
			}
			continue
		}
		if l.TestAndAdvance(litSectionEx) {
			depth--
		}
	}
	to := p.rel(l.Offset())
	raw := l.Get()
	inner := raw[body : to-len(termCDATA)]
	open := bytes.IndexByte(inner, '[')
	if open < 0 {
		return subsetEntry{}, p.syntaxError(p.start+int64(body), errInvalidSubset, "'[' after section keyword", nil)
	}
	keyword := xmlchars.TrimSpace(inner[:open])
	if !bytes.Equal(keyword, litInclude) && !bytes.Equal(keyword, litIgnore) && (len(keyword) == 0 || keyword[0] != '%') {
		return subsetEntry{}, p.syntaxError(p.start+int64(body), errInvalidSubset, "INCLUDE or IGNORE", keyword)
	}
	return subsetEntry{kind: KindConditional, from: from, bodyFrom: body, bodyTo: to - len(termCDATA), to: to}, nil
}
