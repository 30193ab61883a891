package xmlparser

import (
	"bytes"
	"errors"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
	"github.com/jacoelho/xmlcursor/pkg/faststrings"
)

var (
	tagNameStop  = []byte(" \t\r\n/>")
	attrNameStop = []byte(" \t\r\n=/>")
	xmlTarget    = []byte("xml")
)

func (p *Parser[L]) scanText() (Token, error) {
	body := p.rel(p.lex.Offset())
	// Text may run to the end of input.
	_, _ = p.lex.AdvanceUntil('<', false)
	if err := p.lex.Err(); err != nil {
		return Token{}, p.eofError("")
	}
	tok := p.token(KindText, body, 0)
	if idx := faststrings.IndexOfString(tok.Content, termCDATA); idx >= 0 {
		return Token{}, p.syntaxError(p.start+int64(body+idx), errCDATAEndInText, "", termCDATA)
	}
	return tok, nil
}

func (p *Parser[L]) scanEndTag() (Token, error) {
	body := p.rel(p.lex.Offset())
	if _, err := p.lex.AdvanceUntil('>', true); err != nil {
		return Token{}, p.eofError("'>'")
	}
	tok := p.token(KindElementEnd, body, 1)
	n := xmlchars.NameLen(tok.Content)
	if n == 0 {
		return Token{}, p.syntaxError(p.start+int64(body), ErrInvalidName, "element name", tok.Content)
	}
	if rest := tok.Content[n:]; !xmlchars.IsWhitespaceBytes(rest) {
		return Token{}, p.syntaxError(p.start+int64(body+n), ErrInvalidToken, "'>'", rest)
	}
	return tok, nil
}

func (p *Parser[L]) scanStartTag() (Token, error) {
	l := p.lex
	body := p.rel(l.Offset())
	name, err := l.AdvanceUntilAny(tagNameStop, false)
	if err != nil {
		return Token{}, p.eofError("'>'")
	}
	if !xmlchars.IsName(name) {
		return Token{}, p.syntaxError(p.start+int64(body), ErrInvalidName, "element name", name)
	}
	p.attrs = p.attrs[:0]
	for {
		wsFrom := l.Offset()
		l.DropWhile(xmlchars.Whitespace)
		spaced := l.Offset() > wsFrom
		if l.TestAndAdvance(litGT) {
			return p.token(KindElementStart, body, 1), nil
		}
		if l.TestAndAdvance(litEmptyEnd) {
			return p.token(KindElementEmpty, body, 2), nil
		}
		if l.Empty() {
			return Token{}, p.eofError("'>'")
		}
		if !spaced {
			return Token{}, p.syntaxError(l.Offset(), ErrInvalidToken, "whitespace, '>' or '/>'", nil)
		}
		if err := p.scanAttr(); err != nil {
			return Token{}, err
		}
	}
}

// scanAttr reads name S? = S? quoted-value.
func (p *Parser[L]) scanAttr() error {
	l := p.lex
	at := l.Offset()
	name, err := l.AdvanceUntilAny(attrNameStop, false)
	if err != nil {
		return p.eofError("'='")
	}
	if !xmlchars.IsName(name) {
		return p.syntaxError(at, ErrInvalidName, "attribute name", name)
	}
	for _, seen := range p.attrs {
		if faststrings.Equal(seen, name) {
			return p.syntaxError(at, errDuplicateAttr, "", name)
		}
	}
	p.attrs = append(p.attrs, name)
	l.DropWhile(xmlchars.Whitespace)
	if !l.TestAndAdvance(litEq) {
		if l.Empty() {
			return p.eofError("'='")
		}
		return p.syntaxError(l.Offset(), errInvalidAttr, "'='", nil)
	}
	l.DropWhile(xmlchars.Whitespace)
	var quote byte
	switch {
	case l.TestAndAdvance(litDQuote):
		quote = '"'
	case l.TestAndAdvance(litSQuote):
		quote = '\''
	default:
		if l.Empty() {
			return p.eofError("quoted value")
		}
		return p.syntaxError(l.Offset(), errInvalidAttr, "quoted value", nil)
	}
	valueAt := l.Offset()
	value, err := l.AdvanceUntil(quote, true)
	if err != nil {
		return p.eofError("closing quote")
	}
	if idx := faststrings.IndexOf(value, '<'); idx >= 0 {
		return p.syntaxError(valueAt+int64(idx), errLTInAttrValue, "", name)
	}
	return nil
}

// scanUntil advances until term closes the construct whose body starts at
// index body of the current token. It reports the token length.
func (p *Parser[L]) scanUntil(term []byte, body int, expected string) (int, error) {
	last := term[len(term)-1]
	for {
		if _, err := p.lex.AdvanceUntil(last, true); err != nil {
			return 0, p.eofError(expected)
		}
		raw := p.lex.Get()
		if len(raw)-len(term) >= body && bytes.HasSuffix(raw, term) {
			return len(raw), nil
		}
	}
}

func (p *Parser[L]) scanComment() (Token, error) {
	body := p.rel(p.lex.Offset())
	if _, err := p.scanUntil(termComment, body, "'-->'"); err != nil {
		return Token{}, err
	}
	tok := p.token(KindComment, body, len(termComment))
	if err := p.checkComment(tok.Content, p.start+int64(body)); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser[L]) checkComment(content []byte, at int64) error {
	if idx := faststrings.IndexOfString(content, doubleHyphen); idx >= 0 {
		return p.syntaxError(at+int64(idx), errInvalidComment, "", doubleHyphen)
	}
	if len(content) > 0 && content[len(content)-1] == '-' {
		return p.syntaxError(at+int64(len(content)-1), errInvalidComment, "", content[len(content)-1:])
	}
	return nil
}

func (p *Parser[L]) scanCDATA() (Token, error) {
	body := p.rel(p.lex.Offset())
	if _, err := p.scanUntil(termCDATA, body, "']]>'"); err != nil {
		return Token{}, err
	}
	return p.token(KindCDATA, body, len(termCDATA)), nil
}

// scanPI reads a processing instruction after "<?". Inside a DOCTYPE subset
// nested is set and an XML declaration is never allowed.
func (p *Parser[L]) scanPI(nested bool) (Token, error) {
	body := p.rel(p.lex.Offset())
	if _, err := p.scanUntil(termPI, body, "'?>'"); err != nil {
		return Token{}, err
	}
	tok := p.token(KindPI, body, len(termPI))
	kind, err := p.checkPI(tok.Content, p.start+int64(body), nested)
	if err != nil {
		return Token{}, err
	}
	tok.Kind = kind
	return tok, nil
}

func (p *Parser[L]) checkPI(content []byte, at int64, nested bool) (Kind, error) {
	n := xmlchars.NameLen(content)
	if n == 0 {
		return KindNone, p.syntaxError(at, ErrInvalidName, "processing instruction target", content)
	}
	target := content[:n]
	if n < len(content) && !xmlchars.IsWhitespace(content[n]) {
		return KindNone, p.syntaxError(at+int64(n), errInvalidPI, "whitespace", content[n:])
	}
	switch {
	case bytes.Equal(target, xmlTarget):
		if nested || p.started {
			return KindNone, p.syntaxError(at, errMisplacedXMLDecl, "", target)
		}
		return KindDeclaration, nil
	case bytes.EqualFold(target, xmlTarget):
		return KindNone, p.syntaxError(at, errReservedPITarget, "", target)
	}
	return KindPI, nil
}

// IsSyntaxError reports whether err is a malformed-markup error rather than
// a read failure.
func IsSyntaxError(err error) bool {
	var syntax *SyntaxError
	return errors.As(err, &syntax)
}
