// Package xmlcursor navigates an XML document node by node on top of the
// token parser and enforces the document-level rules the parser leaves out:
// matching end tags, a single root element, prolog placement and character
// validity.
//
// A cursor starts on the document node. EnterChild descends and NextSibling
// moves across; when NextSibling reports false the cursor stays on the last
// child and the parent's content has been consumed. ExitToParent rewinds to
// the parent when the lexer can save positions, and Up moves to the parent
// without rewinding on any lexer.
package xmlcursor

import (
	"errors"
	"slices"

	"github.com/jacoelho/xmlcursor/internal/xmlchars"
	"github.com/jacoelho/xmlcursor/internal/xmllex"
	"github.com/jacoelho/xmlcursor/pkg/faststrings"
	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
	"github.com/jacoelho/xmlcursor/pkg/xmlparser"
)

type node struct {
	tok    xmlparser.Token
	name   []byte
	mark   xmlparser.Mark
	doc    xmllex.DocumentState
	kind   xmlparser.Kind
	marked bool
	// done is set once no unread content of the node remains.
	done bool
}

// Cursor walks the nodes of one document parsed from a lexer of type L.
type Cursor[L xmllexer.Lexer] struct {
	p         *xmlparser.Parser[L]
	err       error
	stack     []node
	decl      []Attribute
	attrs     []Attribute
	cur       node
	opts      cursorOptions
	bookmarks int
	doc       xmllex.DocumentState
	attrsSet  bool
}

// Bookmark is a saved cursor position.
type Bookmark struct {
	mark  xmlparser.Mark
	stack []node
	cur   node
	doc   xmllex.DocumentState
	valid bool
}

// New returns a cursor on the document node of the input scanned by l.
// An XML declaration is consumed immediately and exposed as the document's
// attributes.
func New[L xmllexer.Lexer](l L, opts ...Options) *Cursor[L] {
	c := &Cursor[L]{p: xmlparser.New(l)}
	c.reset(opts)
	return c
}

// Reset rebinds the cursor to l and returns it to the document node.
func (c *Cursor[L]) Reset(l L, opts ...Options) {
	c.p.Reset(l)
	c.reset(opts)
}

func (c *Cursor[L]) reset(opts []Options) {
	c.opts = resolveOptions(JoinOptions(opts...))
	c.err = nil
	c.stack = nil
	c.decl = nil
	c.attrs = nil
	c.attrsSet = false
	c.bookmarks = 0
	c.doc = xmllex.NewDocumentState()
	c.readDeclaration()
	c.cur = c.arrive(xmlparser.Token{Kind: xmlparser.KindDocument})
}

func (c *Cursor[L]) readDeclaration() {
	if c.p.Empty() {
		if err := c.p.Err(); err != nil {
			c.fail(parserError(err, c.p.Offset()))
		}
		return
	}
	tok := c.p.Front()
	if tok.Kind != xmlparser.KindDeclaration {
		return
	}
	c.p.PopFront()
	c.acceptDeclaration(tok)
}

func (c *Cursor[L]) acceptDeclaration(tok xmlparser.Token) bool {
	if !c.doc.DeclarationAllowed() {
		return c.fail(newError(ErrCodeInvalidDeclaration, tok.Offset, "declaration at document start", tok.Raw))
	}
	if !c.checkChars(tok) {
		return false
	}
	attrs, err := c.checkDeclaration(tok)
	if err != nil {
		var cerr *CursorError
		if errors.As(err, &cerr) {
			return c.fail(cerr)
		}
		return false
	}
	c.decl = attrs
	c.doc.OnDeclaration()
	return true
}

// CanSave reports whether Save, Restore and ExitToParent are available.
func (c *Cursor[L]) CanSave() bool {
	return c.p.CanSave()
}

// Err returns the error that stopped the cursor, if any. Errors are
// terminal: every navigation call fails afterwards.
func (c *Cursor[L]) Err() error {
	return c.err
}

// Kind returns the kind of the current node.
func (c *Cursor[L]) Kind() xmlparser.Kind {
	return c.cur.kind
}

// Name returns the name of the current node: the tag name of elements, the
// target of processing instructions, the root name of a DOCTYPE and the
// declared name of subset declarations. Other nodes have no name.
func (c *Cursor[L]) Name() []byte {
	return c.cur.name
}

// Content returns the undecoded content of the current node's token.
func (c *Cursor[L]) Content() []byte {
	return c.cur.tok.Content
}

// Token returns the token the current node was read from. The document
// node has a zero token of kind KindDocument.
func (c *Cursor[L]) Token() xmlparser.Token {
	return c.cur.tok
}

// Offset returns the input offset of the current node.
func (c *Cursor[L]) Offset() int64 {
	return c.cur.tok.Offset
}

// Depth returns the number of ancestors of the current node.
func (c *Cursor[L]) Depth() int {
	return len(c.stack)
}

// CurrentAttributes returns the attributes of the current element, or the
// pseudo-attributes of the XML declaration on the document node.
func (c *Cursor[L]) CurrentAttributes() Attributes {
	if !c.attrsSet {
		c.attrs = nil
		switch c.cur.kind {
		case xmlparser.KindDocument:
			c.attrs = c.decl
		case xmlparser.KindElementStart, xmlparser.KindElementEmpty:
			// The parser already rejected malformed and duplicate attributes.
			c.attrs, _ = parseAttributes(c.cur.tok.Content[len(c.cur.name):], nil)
		}
		c.attrsSet = true
	}
	return Attributes{list: c.attrs}
}

// EnterChild moves to the first child of the current node. It reports false
// when the node has no children; the node's content is then fully consumed.
func (c *Cursor[L]) EnterChild() bool {
	if c.err != nil {
		return false
	}
	tok, ok := c.nextChild(&c.cur, len(c.stack))
	if !ok {
		return false
	}
	c.stack = append(c.stack, c.cur)
	c.cur = c.arrive(tok)
	return true
}

// NextSibling skips the rest of the current node and moves to its next
// sibling. At the end of the parent's content it reports false and leaves
// the cursor on the last child. The document node has no siblings.
func (c *Cursor[L]) NextSibling() bool {
	if c.err != nil || len(c.stack) == 0 {
		return false
	}
	if !c.finish(&c.cur, len(c.stack)) {
		return false
	}
	level := len(c.stack) - 1
	tok, ok := c.nextChild(&c.stack[level], level)
	if !ok {
		return false
	}
	c.leave(c.cur)
	c.cur = c.arrive(tok)
	return true
}

// Up consumes the rest of the parent's content and moves to the parent. It
// works on every lexer and reports false on the document node.
func (c *Cursor[L]) Up() bool {
	if c.err != nil || len(c.stack) == 0 {
		return false
	}
	level := len(c.stack) - 1
	if !c.finish(&c.cur, level+1) || !c.finish(&c.stack[level], level) {
		return false
	}
	c.leave(c.cur)
	c.cur = c.stack[level]
	c.stack = c.stack[:level]
	c.attrsSet = false
	return true
}

// ExitToParent rewinds to the parent of the current node as it was when
// first reached, so its children can be walked again. It needs a saveable
// lexer and fails on the document node.
func (c *Cursor[L]) ExitToParent() bool {
	if c.err != nil {
		return false
	}
	if !c.p.CanSave() {
		return c.fail(newError(ErrCodeUnsupported, c.cur.tok.Offset, "saveable lexer", nil))
	}
	if len(c.stack) == 0 {
		return c.fail(newError(ErrCodePastRoot, c.cur.tok.Offset, "", nil))
	}
	parent := c.stack[len(c.stack)-1]
	if !parent.marked {
		return c.fail(newError(ErrCodeInvalidBookmark, parent.tok.Offset, "", parent.name))
	}
	c.leave(c.cur)
	if err := c.p.Restore(parent.mark); err != nil {
		return c.fail(&CursorError{Code: ErrCodeInvalidBookmark, Offset: parent.tok.Offset, Err: err})
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.cur = parent
	c.cur.done = false
	c.doc = parent.doc
	c.attrsSet = false
	return true
}

// Save captures the cursor position. It reports false when the lexer cannot
// save positions or the cursor has failed. While bookmarks are outstanding
// the cursor keeps every node position it passes buffered.
func (c *Cursor[L]) Save() (Bookmark, bool) {
	if c.err != nil {
		return Bookmark{}, false
	}
	m, ok := c.p.Save()
	if !ok {
		return Bookmark{}, false
	}
	c.bookmarks++
	return Bookmark{mark: m, stack: slices.Clone(c.stack), cur: c.cur, doc: c.doc, valid: true}, true
}

// Restore returns to b. Bookmarks taken after a position the cursor has
// since rewound past are no longer valid.
func (c *Cursor[L]) Restore(b Bookmark) bool {
	if c.err != nil {
		return false
	}
	if !c.p.CanSave() {
		return c.fail(newError(ErrCodeUnsupported, c.cur.tok.Offset, "saveable lexer", nil))
	}
	if !b.valid {
		return c.fail(newError(ErrCodeInvalidBookmark, c.cur.tok.Offset, "", nil))
	}
	if err := c.p.Restore(b.mark); err != nil {
		return c.fail(&CursorError{Code: ErrCodeInvalidBookmark, Offset: b.mark.Offset(), Err: err})
	}
	c.stack = append(c.stack[:0], b.stack...)
	c.cur = b.cur
	c.doc = b.doc
	c.attrsSet = false
	return true
}

// Release drops b so the lexer may discard input before it.
func (c *Cursor[L]) Release(b Bookmark) {
	if !b.valid {
		return
	}
	c.p.Release(b.mark)
	if c.bookmarks > 0 {
		c.bookmarks--
	}
}

// Skip consumes the rest of the document, checking it, and leaves the
// cursor on the document node.
func (c *Cursor[L]) Skip() error {
	for c.err == nil && len(c.stack) > 0 {
		c.Up()
	}
	if c.err == nil {
		c.finish(&c.cur, 0)
	}
	return c.err
}

func (c *Cursor[L]) fail(err *CursorError) bool {
	if c.err == nil {
		c.err = err
	}
	return false
}

// arrive builds the node for tok. Containers remember the parser position
// after their start token so ExitToParent can return to it.
func (c *Cursor[L]) arrive(tok xmlparser.Token) node {
	n := node{tok: tok, kind: tok.Kind, name: nodeName(tok), doc: c.doc}
	switch tok.Kind {
	case xmlparser.KindDocument, xmlparser.KindElementStart, xmlparser.KindDoctype:
		n.mark, n.marked = c.p.Save()
	default:
		n.done = true
	}
	c.attrsSet = false
	return n
}

func (c *Cursor[L]) leave(n node) {
	if n.marked && c.bookmarks == 0 {
		c.p.Release(n.mark)
	}
}

// finish consumes the unread content of n, which sits at level.
func (c *Cursor[L]) finish(n *node, level int) bool {
	for !n.done {
		tok, ok := c.nextChild(n, level)
		if !ok {
			return c.err == nil
		}
		if tok.Kind == xmlparser.KindElementStart || tok.Kind == xmlparser.KindDoctype {
			child := node{tok: tok, kind: tok.Kind, name: nodeName(tok)}
			if !c.finish(&child, level+1) {
				return false
			}
		}
	}
	return true
}

// nextChild consumes and returns the next child of parent, which sits at
// level. At the end of the parent's content it consumes the closing tag,
// marks the parent done and reports false.
func (c *Cursor[L]) nextChild(parent *node, level int) (xmlparser.Token, bool) {
	if parent.done {
		return xmlparser.Token{}, false
	}
	if c.p.Empty() {
		if err := c.p.Err(); err != nil {
			return xmlparser.Token{}, c.fail(parserError(err, c.p.Offset()))
		}
		switch parent.kind {
		case xmlparser.KindDocument:
			if !c.doc.RootSeen() {
				return xmlparser.Token{}, c.fail(newError(ErrCodeMissingRoot, c.p.Offset(), "root element", nil))
			}
		case xmlparser.KindElementStart:
			return xmlparser.Token{}, c.fail(newError(ErrCodeUnexpectedEOF, c.p.Offset(), "</"+string(parent.name)+">", nil))
		}
		parent.done = true
		return xmlparser.Token{}, false
	}
	tok := c.p.Front()
	switch {
	case parent.kind == xmlparser.KindDoctype && !tok.Nested:
		parent.done = true
		return xmlparser.Token{}, false
	case parent.kind == xmlparser.KindElementStart && tok.Kind == xmlparser.KindElementEnd:
		c.p.PopFront()
		if !c.checkChars(tok) {
			return xmlparser.Token{}, false
		}
		if name := nodeName(tok); !faststrings.Equal(name, parent.name) {
			return xmlparser.Token{}, c.fail(newError(ErrCodeMismatchedEndTag, tok.Offset, "</"+string(parent.name)+">", name))
		}
		if level == 1 {
			c.doc.OnEndElement(true)
		}
		parent.done = true
		return xmlparser.Token{}, false
	}
	c.p.PopFront()
	if !c.accept(tok, level) {
		return xmlparser.Token{}, false
	}
	return tok, true
}

// accept checks tok as a child of a node at level.
func (c *Cursor[L]) accept(tok xmlparser.Token, level int) bool {
	if !c.checkChars(tok) {
		return false
	}
	switch tok.Kind {
	case xmlparser.KindElementStart, xmlparser.KindElementEmpty:
		if c.opts.maxDepth > 0 && level+1 > c.opts.maxDepth {
			return c.fail(newError(ErrCodeDepthLimit, tok.Offset, "", nodeName(tok)))
		}
		if level == 0 {
			if !c.doc.StartElementAllowed() {
				return c.fail(newError(ErrCodeMultipleRoots, tok.Offset, "", nodeName(tok)))
			}
			c.doc.OnStartElement()
			if tok.Kind == xmlparser.KindElementEmpty {
				c.doc.OnEndElement(true)
			}
		}
	case xmlparser.KindElementEnd:
		return c.fail(newError(ErrCodeMismatchedEndTag, tok.Offset, "", nodeName(tok)))
	case xmlparser.KindDeclaration:
		return c.acceptDeclaration(tok)
	case xmlparser.KindDoctype:
		if level != 0 || !c.doc.DoctypeAllowed() {
			return c.fail(newError(ErrCodeMisplacedDoctype, tok.Offset, "", nodeName(tok)))
		}
		c.doc.OnDoctype()
	case xmlparser.KindText:
		if level == 0 && !c.doc.ValidateOutsideCharData(tok.Content) {
			return c.fail(newError(ErrCodeContentOutsideRoot, tok.Offset, "", xmlchars.TrimSpace(tok.Content)))
		}
	case xmlparser.KindCDATA:
		if level == 0 {
			return c.fail(newError(ErrCodeContentOutsideRoot, tok.Offset, "", tok.Raw))
		}
	case xmlparser.KindComment, xmlparser.KindPI:
		if level == 0 {
			c.doc.OnOutsideMarkup()
		}
	}
	return true
}

func (c *Cursor[L]) checkChars(tok xmlparser.Token) bool {
	if !c.opts.validateChars || tok.Nested {
		return true
	}
	if idx := xmlchars.InvalidCharIndex(tok.Raw); idx >= 0 {
		return c.fail(newError(ErrCodeInvalidChar, tok.Offset+int64(idx), "XML character", tok.Raw[idx:idx+1]))
	}
	return true
}

// nodeName returns the leading name of the token content for kinds that
// carry one.
func nodeName(tok xmlparser.Token) []byte {
	content := tok.Content
	switch tok.Kind {
	case xmlparser.KindEntityDecl:
		// Parameter entities are declared as "% name".
		if len(content) > 0 && content[0] == '%' {
			content = trimLeftSpace(content[1:])
		}
	case xmlparser.KindElementStart, xmlparser.KindElementEmpty, xmlparser.KindElementEnd,
		xmlparser.KindPI, xmlparser.KindDoctype, xmlparser.KindElementDecl,
		xmlparser.KindAttlistDecl, xmlparser.KindNotationDecl:
	default:
		return nil
	}
	n := xmlchars.NameLen(content)
	return content[:n:n]
}

func parserError(err error, offset int64) *CursorError {
	var syntax *xmlparser.SyntaxError
	if !errors.As(err, &syntax) {
		return &CursorError{Code: ErrCodeRead, Offset: offset, Err: err}
	}
	code := ErrCodeSyntax
	if errors.Is(err, xmlparser.ErrUnexpectedEOF) {
		code = ErrCodeUnexpectedEOF
	}
	return &CursorError{Code: code, Offset: syntax.Offset, Expected: syntax.Expected, Found: syntax.Found, Err: err}
}
