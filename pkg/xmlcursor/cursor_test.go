package xmlcursor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"

	"github.com/jacoelho/xmlcursor/internal/xiter"
	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
	"github.com/jacoelho/xmlcursor/pkg/xmlparser"
)

type lexerCase struct {
	name     string
	saveable bool
	new      func(input string) xmllexer.Lexer
}

func lexerCases() []lexerCase {
	return []lexerCase{
		{"slice", true, func(s string) xmllexer.Lexer { return xmllexer.NewSliceLexer([]byte(s)) }},
		{"range-1", false, func(s string) xmllexer.Lexer { return xmllexer.NewRangeLexer(xiter.Chunks([]byte(s), 1)) }},
		{"range-5", false, func(s string) xmllexer.Lexer { return xmllexer.NewRangeLexer(xiter.Chunks([]byte(s), 5)) }},
		{"forward", false, func(s string) xmllexer.Lexer {
			return xmllexer.NewForwardLexer(iotest.OneByteReader(strings.NewReader(s)))
		}},
		{"buffered", true, func(s string) xmllexer.Lexer {
			return xmllexer.NewBufferedLexer(iotest.HalfReader(strings.NewReader(s)))
		}},
	}
}

func label(c *Cursor[xmllexer.Lexer]) string {
	switch c.Kind() {
	case xmlparser.KindText, xmlparser.KindComment, xmlparser.KindCDATA:
		return fmt.Sprintf("%d %s %q", c.Depth(), c.Kind(), c.Content())
	}
	return fmt.Sprintf("%d %s %s", c.Depth(), c.Kind(), c.Name())
}

// walk visits every node below the current one using forward moves only
// and returns with the cursor back on it.
func walk(c *Cursor[xmllexer.Lexer], out *[]string) {
	if !c.EnterChild() {
		return
	}
	for {
		*out = append(*out, label(c))
		walk(c, out)
		if !c.NextSibling() {
			break
		}
	}
	c.Up()
}

const walkDoc = `<?xml version="1.0"?><!DOCTYPE r [<!ENTITY e "v">]><r a="1"><b>hi</b><c/><!--x--><?t d?><![CDATA[z]]></r>`

func TestWalk(t *testing.T) {
	want := []string{
		"1 Doctype r",
		"2 EntityDecl e",
		"1 ElementStart r",
		"2 ElementStart b",
		`3 Text "hi"`,
		"2 ElementEmpty c",
		`2 Comment "x"`,
		"2 PI t",
		`2 CDATA "z"`,
	}
	for _, lc := range lexerCases() {
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(walkDoc))
			var got []string
			walk(c, &got)
			if err := c.Err(); err != nil {
				t.Fatalf("walk error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("walk mismatch (-want +got):\n%s", diff)
			}
			if c.Kind() != xmlparser.KindDocument || c.Depth() != 0 {
				t.Fatalf("after walk at %s depth %d, want Document depth 0", c.Kind(), c.Depth())
			}
			if c.EnterChild() {
				t.Fatalf("EnterChild after a full walk = true")
			}
		})
	}
}

func TestNextSiblingSkipsSubtree(t *testing.T) {
	for _, lc := range lexerCases() {
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<r><a><x><y/></x></a><b/></r>`))
			if !c.EnterChild() || !c.EnterChild() {
				t.Fatalf("EnterChild failed: %v", c.Err())
			}
			if got := string(c.Name()); got != "a" {
				t.Fatalf("Name = %q, want a", got)
			}
			if !c.NextSibling() {
				t.Fatalf("NextSibling = false: %v", c.Err())
			}
			if got := string(c.Name()); got != "b" || c.Kind() != xmlparser.KindElementEmpty {
				t.Fatalf("at %s %q, want ElementEmpty b", c.Kind(), got)
			}
			if c.NextSibling() {
				t.Fatalf("NextSibling past the last child = true")
			}
			if got := string(c.Name()); got != "b" || c.Depth() != 2 {
				t.Fatalf("after end of content at %q depth %d, want b depth 2", got, c.Depth())
			}
			if c.NextSibling() || c.EnterChild() {
				t.Fatalf("moves past the consumed parent succeeded")
			}
			if !c.Up() || string(c.Name()) != "r" || c.Depth() != 1 {
				t.Fatalf("Up to r failed: at %q depth %d, %v", c.Name(), c.Depth(), c.Err())
			}
			if c.NextSibling() || string(c.Name()) != "r" {
				t.Fatalf("NextSibling after the root = true or moved, at %q", c.Name())
			}
			if !c.Up() || c.Kind() != xmlparser.KindDocument {
				t.Fatalf("Up to the document failed: at %s, %v", c.Kind(), c.Err())
			}
			if c.NextSibling() || c.Up() {
				t.Fatalf("NextSibling or Up on the document = true")
			}
			if err := c.Err(); err != nil {
				t.Fatalf("Err = %v", err)
			}
		})
	}
}

func TestWellFormednessErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ErrorCode
	}{
		{"truncated element", "<foo>", ErrCodeUnexpectedEOF},
		{"truncated tag", "<foo", ErrCodeUnexpectedEOF},
		{"mismatched end", "<a><b></a>", ErrCodeMismatchedEndTag},
		{"end without start", "</a>", ErrCodeMismatchedEndTag},
		{"stray end after root", "<a/></a>", ErrCodeMismatchedEndTag},
		{"two roots", "<a/><b/>", ErrCodeMultipleRoots},
		{"text after root", "<a/>text", ErrCodeContentOutsideRoot},
		{"text before root", "text<a/>", ErrCodeContentOutsideRoot},
		{"cdata outside root", "<![CDATA[x]]><a/>", ErrCodeContentOutsideRoot},
		{"empty document", "", ErrCodeMissingRoot},
		{"prolog only", "<!-- c --> <?p?>", ErrCodeMissingRoot},
		{"doctype after root", "<a/><!DOCTYPE a>", ErrCodeMisplacedDoctype},
		{"second doctype", "<!DOCTYPE a><!DOCTYPE a><a/>", ErrCodeMisplacedDoctype},
		{"control char", "<a>\x01</a>", ErrCodeInvalidChar},
		{"control char in attribute", "<a v='\x02'/>", ErrCodeInvalidChar},
		{"duplicate attribute", "<a x='1' x='2'/>", ErrCodeSyntax},
		{"cdata end in text", "<a>]]></a>", ErrCodeSyntax},
		{"misplaced declaration", `<a><?xml version="1.0"?></a>`, ErrCodeSyntax},
		{"version missing", `<?xml encoding="UTF-8"?><a/>`, ErrCodeInvalidDeclaration},
		{"version 2", `<?xml version="2.0"?><a/>`, ErrCodeInvalidDeclaration},
		{"bad standalone", `<?xml version="1.0" standalone="maybe"?><a/>`, ErrCodeInvalidDeclaration},
		{"declaration order", `<?xml version="1.0" standalone="yes" encoding="UTF-8"?><a/>`, ErrCodeInvalidDeclaration},
		{"unknown pseudo-attribute", `<?xml version="1.0" foo="bar"?><a/>`, ErrCodeInvalidDeclaration},
		{"unknown encoding", `<?xml version="1.0" encoding="no-such-charset"?><a/>`, ErrCodeInvalidDeclaration},
		{"encoding mismatch", `<?xml version="1.0" encoding="ISO-8859-1"?><a/>`, ErrCodeEncodingMismatch},
	}
	for _, tt := range tests {
		for _, lc := range lexerCases() {
			t.Run(tt.name+"/"+lc.name, func(t *testing.T) {
				c := New(lc.new(tt.input))
				err := c.Skip()
				if err == nil {
					t.Fatalf("Skip(%q) error = nil, want %s", tt.input, tt.code)
				}
				var cerr *CursorError
				if !errors.As(err, &cerr) {
					t.Fatalf("Skip error %T is not *CursorError", err)
				}
				if cerr.Code != tt.code {
					t.Fatalf("Code = %s, want %s (%v)", cerr.Code, tt.code, err)
				}
				if !errors.Is(err, tt.code.Sentinel()) {
					t.Fatalf("errors.Is(%v, %v) = false", err, tt.code.Sentinel())
				}
				if c.EnterChild() || c.NextSibling() || c.Up() || c.ExitToParent() {
					t.Fatalf("navigation succeeded after error")
				}
				if c.Err() != err {
					t.Fatalf("Err changed after failure: %v", c.Err())
				}
			})
		}
	}
}

func TestWellFormedDocuments(t *testing.T) {
	tests := []string{
		"<a/>",
		"\uFEFF<a/>",
		" \n<a/>\n",
		`<?xml version="1.0" encoding="UTF-8" standalone="no"?><a/>`,
		`<?xml version='1.1'?>` + "\n<!-- c --><!DOCTYPE a><?p x?><a>t<![CDATA[<>]]></a><!-- t -->",
		`<!DOCTYPE a [<!ELEMENT a (#PCDATA)> %pe; <!ATTLIST a x CDATA #IMPLIED>]><a x="1"/>`,
	}
	for _, input := range tests {
		for _, lc := range lexerCases() {
			t.Run(lc.name, func(t *testing.T) {
				if err := New(lc.new(input)).Skip(); err != nil {
					t.Fatalf("Skip(%q) error = %v", input, err)
				}
			})
		}
	}
}

func TestErrorOffsets(t *testing.T) {
	tests := []struct {
		input  string
		offset int64
	}{
		{"<a><b></a>", 6},
		{"<a>x\x01</a>", 4},
		{"<a/><b/>", 4},
		{"<a/>  z", 4},
	}
	for _, tt := range tests {
		err := New(xmllexer.NewSliceLexer([]byte(tt.input))).Skip()
		var cerr *CursorError
		if !errors.As(err, &cerr) {
			t.Fatalf("Skip(%q) error = %v, want *CursorError", tt.input, err)
		}
		if cerr.Offset != tt.offset {
			t.Fatalf("Skip(%q) offset = %d, want %d", tt.input, cerr.Offset, tt.offset)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	const input = `<a><b><c/></b></a>`
	if err := New(xmllexer.NewSliceLexer([]byte(input)), MaxDepth(3)).Skip(); err != nil {
		t.Fatalf("MaxDepth(3) error = %v", err)
	}
	err := New(xmllexer.NewSliceLexer([]byte(input)), MaxDepth(2)).Skip()
	if !errors.Is(err, ErrDepthLimit) {
		t.Fatalf("MaxDepth(2) error = %v, want ErrDepthLimit", err)
	}
}

func TestValidateCharsDisabled(t *testing.T) {
	if err := New(xmllexer.NewSliceLexer([]byte("<a>\x01</a>")), ValidateChars(false)).Skip(); err != nil {
		t.Fatalf("Skip error = %v", err)
	}
}

func TestAssumeTranscoded(t *testing.T) {
	input := []byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a/>`)
	c := New(xmllexer.NewSliceLexer(input), AssumeTranscoded(true))
	if err := c.Skip(); err != nil {
		t.Fatalf("Skip error = %v", err)
	}
	enc, ok := c.CurrentAttributes().Get("encoding")
	if !ok || string(enc) != "ISO-8859-1" {
		t.Fatalf("encoding = %q, %v", enc, ok)
	}
}

func TestAttributes(t *testing.T) {
	c := New(xmllexer.NewSliceLexer([]byte(`<?xml version="1.0" standalone="yes"?><r a="1" b='two'><s/></r>`)))
	doc := c.CurrentAttributes()
	if v, ok := doc.Get("version"); !ok || string(v) != "1.0" {
		t.Fatalf("version = %q, %v", v, ok)
	}
	if v, ok := doc.Get("standalone"); !ok || string(v) != "yes" {
		t.Fatalf("standalone = %q, %v", v, ok)
	}
	if !c.EnterChild() {
		t.Fatalf("EnterChild: %v", c.Err())
	}
	attrs := c.CurrentAttributes()
	if attrs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", attrs.Len())
	}
	if v, ok := attrs.Get("b"); !ok || string(v) != "two" {
		t.Fatalf("b = %q, %v", v, ok)
	}
	if !c.EnterChild() {
		t.Fatalf("EnterChild: %v", c.Err())
	}
	if n := c.CurrentAttributes().Len(); n != 0 {
		t.Fatalf("child attributes = %d, want 0", n)
	}
	if attrs.At(0).Value == nil || string(attrs.At(0).Value) != "1" {
		t.Fatalf("earlier attributes changed: %q", attrs.At(0).Value)
	}
}

func TestNames(t *testing.T) {
	c := New[xmllexer.Lexer](xmllexer.NewSliceLexer([]byte(`<!DOCTYPE doc [<!ENTITY % pe "x"><!NOTATION n SYSTEM "u">]><doc><?target data?>text</doc>`)))
	var got []string
	walk(c, &got)
	if err := c.Err(); err != nil {
		t.Fatalf("walk error = %v", err)
	}
	want := []string{
		"1 Doctype doc",
		"2 EntityDecl pe",
		"2 NotationDecl n",
		"1 ElementStart doc",
		"2 PI target",
		`2 Text "text"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestExitToParentAfterLastSibling(t *testing.T) {
	for _, lc := range lexerCases() {
		if !lc.saveable {
			continue
		}
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<a><b/></a>`))
			if !c.EnterChild() || string(c.Name()) != "a" {
				t.Fatalf("EnterChild to a failed: %v", c.Err())
			}
			if !c.EnterChild() || c.Kind() != xmlparser.KindElementEmpty || string(c.Name()) != "b" {
				t.Fatalf("EnterChild to b failed: at %s %q, %v", c.Kind(), c.Name(), c.Err())
			}
			if c.NextSibling() {
				t.Fatalf("NextSibling from b = true")
			}
			if !c.ExitToParent() {
				t.Fatalf("ExitToParent = false: %v", c.Err())
			}
			if c.Kind() != xmlparser.KindElementStart || string(c.Name()) != "a" || c.Depth() != 1 {
				t.Fatalf("ExitToParent at %s %q depth %d, want ElementStart a depth 1", c.Kind(), c.Name(), c.Depth())
			}
			if !c.EnterChild() || string(c.Name()) != "b" {
				t.Fatalf("re-entering a did not return to b: %v", c.Err())
			}
			if err := c.Skip(); err != nil {
				t.Fatalf("Skip error = %v", err)
			}
		})
	}
}

func TestUpWithoutRewind(t *testing.T) {
	for _, lc := range lexerCases() {
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<a><b><x/></b><c/></a>`))
			if !c.EnterChild() || !c.EnterChild() || !c.EnterChild() {
				t.Fatalf("EnterChild failed: %v", c.Err())
			}
			if got := string(c.Name()); got != "x" {
				t.Fatalf("Name = %q, want x", got)
			}
			if !c.Up() || string(c.Name()) != "b" || c.Depth() != 2 {
				t.Fatalf("Up to b failed: at %q depth %d, %v", c.Name(), c.Depth(), c.Err())
			}
			if c.EnterChild() {
				t.Fatalf("EnterChild into consumed b = true")
			}
			if !c.NextSibling() || string(c.Name()) != "c" {
				t.Fatalf("NextSibling after Up = %q, %v", c.Name(), c.Err())
			}
			if !c.Up() || !c.Up() || c.Kind() != xmlparser.KindDocument {
				t.Fatalf("Up to the document failed: at %s, %v", c.Kind(), c.Err())
			}
			if err := c.Skip(); err != nil {
				t.Fatalf("Skip error = %v", err)
			}
		})
	}
}

func TestUpChecksRemainingContent(t *testing.T) {
	c := New(xmllexer.NewSliceLexer([]byte(`<a><b/><c></d></a>`)))
	if !c.EnterChild() || !c.EnterChild() {
		t.Fatalf("EnterChild failed: %v", c.Err())
	}
	if c.Up() {
		t.Fatalf("Up over a mismatched end tag = true")
	}
	if !errors.Is(c.Err(), ErrMismatchedEndTag) {
		t.Fatalf("Err = %v, want ErrMismatchedEndTag", c.Err())
	}
}

func TestExitToParent(t *testing.T) {
	for _, lc := range lexerCases() {
		if !lc.saveable {
			continue
		}
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<r><a/><b>x</b></r>`))
			if !c.EnterChild() || !c.EnterChild() || !c.NextSibling() || !c.EnterChild() {
				t.Fatalf("setup moves failed: %v", c.Err())
			}
			if c.Kind() != xmlparser.KindText {
				t.Fatalf("at %s, want Text", c.Kind())
			}
			if !c.ExitToParent() || string(c.Name()) != "b" {
				t.Fatalf("ExitToParent to b failed: %v", c.Err())
			}
			if !c.ExitToParent() || string(c.Name()) != "r" || c.Depth() != 1 {
				t.Fatalf("ExitToParent to r failed: %v", c.Err())
			}
			if !c.EnterChild() || string(c.Name()) != "a" {
				t.Fatalf("re-entering r did not return to a: %s %v", c.Name(), c.Err())
			}
			if !c.ExitToParent() || !c.ExitToParent() || c.Kind() != xmlparser.KindDocument {
				t.Fatalf("ExitToParent to document failed: %v", c.Err())
			}
			var got []string
			walk(c, &got)
			if len(got) != 4 || c.Err() != nil {
				t.Fatalf("walk after rewind = %v, %v", got, c.Err())
			}
			if c.ExitToParent() {
				t.Fatalf("ExitToParent on the document = true")
			}
			if !errors.Is(c.Err(), ErrPastRoot) {
				t.Fatalf("Err = %v, want ErrPastRoot", c.Err())
			}
		})
	}
}

func TestExitToParentUnsupported(t *testing.T) {
	for _, lc := range lexerCases() {
		if lc.saveable {
			continue
		}
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<r><a/></r>`))
			if c.CanSave() {
				t.Fatalf("CanSave = true")
			}
			if !c.EnterChild() {
				t.Fatalf("EnterChild: %v", c.Err())
			}
			if c.ExitToParent() {
				t.Fatalf("ExitToParent = true")
			}
			if !errors.Is(c.Err(), ErrUnsupported) {
				t.Fatalf("Err = %v, want ErrUnsupported", c.Err())
			}
			if _, ok := c.Save(); ok {
				t.Fatalf("Save succeeded after failure")
			}
		})
	}
}

func TestBookmarks(t *testing.T) {
	for _, lc := range lexerCases() {
		t.Run(lc.name, func(t *testing.T) {
			c := New(lc.new(`<r><a>1</a><b>2</b></r>`))
			if !c.EnterChild() || !c.EnterChild() {
				t.Fatalf("EnterChild: %v", c.Err())
			}
			b, ok := c.Save()
			if ok != lc.saveable {
				t.Fatalf("Save ok = %v, want %v", ok, lc.saveable)
			}
			if !ok {
				return
			}
			if !c.NextSibling() || string(c.Name()) != "b" {
				t.Fatalf("NextSibling: %v", c.Err())
			}
			if !c.EnterChild() || string(c.Content()) != "2" {
				t.Fatalf("EnterChild into b: %v", c.Err())
			}
			if !c.Restore(b) {
				t.Fatalf("Restore: %v", c.Err())
			}
			if string(c.Name()) != "a" || c.Depth() != 2 {
				t.Fatalf("restored at %q depth %d, want a depth 2", c.Name(), c.Depth())
			}
			c.Release(b)
			if err := c.Skip(); err != nil {
				t.Fatalf("Skip after restore: %v", err)
			}
		})
	}
}

func TestRestoreInvalidBookmark(t *testing.T) {
	c := New(xmllexer.NewSliceLexer([]byte(`<r/>`)))
	if c.Restore(Bookmark{}) {
		t.Fatalf("Restore(zero) = true")
	}
	if !errors.Is(c.Err(), ErrInvalidBookmark) {
		t.Fatalf("Err = %v, want ErrInvalidBookmark", c.Err())
	}
}

func TestReadError(t *testing.T) {
	boom := errors.New("boom")
	c := New[xmllexer.Lexer](xmllexer.NewForwardLexer(iotest.ErrReader(boom)))
	err := c.Skip()
	if !errors.Is(err, ErrRead) || !errors.Is(err, boom) {
		t.Fatalf("Skip error = %v, want ErrRead wrapping boom", err)
	}
}

func TestReset(t *testing.T) {
	c := New(xmllexer.NewSliceLexer([]byte(`<a/><b/>`)))
	if err := c.Skip(); err == nil {
		t.Fatalf("Skip error = nil")
	}
	c.Reset(xmllexer.NewSliceLexer([]byte(`<c/>`)))
	if c.Err() != nil || c.Kind() != xmlparser.KindDocument {
		t.Fatalf("after Reset Err = %v, Kind = %s", c.Err(), c.Kind())
	}
	if !c.EnterChild() || string(c.Name()) != "c" {
		t.Fatalf("EnterChild after Reset: %v", c.Err())
	}
}
