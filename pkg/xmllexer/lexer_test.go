package xmllexer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/jacoelho/xmlcursor/internal/xiter"
)

type variant struct {
	name     string
	new      func(input string) Lexer
	saveable bool
}

func variants() []variant {
	return []variant{
		{name: "slice", saveable: true, new: func(s string) Lexer {
			return NewSliceLexer([]byte(s))
		}},
		{name: "range-1", new: func(s string) Lexer {
			return NewRangeLexer(xiter.Chunks([]byte(s), 1))
		}},
		{name: "range-3", new: func(s string) Lexer {
			return NewRangeLexer(xiter.Chunks([]byte(s), 3))
		}},
		{name: "forward", new: func(s string) Lexer {
			return NewForwardLexer(iotest.OneByteReader(strings.NewReader(s)))
		}},
		{name: "buffered", saveable: true, new: func(s string) Lexer {
			l := &BufferedLexer{size: 4}
			l.SetSource(iotest.HalfReader(strings.NewReader(s)))
			return l
		}},
	}
}

func TestAdvanceUntil(t *testing.T) {
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new("abc<def>tail")
			l.Start()
			got, err := l.AdvanceUntil('<', false)
			if err != nil || string(got) != "abc" {
				t.Fatalf("AdvanceUntil('<') = %q, %v, want abc, nil", got, err)
			}
			if off := l.Offset(); off != 3 {
				t.Fatalf("Offset() = %d, want 3", off)
			}
			got, err = l.AdvanceUntil('>', true)
			if err != nil || string(got) != "<def>" {
				t.Fatalf("AdvanceUntil('>') = %q, %v, want <def>, nil", got, err)
			}
			if got := string(l.Get()); got != "abc<def>" {
				t.Fatalf("Get() = %q, want abc<def>", got)
			}
			l.Start()
			if got := l.Get(); len(got) != 0 {
				t.Fatalf("Get() after Start = %q, want empty", got)
			}
			if l.Empty() {
				t.Fatalf("Empty() = true before tail")
			}
		})
	}
}

func TestAdvanceUntilStopsAtEOF(t *testing.T) {
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new("abcdef")
			l.Start()
			got, err := l.AdvanceUntil('<', true)
			if !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("AdvanceUntil err = %v, want ErrUnexpectedEOF", err)
			}
			if string(got) != "abcdef" {
				t.Fatalf("AdvanceUntil bytes = %q, want abcdef", got)
			}
			if off := l.Offset(); off != 6 {
				t.Fatalf("Offset() = %d, want 6", off)
			}
			if !l.Empty() {
				t.Fatalf("Empty() = false after EOF")
			}
			l.DropWhile([]byte(" "))
			if off := l.Offset(); off != 6 {
				t.Fatalf("Offset() after DropWhile = %d, want 6", off)
			}
		})
	}
}

func TestAdvanceUntilAny(t *testing.T) {
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new(`name = 'value'>`)
			l.Start()
			got, err := l.AdvanceUntilAny([]byte(" ="), false)
			if err != nil || string(got) != "name" {
				t.Fatalf("AdvanceUntilAny = %q, %v, want name, nil", got, err)
			}
			l.DropWhile([]byte(" ="))
			got, err = l.AdvanceUntilAny([]byte(`"'`), true)
			if err != nil || string(got) != "'" {
				t.Fatalf("AdvanceUntilAny(quote) = %q, %v, want ', nil", got, err)
			}
			if _, err := l.AdvanceUntil('\'', true); err != nil {
				t.Fatalf("AdvanceUntil(quote) error = %v", err)
			}
			if got := string(l.Get()); got != "name = 'value'" {
				t.Fatalf("Get() = %q, want name = 'value'", got)
			}
		})
	}
}

func TestDropWhile(t *testing.T) {
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new(" \t\r\n  x")
			l.Start()
			l.DropWhile([]byte(" \t\r\n"))
			if off := l.Offset(); off != 6 {
				t.Fatalf("Offset() = %d, want 6", off)
			}
			if got := string(l.Get()); got != " \t\r\n  " {
				t.Fatalf("Get() = %q, want whitespace run", got)
			}
			l.DropWhile(nil)
			if off := l.Offset(); off != 6 {
				t.Fatalf("Offset() after empty DropWhile = %d, want 6", off)
			}
			if l.Empty() {
				t.Fatalf("Empty() = true, want false")
			}
		})
	}
}

func TestTestAndAdvanceIsAtomic(t *testing.T) {
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new("<!--x-->")
			if l.TestAndAdvance([]byte("<![CDATA[")) {
				t.Fatalf("TestAndAdvance(<![CDATA[) = true, want false")
			}
			if off := l.Offset(); off != 0 {
				t.Fatalf("Offset() after failed test = %d, want 0", off)
			}
			if l.TestAndAdvance([]byte("<!--x-->++")) {
				t.Fatalf("TestAndAdvance(longer than input) = true, want false")
			}
			if !l.TestAndAdvance([]byte("<!--")) {
				t.Fatalf("TestAndAdvance(<!--) = false, want true")
			}
			if off := l.Offset(); off != 4 {
				t.Fatalf("Offset() = %d, want 4", off)
			}
		})
	}
}

func TestEarlierTokensStayValid(t *testing.T) {
	var b strings.Builder
	for i := range 50 {
		fmt.Fprintf(&b, "<e%d>", i)
	}
	for _, v := range variants() {
		t.Run(v.name, func(t *testing.T) {
			l := v.new(b.String())
			var toks [][]byte
			for !l.Empty() {
				l.Start()
				if _, err := l.AdvanceUntil('>', true); err != nil {
					t.Fatalf("AdvanceUntil error = %v", err)
				}
				toks = append(toks, l.Get())
			}
			if len(toks) != 50 {
				t.Fatalf("tokens = %d, want 50", len(toks))
			}
			for i, tok := range toks {
				if want := fmt.Sprintf("<e%d>", i); string(tok) != want {
					t.Fatalf("token %d = %q, want %q", i, tok, want)
				}
			}
		})
	}
}

func TestSaveRestore(t *testing.T) {
	for _, v := range variants() {
		if !v.saveable {
			continue
		}
		t.Run(v.name, func(t *testing.T) {
			l := v.new("<a><b><c></c></b></a>").(SaveableLexer)
			l.Start()
			if _, err := l.AdvanceUntil('>', true); err != nil {
				t.Fatalf("AdvanceUntil error = %v", err)
			}
			l.Start()
			m := l.Save()
			if m.Offset() != 3 {
				t.Fatalf("Mark.Offset() = %d, want 3", m.Offset())
			}
			for range 4 {
				l.Start()
				if _, err := l.AdvanceUntil('>', true); err != nil {
					t.Fatalf("AdvanceUntil error = %v", err)
				}
			}
			if err := l.Restore(m); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			if off := l.Offset(); off != 3 {
				t.Fatalf("Offset() after Restore = %d, want 3", off)
			}
			if got := l.Get(); len(got) != 0 {
				t.Fatalf("Get() after Restore = %q, want empty", got)
			}
			got, err := l.AdvanceUntil('>', true)
			if err != nil || string(got) != "<b>" {
				t.Fatalf("AdvanceUntil after Restore = %q, %v, want <b>, nil", got, err)
			}
			// The mark stays valid after a restore.
			if err := l.Restore(m); err != nil {
				t.Fatalf("second Restore() error = %v", err)
			}
			l.Release(m)
		})
	}
}

func TestRestoreInvalidMark(t *testing.T) {
	for _, v := range variants() {
		if !v.saveable {
			continue
		}
		t.Run(v.name, func(t *testing.T) {
			l := v.new("<a/>").(SaveableLexer)
			if err := l.Restore(Mark{}); !errors.Is(err, ErrInvalidMark) {
				t.Fatalf("Restore(zero) = %v, want ErrInvalidMark", err)
			}
			other := v.new("<a/>").(SaveableLexer)
			foreign := other.Save()
			switch s := l.(type) {
			case *SliceLexer:
				s.SetSource([]byte("<b/>"))
			case *BufferedLexer:
				s.SetSource(strings.NewReader("<b/>"))
			}
			if err := l.Restore(foreign); !errors.Is(err, ErrInvalidMark) {
				t.Fatalf("Restore(foreign) = %v, want ErrInvalidMark", err)
			}
		})
	}
}

func TestRestoreInvalidatesMarks(t *testing.T) {
	for _, v := range variants() {
		if !v.saveable {
			continue
		}
		t.Run(v.name, func(t *testing.T) {
			l := v.new("<a><b><c>").(SaveableLexer)
			first := l.Save()
			if _, err := l.AdvanceUntil('>', true); err != nil {
				t.Fatalf("AdvanceUntil error = %v", err)
			}
			second := l.Save()
			if err := l.Restore(first); err != nil {
				t.Fatalf("Restore(first) error = %v", err)
			}
			if err := l.Restore(second); !errors.Is(err, ErrInvalidMark) {
				t.Fatalf("Restore(second) = %v, want ErrInvalidMark", err)
			}
			l.Release(first)
			if err := l.Restore(first); !errors.Is(err, ErrInvalidMark) {
				t.Fatalf("Restore(released) = %v, want ErrInvalidMark", err)
			}
			if off := l.Offset(); off != 0 {
				t.Fatalf("Offset() after failed restores = %d, want 0", off)
			}
		})
	}
}

func TestRestoreForeignMarkSameInput(t *testing.T) {
	for _, v := range variants() {
		if !v.saveable {
			continue
		}
		t.Run(v.name, func(t *testing.T) {
			l := v.new("<a><b/></a>").(SaveableLexer)
			other := v.new("<a><b/></a>").(SaveableLexer)
			if _, err := other.AdvanceUntil('>', true); err != nil {
				t.Fatalf("AdvanceUntil error = %v", err)
			}
			foreign := other.Save()
			if err := l.Restore(foreign); !errors.Is(err, ErrInvalidMark) {
				t.Fatalf("Restore(foreign) = %v, want ErrInvalidMark", err)
			}
			if off := l.Offset(); off != 0 {
				t.Fatalf("Offset() = %d after rejected restore, want 0", off)
			}
		})
	}
}

func TestBufferedKeepsSavedWindow(t *testing.T) {
	input := strings.Repeat("x", 100) + ">"
	l := &BufferedLexer{size: 4}
	l.SetSource(iotest.OneByteReader(strings.NewReader(input)))
	m := l.Save()
	if _, err := l.AdvanceUntil('>', true); err != nil {
		t.Fatalf("AdvanceUntil error = %v", err)
	}
	l.Start()
	if err := l.Restore(m); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got, err := l.AdvanceUntil('>', true)
	if err != nil || string(got) != input {
		t.Fatalf("AdvanceUntil after Restore = %d bytes, %v, want %d bytes", len(got), err, len(input))
	}
}

func TestReadErrorIsSticky(t *testing.T) {
	boom := errors.New("boom")
	lexers := map[string]Lexer{
		"forward":  NewForwardLexer(iotest.ErrReader(boom)),
		"buffered": NewBufferedLexer(iotest.ErrReader(boom)),
	}
	for name, l := range lexers {
		t.Run(name, func(t *testing.T) {
			if !l.Empty() {
				t.Fatalf("Empty() = false, want true")
			}
			if err := l.Err(); !errors.Is(err, boom) {
				t.Fatalf("Err() = %v, want %v", err, boom)
			}
			if _, err := l.AdvanceUntil('<', false); !errors.Is(err, ErrUnexpectedEOF) {
				t.Fatalf("AdvanceUntil err = %v, want ErrUnexpectedEOF", err)
			}
			if err := l.Err(); !errors.Is(err, boom) {
				t.Fatalf("Err() = %v, want %v", err, boom)
			}
		})
	}
}

func TestRangeLexerZeroCopyWithinChunk(t *testing.T) {
	chunk := []byte("<a>text</a>")
	l := NewRangeLexer(xiter.Slice([][]byte{chunk}))
	defer l.Close()
	l.Start()
	if _, err := l.AdvanceUntil('>', true); err != nil {
		t.Fatalf("AdvanceUntil error = %v", err)
	}
	got := l.Get()
	if &got[0] != &chunk[0] {
		t.Fatalf("Get() copied a token that fits one chunk")
	}
}

func TestRangeLexerSkipsEmptyChunks(t *testing.T) {
	l := NewRangeLexer(xiter.Slice([][]byte{nil, []byte("<a"), {}, []byte(">")}))
	defer l.Close()
	l.Start()
	got, err := l.AdvanceUntil('>', true)
	if err != nil || string(got) != "<a>" {
		t.Fatalf("AdvanceUntil = %q, %v, want <a>, nil", got, err)
	}
	if !l.Empty() {
		t.Fatalf("Empty() = false, want true")
	}
}

func TestChoose(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		needSave bool
		want     string
	}{
		{name: "bytes", src: FromBytes([]byte("<a/>")), want: "slice"},
		{name: "string", src: FromString("<a/>"), needSave: true, want: "slice"},
		{name: "chunks", src: FromChunkSlice([][]byte{[]byte("<a/>")}), want: "range"},
		{name: "chunks save", src: FromChunkSlice([][]byte{[]byte("<a/>")}), needSave: true, want: "buffered"},
		{name: "reader", src: FromReader(strings.NewReader("<a/>")), want: "forward"},
		{name: "reader save", src: FromReader(strings.NewReader("<a/>")), needSave: true, want: "buffered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Choose(tt.src, tt.needSave)
			defer Close(l)
			if got := Name(l); got != tt.want {
				t.Fatalf("Choose() = %s, want %s", got, tt.want)
			}
			if _, ok := l.(SaveableLexer); tt.needSave && !ok {
				t.Fatalf("Choose(needSave) returned %s, not saveable", Name(l))
			}
			l.Start()
			got, err := l.AdvanceUntil('>', true)
			if err != nil || string(got) != "<a/>" {
				t.Fatalf("AdvanceUntil = %q, %v, want <a/>, nil", got, err)
			}
		})
	}
}

func TestSourceKindString(t *testing.T) {
	if got := FromChunks(nil).Kind().String(); got != "chunks" {
		t.Fatalf("Kind().String() = %q, want chunks", got)
	}
	if got := SourceKind(99).String(); got != "unknown" {
		t.Fatalf("SourceKind(99).String() = %q, want unknown", got)
	}
}
