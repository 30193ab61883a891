package xmllexer

import (
	"io"
	"iter"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/xmlcursor/internal/logging"
	"github.com/jacoelho/xmlcursor/internal/logging/logfields"
	"github.com/jacoelho/xmlcursor/internal/xiter"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "xmllexer")

// SourceKind identifies the input model of a Source.
type SourceKind uint8

const (
	SourceBytes SourceKind = iota
	SourceChunks
	SourceReader
)

func (k SourceKind) String() string {
	switch k {
	case SourceBytes:
		return "bytes"
	case SourceChunks:
		return "chunks"
	case SourceReader:
		return "reader"
	default:
		return "unknown"
	}
}

// Source describes an input independently of the lexer that will scan it.
type Source struct {
	data   []byte
	chunks iter.Seq[[]byte]
	r      io.Reader
	kind   SourceKind
}

// FromBytes describes a contiguous buffer.
func FromBytes(data []byte) Source {
	return Source{kind: SourceBytes, data: data}
}

// FromString describes s without copying it. The lexer never writes to
// its input, so the bytes stay immutable.
func FromString(s string) Source {
	return FromBytes(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// FromChunks describes a sequence of byte chunks.
func FromChunks(seq iter.Seq[[]byte]) Source {
	return Source{kind: SourceChunks, chunks: seq}
}

// FromChunkSlice describes a fixed list of chunks.
func FromChunkSlice(chunks [][]byte) Source {
	return FromChunks(xiter.Slice(chunks))
}

// FromReader describes a byte stream. Readers that expose their unread
// contents through Bytes, such as *bytes.Buffer, are described as a buffer;
// the reader itself is then left unread.
func FromReader(r io.Reader) Source {
	if b, ok := r.(interface{ Bytes() []byte }); ok {
		return FromBytes(b.Bytes())
	}
	return Source{kind: SourceReader, r: r}
}

// Kind returns the input model of s.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Choose returns the lexer best suited to src. With needSave the result
// always implements SaveableLexer.
func Choose(src Source, needSave bool) Lexer {
	var l Lexer
	switch src.kind {
	case SourceBytes:
		l = NewSliceLexer(src.data)
	case SourceChunks:
		if needSave {
			cr := newChunkReader(src.chunks)
			b := NewBufferedLexer(cr)
			b.closer = cr
			l = b
		} else {
			l = NewRangeLexer(src.chunks)
		}
	default:
		if needSave {
			l = NewBufferedLexer(src.r)
		} else {
			l = NewForwardLexer(src.r)
		}
	}
	log.WithFields(logrus.Fields{
		logfields.Source: src.kind,
		logfields.Lexer:  Name(l),
	}).Debug("Selected lexer")
	return l
}

// Name returns a short name for the lexer variant of l.
func Name(l Lexer) string {
	switch l.(type) {
	case *SliceLexer:
		return "slice"
	case *RangeLexer:
		return "range"
	case *ForwardLexer:
		return "forward"
	case *BufferedLexer:
		return "buffered"
	default:
		return "custom"
	}
}

// chunkReader adapts a chunk sequence to io.Reader.
type chunkReader struct {
	next func() ([]byte, bool)
	stop func()
	cur  []byte
}

func newChunkReader(seq iter.Seq[[]byte]) *chunkReader {
	r := &chunkReader{}
	if seq != nil {
		r.next, r.stop = iter.Pull(seq)
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		if r.next == nil {
			return 0, io.EOF
		}
		chunk, ok := r.next()
		if !ok {
			_ = r.Close()
			return 0, io.EOF
		}
		r.cur = chunk
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

func (r *chunkReader) Close() error {
	if r.stop != nil {
		r.stop()
		r.stop = nil
		r.next = nil
	}
	return nil
}
