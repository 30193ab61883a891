package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/xmlcursor/internal/charset"
	"github.com/jacoelho/xmlcursor/internal/logging/logfields"
	"github.com/jacoelho/xmlcursor/internal/xiter"
	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
)

const (
	lexerAuto     = "auto"
	lexerSlice    = "slice"
	lexerRange    = "range"
	lexerForward  = "forward"
	lexerBuffered = "buffered"
)

func validLexer(name string) bool {
	switch name {
	case lexerAuto, lexerSlice, lexerRange, lexerForward, lexerBuffered:
		return true
	}
	return false
}

// input is an opened document ready for the core packages.
type input struct {
	lexer      xmllexer.Lexer
	name       string
	closer     io.Closer
	transcoded bool
}

func (in *input) Close() error {
	errs := []error{xmllexer.Close(in.lexer)}
	if in.closer != nil {
		errs = append(errs, in.closer.Close())
	}
	return errors.Join(errs...)
}

// openInput opens the file named by args, or stdin, and builds the lexer
// selected on the command line.
func (opts *options) openInput(args []string) (*input, error) {
	in := &input{name: "-"}
	var r io.Reader = opts.stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		in.name = args[0]
		in.closer = f
		r = f
	}
	decoded, enc, err := charset.NewReader(r, opts.charset)
	if err != nil {
		if in.closer != nil {
			_ = in.closer.Close()
		}
		return nil, fmt.Errorf("%s: decode input: %w", in.name, err)
	}
	in.transcoded = enc != ""
	l, err := opts.newLexer(decoded)
	if err != nil {
		if in.closer != nil {
			_ = in.closer.Close()
		}
		return nil, fmt.Errorf("%s: %w", in.name, err)
	}
	in.lexer = l
	log.WithField(logfields.Path, in.name).
		WithField(logfields.Lexer, xmllexer.Name(l)).
		WithField(logfields.Charset, enc).
		Debug("Opened input")
	return in, nil
}

func (opts *options) newLexer(r io.Reader) (xmllexer.Lexer, error) {
	switch opts.lexer {
	case lexerForward:
		return xmllexer.NewForwardLexer(r), nil
	case lexerBuffered:
		return xmllexer.NewBufferedLexer(r), nil
	case lexerSlice, lexerRange:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if opts.lexer == lexerSlice {
			return xmllexer.NewSliceLexer(data), nil
		}
		return xmllexer.NewRangeLexer(xiter.Chunks(data, opts.chunkSize)), nil
	default:
		return xmllexer.Choose(xmllexer.FromReader(r), false), nil
	}
}
