package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacoelho/xmlcursor/internal/logging/logfields"
	"github.com/jacoelho/xmlcursor/pkg/xmlcursor"
	"github.com/jacoelho/xmlcursor/pkg/xmllexer"
	"github.com/jacoelho/xmlcursor/pkg/xmlparser"
)

func newTokensCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a document",
		Args:  inputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInput(args, func(in *input) error {
				return printTokens(in, cmd.OutOrStdout())
			})
		},
	}
}

func newTreeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [file]",
		Short: "Print an indented outline of a document",
		Args:  inputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInput(args, func(in *input) error {
				c := xmlcursor.New(in.lexer, opts.cursorOptions(in))
				w := cmd.OutOrStdout()
				if err := writeNode(w, c); err != nil {
					return err
				}
				if err := printTree(w, c); err != nil {
					return fmt.Errorf("%s: %w", in.name, err)
				}
				return nil
			})
		},
	}
}

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Check that a document is well-formed",
		Args:  inputArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInput(args, func(in *input) error {
				c := xmlcursor.New(in.lexer, opts.cursorOptions(in))
				if err := c.Skip(); err != nil {
					return fmt.Errorf("%s: %w", in.name, err)
				}
				return writef(cmd.OutOrStdout(), "%s is well-formed\n", in.name)
			})
		},
	}
}

func (opts *options) withInput(args []string, fn func(*input) error) (err error) {
	in, err := opts.openInput(args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(in)
}

func (opts *options) cursorOptions(in *input) xmlcursor.Options {
	return xmlcursor.JoinOptions(
		xmlcursor.ValidateChars(!opts.noChars),
		xmlcursor.MaxDepth(opts.maxDepth),
		xmlcursor.AssumeTranscoded(in.transcoded),
	)
}

func printTokens(in *input, w io.Writer) error {
	p := xmlparser.New(in.lexer)
	count := 0
	for tok, err := range p.All() {
		if err != nil {
			return fmt.Errorf("%s: %w", in.name, err)
		}
		indent := ""
		if tok.Nested {
			indent = "  "
		}
		if err := writef(w, "%s%s\t%d\t%q\n", indent, tok.Kind, tok.Offset, tok.Content); err != nil {
			return err
		}
		count++
	}
	log.WithField(logfields.Path, in.name).WithField(logfields.Tokens, count).Debug("Printed tokens")
	return nil
}

// printTree writes the children of the current node and leaves the cursor
// back on it.
func printTree(w io.Writer, c *xmlcursor.Cursor[xmllexer.Lexer]) error {
	if !c.EnterChild() {
		return c.Err()
	}
	for {
		if err := writeNode(w, c); err != nil {
			return err
		}
		if err := printTree(w, c); err != nil {
			return err
		}
		if !c.NextSibling() {
			break
		}
	}
	c.Up()
	return c.Err()
}

func writeNode(w io.Writer, c *xmlcursor.Cursor[xmllexer.Lexer]) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", c.Depth()))
	b.WriteString(c.Kind().String())
	switch c.Kind() {
	case xmlparser.KindText, xmlparser.KindCDATA, xmlparser.KindComment, xmlparser.KindConditional:
		fmt.Fprintf(&b, " %q", c.Content())
	default:
		if name := c.Name(); len(name) > 0 {
			b.WriteByte(' ')
			b.Write(name)
		}
	}
	for name, value := range c.CurrentAttributes().All() {
		fmt.Fprintf(&b, " %s=%q", name, value)
	}
	return writeln(w, b.String())
}
