// Command xmltok dumps, outlines and checks XML documents with the
// xmlparser and xmlcursor packages.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jacoelho/xmlcursor/internal/logging"
	"github.com/jacoelho/xmlcursor/internal/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "xmltok")

const defaultChunkSize = 4096

type options struct {
	lexer      string
	charset    string
	logFormat  string
	cpuProfile string
	memProfile string
	chunkSize  int
	maxDepth   int
	debug      bool
	noChars    bool

	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	cleanup []func() error
}

// usageError marks failures caused by the command line rather than the input.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := &options{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCommand(opts)
	root.SetArgs(args)
	err := root.Execute()
	for i := len(opts.cleanup) - 1; i >= 0; i-- {
		if cerr := opts.cleanup[i](); cerr != nil {
			_ = writef(stderr, "error: %v\n", cerr)
		}
	}
	if err == nil {
		return 0
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		if werr := writef(stderr, "error: %v\n", err); werr != nil {
			return 1
		}
		if werr := writeln(stderr, root.UsageString()); werr != nil {
			return 1
		}
		return 2
	}
	if werr := writef(stderr, "error: %v\n", err); werr != nil {
		return 1
	}
	return 1
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "xmltok",
		Short:         "Tokenize and check XML documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}
	root.SetIn(opts.stdin)
	root.SetOut(opts.stdout)
	root.SetErr(opts.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})
	bindFlags(root.PersistentFlags(), opts)
	root.AddCommand(
		newTokensCommand(opts),
		newTreeCommand(opts),
		newCheckCommand(opts),
	)
	return root
}

func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.lexer, "lexer", lexerAuto, "lexer variant: auto, slice, range, forward or buffered")
	flags.IntVar(&opts.chunkSize, "chunk-size", defaultChunkSize, "chunk size in bytes for the range lexer")
	flags.StringVar(&opts.charset, "charset", "", "input encoding label; sniffed from the input when empty")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "maximum element depth, 0 for unlimited")
	flags.BoolVar(&opts.noChars, "no-char-check", false, "skip XML character validation")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", logging.LogFormatText, "log format: text or json")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flags.StringVar(&opts.memProfile, "memprofile", "", "write memory profile to file")
}

func (opts *options) setup() error {
	if err := logging.Setup(opts.stderr, opts.logFormat, opts.debug); err != nil {
		return usageError{err: err}
	}
	if opts.chunkSize <= 0 {
		return usageError{err: fmt.Errorf("--chunk-size must be positive, got %d", opts.chunkSize)}
	}
	if !validLexer(opts.lexer) {
		return usageError{err: fmt.Errorf("unknown lexer %q", opts.lexer)}
	}
	if opts.cpuProfile != "" {
		stop, err := startCPUProfile(opts.cpuProfile)
		if err != nil {
			return err
		}
		opts.cleanup = append(opts.cleanup, stop)
	}
	if opts.memProfile != "" {
		path := opts.memProfile
		opts.cleanup = append(opts.cleanup, func() error { return writeMemProfile(path) })
	}
	return nil
}

func inputArgs(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return usageError{err: fmt.Errorf("at most one input file is accepted, got %d", len(args))}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
