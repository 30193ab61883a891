// Package logfields defines common logging fields which are used across packages
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Lexer is the lexer variant chosen for an input source
	Lexer = "lexer"

	// Source is the kind of input source handed to the core
	Source = "source"

	// Offset is a byte offset in the input
	Offset = "offset"

	// Path is a file path given on the command line
	Path = "path"

	// Charset is the encoding label applied to the input
	Charset = "charset"

	// Tokens is a count of tokens produced
	Tokens = "tokens"
)
