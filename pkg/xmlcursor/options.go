package xmlcursor

// Options holds cursor configuration values.
// The zero value means no overrides.
type Options struct {
	validateChars    bool
	maxDepth         int
	assumeTranscoded bool

	validateCharsSet    bool
	maxDepthSet         bool
	assumeTranscodedSet bool
}

// JoinOptions combines multiple option sets into one in declaration order.
// Later options override earlier ones when set.
func JoinOptions(srcs ...Options) Options {
	var merged Options
	for _, src := range srcs {
		merged.merge(src)
	}
	return merged
}

func (opts *Options) merge(src Options) {
	if src.validateCharsSet {
		opts.validateChars = src.validateChars
		opts.validateCharsSet = true
	}
	if src.maxDepthSet {
		opts.maxDepth = src.maxDepth
		opts.maxDepthSet = true
	}
	if src.assumeTranscodedSet {
		opts.assumeTranscoded = src.assumeTranscoded
		opts.assumeTranscodedSet = true
	}
}

// ValidateChars controls whether every consumed token is checked for
// characters outside the XML 1.0 Char production and malformed UTF-8.
// It is enabled by default.
func ValidateChars(value bool) Options {
	return Options{validateChars: value, validateCharsSet: true}
}

// MaxDepth limits element nesting depth. Zero or negative means no limit.
func MaxDepth(value int) Options {
	return Options{maxDepth: value, maxDepthSet: true}
}

// AssumeTranscoded accepts any registered encoding label in the XML
// declaration, for input the caller has already converted to UTF-8.
func AssumeTranscoded(value bool) Options {
	return Options{assumeTranscoded: value, assumeTranscodedSet: true}
}

// ValidateChars reports the configured value and whether it was set.
func (opts Options) ValidateChars() (bool, bool) {
	return opts.validateChars, opts.validateCharsSet
}

// MaxDepth reports the configured value and whether it was set.
func (opts Options) MaxDepth() (int, bool) {
	return opts.maxDepth, opts.maxDepthSet
}

// AssumeTranscoded reports the configured value and whether it was set.
func (opts Options) AssumeTranscoded() (bool, bool) {
	return opts.assumeTranscoded, opts.assumeTranscodedSet
}

type cursorOptions struct {
	validateChars    bool
	maxDepth         int
	assumeTranscoded bool
}

func resolveOptions(opts Options) cursorOptions {
	resolved := cursorOptions{validateChars: true}
	if value, ok := opts.ValidateChars(); ok {
		resolved.validateChars = value
	}
	if value, ok := opts.MaxDepth(); ok && value > 0 {
		resolved.maxDepth = value
	}
	if value, ok := opts.AssumeTranscoded(); ok {
		resolved.assumeTranscoded = value
	}
	return resolved
}
