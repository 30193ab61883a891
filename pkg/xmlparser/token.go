package xmlparser

// Token is one syntactic construct of the input.
//
// Content is the undecoded text of the construct without its delimiters: the
// tag body for elements, the character run for text, the body of comments,
// CDATA sections and processing instructions, the header of a DOCTYPE and
// the body of subset declarations. Raw holds every byte consumed to produce
// the token. Both are borrowed from the lexer.
type Token struct {
	Content []byte
	Raw     []byte
	Offset  int64
	Kind    Kind
	// Nested marks entries of a DOCTYPE internal subset. Their bytes are
	// already part of the DOCTYPE token's Raw.
	Nested bool
}

// End returns the absolute offset just past the token.
func (t Token) End() int64 {
	return t.Offset + int64(len(t.Raw))
}
