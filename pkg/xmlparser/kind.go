package xmlparser

// Kind identifies the syntactic kind of an XML token.
type Kind byte

const (
	KindNone Kind = iota
	KindDocument
	KindDeclaration
	KindDoctype
	KindElementStart
	KindElementEnd
	KindElementEmpty
	KindText
	KindCDATA
	KindComment
	KindPI
	KindEntityDecl
	KindNotationDecl
	KindAttlistDecl
	KindElementDecl
	KindConditional
)

// String returns a stable name for the kind, suitable for debugging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindDocument:
		return "Document"
	case KindDeclaration:
		return "Declaration"
	case KindDoctype:
		return "Doctype"
	case KindElementStart:
		return "ElementStart"
	case KindElementEnd:
		return "ElementEnd"
	case KindElementEmpty:
		return "ElementEmpty"
	case KindText:
		return "Text"
	case KindCDATA:
		return "CDATA"
	case KindComment:
		return "Comment"
	case KindPI:
		return "PI"
	case KindEntityDecl:
		return "EntityDecl"
	case KindNotationDecl:
		return "NotationDecl"
	case KindAttlistDecl:
		return "AttlistDecl"
	case KindElementDecl:
		return "ElementDecl"
	case KindConditional:
		return "Conditional"
	default:
		return "Unknown"
	}
}

// IsMarkupDecl reports whether k is a declaration of a DOCTYPE internal subset.
func (k Kind) IsMarkupDecl() bool {
	switch k {
	case KindEntityDecl, KindNotationDecl, KindAttlistDecl, KindElementDecl, KindConditional:
		return true
	default:
		return false
	}
}
