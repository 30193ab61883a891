package xmllex

import "testing"

func TestDocumentStateStartAndEnd(t *testing.T) {
	st := NewDocumentState()
	if st.RootSeen() {
		t.Fatalf("root seen before any token")
	}
	if st.RootClosed() {
		t.Fatalf("root closed before any token")
	}
	if !st.StartElementAllowed() {
		t.Fatalf("start element unexpectedly disallowed")
	}

	st.OnStartElement()
	if !st.RootSeen() {
		t.Fatalf("root not marked seen after start")
	}
	if st.RootClosed() {
		t.Fatalf("root unexpectedly closed after start")
	}

	st.OnEndElement(true)
	if !st.RootClosed() {
		t.Fatalf("root not marked closed after closeRoot end token")
	}
	if st.StartElementAllowed() {
		t.Fatalf("start element allowed after root closed")
	}
}

func TestDocumentStateOutsideCharDataBOM(t *testing.T) {
	st := NewDocumentState()
	if !st.ValidateOutsideCharData([]byte("\uFEFF")) {
		t.Fatalf("expected leading BOM to be allowed")
	}
	if st.ValidateOutsideCharData([]byte("\uFEFF")) {
		t.Fatalf("expected second BOM outside root to be rejected")
	}
	if !st.ValidateOutsideCharData([]byte(" \r\n\t")) {
		t.Fatalf("whitespace outside root rejected")
	}
	if st.ValidateOutsideCharData([]byte(" x ")) {
		t.Fatalf("text outside root accepted")
	}
}

func TestDocumentStateOutsideMarkupDisablesBOM(t *testing.T) {
	st := NewDocumentState()
	st.OnOutsideMarkup()
	if st.ValidateOutsideCharData([]byte("\uFEFF")) {
		t.Fatalf("BOM should be rejected after outside markup")
	}
}

func TestDocumentStateProlog(t *testing.T) {
	st := NewDocumentState()
	if !st.DeclarationAllowed() || !st.DoctypeAllowed() {
		t.Fatalf("prolog constructs disallowed at start")
	}
	st.OnDeclaration()
	if st.DeclarationAllowed() {
		t.Fatalf("second declaration allowed")
	}
	st.OnDoctype()
	if st.DoctypeAllowed() {
		t.Fatalf("second doctype allowed")
	}

	st = NewDocumentState()
	st.OnOutsideMarkup()
	if st.DeclarationAllowed() {
		t.Fatalf("declaration allowed after a comment")
	}
	st.OnStartElement()
	if st.DoctypeAllowed() {
		t.Fatalf("doctype allowed after root start")
	}
}

func TestDocumentStateNil(t *testing.T) {
	var st *DocumentState
	if st.RootSeen() || st.RootClosed() {
		t.Fatalf("nil state reports root")
	}
	if !st.StartElementAllowed() || !st.DoctypeAllowed() || !st.DeclarationAllowed() {
		t.Fatalf("nil state disallows constructs")
	}
	st.OnStartElement()
	st.OnEndElement(true)
	st.OnDoctype()
	st.OnDeclaration()
	st.OnOutsideMarkup()
	if !st.ValidateOutsideCharData([]byte(" ")) {
		t.Fatalf("nil state rejected whitespace")
	}
}
