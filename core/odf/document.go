package odf

import (
	"strconv"
	"strings"
	"sync"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

// Document is an ODF text document content tree. Its embedded mutex is
// the per-document lock callers hold while allocating names and inserting
// the named markers.
type Document struct {
	sync.Mutex
	doc *xml.Document
}

// documentPrefixes are declared on the root of new documents.
var documentPrefixes = []string{"office", "style", "text", "table", "draw", "fo", "dc", "meta", "xlink"}

// NewDocument returns an empty text document:
// office:document-content/office:body/office:text.
func NewDocument() *Document {
	root := xml.NewElement("office:document-content")
	for _, prefix := range documentPrefixes {
		root.SetAttr("xmlns:"+prefix, xml.Namespaces[prefix])
	}
	root.SetAttr("office:version", "1.2")
	body := xml.NewElement("office:body")
	body.Append(xml.NewElement("office:text"))
	root.Append(body)
	return &Document{doc: xml.NewDocument(root)}
}

// ParseDocument parses content.xml or a flat ODF document.
func ParseDocument(data []byte) (*Document, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.NewParse("XML", "", "document has no root element")
	}
	return &Document{doc: doc}, nil
}

// XML returns the underlying tree.
func (d *Document) XML() *xml.Document { return d.doc }

// Bytes serializes the document.
func (d *Document) Bytes() []byte { return d.doc.Serialize() }

// Body returns the document body (office:text for text documents), or nil
// when the tree has no office:body.
func (d *Document) Body() *xml.Node {
	return d.doc.Root().DocumentBody()
}

// scope is the body, or the whole tree for fragments without one.
func (d *Document) scope() *xml.Node {
	if body := d.Body(); body != nil {
		return body
	}
	return d.doc.Top()
}

// Resolver returns a resolver over the document body.
func (d *Document) Resolver() *Resolver {
	return NewResolver(d.scope())
}

// Append adds an element at the end of the body.
func (d *Document) Append(n *xml.Node) error {
	body := d.Body()
	if body == nil {
		return errors.NewStructural("append", "office:body", "document has no body")
	}
	body.Append(n)
	return nil
}

// Notes returns every note in document order.
func (d *Document) Notes() []*Note {
	var notes []*Note
	for _, n := range d.scope().GetElements("descendant::" + TagNote) {
		notes = append(notes, &Note{node: n})
	}
	return notes
}

// Note returns the note with the given id, or nil.
func (d *Document) Note(id string) *Note {
	n := d.scope().GetNote(id)
	if n == nil {
		return nil
	}
	return &Note{node: n}
}

// Annotations returns every annotation start in document order.
func (d *Document) Annotations() []*Annotation {
	var list []*Annotation
	for _, n := range d.scope().GetElements("descendant::" + TagAnnotation) {
		list = append(list, &Annotation{node: n})
	}
	return list
}

// AnnotationEnds returns every annotation end in document order.
func (d *Document) AnnotationEnds() []*AnnotationEnd {
	var list []*AnnotationEnd
	for _, n := range d.scope().GetElements("descendant::" + TagAnnotationEnd) {
		list = append(list, &AnnotationEnd{node: n})
	}
	return list
}

// Annotation returns the annotation named name, or nil.
func (d *Document) Annotation(name string) *Annotation {
	return d.Resolver().Start(name)
}

// Pair is an annotation and its end marker; End is nil for point
// annotations.
type Pair struct {
	Start *Annotation
	End   *AnnotationEnd
}

// Pairs returns every annotation with its located end.
func (d *Document) Pairs() []Pair {
	r := d.Resolver()
	var pairs []Pair
	for _, a := range d.Annotations() {
		pairs = append(pairs, Pair{Start: a, End: r.End(a.Name())})
	}
	return pairs
}

// OrphanEnds returns end markers with no annotation of the same name.
// They are valid and ignored; this is for reporting.
func (d *Document) OrphanEnds() []*AnnotationEnd {
	r := d.Resolver()
	var orphans []*AnnotationEnd
	for _, e := range d.AnnotationEnds() {
		if r.Start(e.Name()) == nil {
			orphans = append(orphans, e)
		}
	}
	return orphans
}

// Validate collects the violations of every note and annotation. Missing
// annotation dates are filled in as a side effect.
func (d *Document) Validate() []error {
	var violations []error
	for _, n := range d.Notes() {
		for _, v := range n.Validate() {
			violations = append(violations, errors.Wrapf(v, "note %q", n.ID()))
		}
	}
	for _, a := range d.Annotations() {
		for _, v := range a.Validate() {
			violations = append(violations, errors.Wrapf(v, "annotation %q", a.Name()))
		}
	}
	return violations
}

// Paragraphs returns the body's paragraphs and headings in document order,
// skipping those inside notes and annotations.
func (d *Document) Paragraphs() []*xml.Node {
	return d.scope().GetElements(
		"descendant::*[self::text:p or self::text:h][not(ancestor::text:note)][not(ancestor::office:annotation)]")
}

// FindParagraph returns the first paragraph whose own text contains
// substr.
func (d *Document) FindParagraph(substr string) (*xml.Node, error) {
	for _, p := range d.Paragraphs() {
		if strings.Contains(ownText(p), substr) {
			return p, nil
		}
	}
	return nil, errors.NewNotFound("paragraph", substr)
}

// ownText is the paragraph text without note and annotation content.
func ownText(p *xml.Node) string {
	var b strings.Builder
	for _, c := range p.ChildNodes() {
		if c.Is(TagNote) || c.Is(TagAnnotation) {
			continue
		}
		if c.IsText() {
			b.WriteString(c.Text())
			continue
		}
		b.WriteString(ownText(c))
	}
	return b.String()
}

// NewParagraph returns a text:p holding text.
func NewParagraph(text string) *xml.Node {
	p := xml.NewElement("text:p")
	if text != "" {
		p.Append(xml.NewText(text))
	}
	return p
}

// NewHeading returns a text:h of the given outline level holding text.
func NewHeading(text string, level int) *xml.Node {
	h := xml.NewElement("text:h")
	if level < 1 {
		level = 1
	}
	h.SetAttr("text:outline-level", strconv.Itoa(level))
	if text != "" {
		h.Append(xml.NewText(text))
	}
	return h
}

// InsertNote places note right after the first occurrence of after in the
// paragraph text, or at the end when after is empty.
func InsertNote(paragraph *xml.Node, after string, note *Note) error {
	return paragraph.InsertAtText(after, true, note.node)
}

// InsertAnnotation places the annotation right before the first
// occurrence of before, or at the start of the paragraph when before is
// empty.
func InsertAnnotation(paragraph *xml.Node, before string, a *Annotation) error {
	return paragraph.InsertAtText(before, false, a.node)
}

// InsertAnnotationEnd places the end marker right after the first
// occurrence of after, or at the end of the paragraph when after is empty.
// When the start is already in place, the end must follow it; otherwise
// the end marker is taken out again and a structural error returned.
func InsertAnnotationEnd(paragraph *xml.Node, after string, e *AnnotationEnd) error {
	if err := paragraph.InsertAtText(after, true, e.node); err != nil {
		return err
	}
	start, err := e.Start()
	if err != nil || start == nil {
		return err
	}
	if !start.node.Precedes(e.node) {
		e.node.Delete()
		return errors.NewStructural("insert end tag", TagAnnotationEnd,
			"end marker "+e.Name()+" would precede its start")
	}
	return nil
}
