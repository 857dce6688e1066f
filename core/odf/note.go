package odf

import (
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/xml"
)

// Element and attribute names of notes.
const (
	TagNote         = "text:note"
	TagNoteCitation = "text:note-citation"
	TagNoteBody     = "text:note-body"

	attrNoteClass = "text:note-class"
)

// NoteClass tells footnotes and endnotes apart.
type NoteClass string

const (
	Footnote NoteClass = "footnote"
	Endnote  NoteClass = "endnote"
)

// Valid reports whether c is footnote or endnote.
func (c NoteClass) Valid() bool {
	return c == Footnote || c == Endnote
}

// NoteOptions holds the optional parts of a new note. Empty fields are left
// unset and can be filled in later.
type NoteOptions struct {
	ID       string
	Citation string
	Body     Content
}

// Note is a footnote or endnote: a citation symbol shown in the text and a
// body shown at the bottom of the page or the end of the document.
type Note struct {
	node *xml.Node
}

// NewNote builds a detached text:note. An empty class means footnote. The
// citation and body regions are created here and reused for the life of
// the note.
func NewNote(class NoteClass, opts NoteOptions) (*Note, error) {
	if !opts.Body.IsZero() {
		if err := opts.Body.check(TagNoteBody); err != nil {
			return nil, err
		}
	}
	if class == "" {
		class = Footnote
	}

	node := xml.NewElement(TagNote)
	node.Insert(xml.NewElement(TagNoteBody), 0)
	node.Insert(xml.NewElement(TagNoteCitation), 0)
	n := &Note{node: node}
	n.SetClass(class)
	if opts.ID != "" {
		n.SetID(opts.ID)
	}
	if opts.Citation != "" {
		n.SetCitation(opts.Citation)
	}
	if !opts.Body.IsZero() {
		if err := n.SetBody(opts.Body); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// NoteFrom wraps an existing text:note element.
func NoteFrom(node *xml.Node) (*Note, error) {
	if !node.Is(TagNote) {
		return nil, errors.NewConstruction(TagNote, "element is "+node.Tag())
	}
	return &Note{node: node}, nil
}

// Node returns the underlying element.
func (n *Note) Node() *xml.Node { return n.node }

// Class returns the note class attribute as stored.
func (n *Note) Class() NoteClass { return NoteClass(n.node.Attr(attrNoteClass)) }

// SetClass sets the note class attribute. Unrecognized classes are stored
// and reported by Validate.
func (n *Note) SetClass(class NoteClass) { n.node.SetAttr(attrNoteClass, string(class)) }

// ID returns the note identifier.
func (n *Note) ID() string { return n.node.Attr(xml.AttrTextID) }

// SetID sets the note identifier.
func (n *Note) SetID(id string) { n.node.SetAttr(xml.AttrTextID, id) }

// Citation returns the citation text.
func (n *Note) Citation() string {
	return n.node.GetElement(TagNoteCitation).Text()
}

// SetCitation replaces the citation text. Only the citation region changes.
func (n *Note) SetCitation(text string) {
	region := n.citationRegion()
	region.Clear()
	if text != "" {
		region.Append(xml.NewText(text))
	}
}

// Body returns the full text of the body region.
func (n *Note) Body() string {
	return n.node.GetElement(TagNoteBody).TextContent()
}

// SetBody replaces the body region's content with c.
func (n *Note) SetBody(c Content) error {
	return c.replace(n.bodyRegion(), nil)
}

// BodyNode returns the body region element, nil if a parsed note has none.
func (n *Note) BodyNode() *xml.Node { return n.node.GetElement(TagNoteBody) }

// Validate reports missing class, id or citation. An empty body is
// accepted.
func (n *Note) Validate() []error {
	var violations []error
	if class := n.Class(); !class.Valid() {
		violations = append(violations,
			errors.NewValidation(TagNote, "note-class", `note class must be "footnote" or "endnote"`))
	}
	if n.ID() == "" {
		violations = append(violations, errors.NewValidation(TagNote, "id", "notes must have an id"))
	}
	if n.Citation() == "" {
		violations = append(violations, errors.NewValidation(TagNote, "citation", "notes must have a citation"))
	}
	return violations
}

// Delete removes the note from the tree. Nothing else is affected.
func (n *Note) Delete() { n.node.Delete() }

// citationRegion and bodyRegion are created by NewNote. Setters on parsed
// notes that lack one create it in the canonical position.
func (n *Note) citationRegion() *xml.Node {
	if region := n.node.GetElement(TagNoteCitation); region != nil {
		return region
	}
	region := xml.NewElement(TagNoteCitation)
	n.node.Insert(region, 0)
	return region
}

func (n *Note) bodyRegion() *xml.Node {
	if region := n.node.GetElement(TagNoteBody); region != nil {
		return region
	}
	region := xml.NewElement(TagNoteBody)
	n.node.Append(region)
	return region
}
