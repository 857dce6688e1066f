package main

import (
	"encoding/json"
	"strconv"

	"github.com/FocuswithJustin/odfnote/core/encoding"
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/locator"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// NotesGroup contains footnote and endnote operations.
type NotesGroup struct {
	List   NotesListCmd   `cmd:"" help:"List the notes of one or more documents"`
	Add    NotesAddCmd    `cmd:"" help:"Add a note to a paragraph"`
	Set    NotesSetCmd    `cmd:"" help:"Change the citation or body of a note"`
	Delete NotesDeleteCmd `cmd:"" help:"Remove a note"`
}

type noteView struct {
	Source   string `json:"source"`
	ID       string `json:"id"`
	Class    string `json:"class"`
	Citation string `json:"citation"`
	Body     string `json:"body"`
}

// NotesListCmd lists notes.
type NotesListCmd struct {
	Paths []string `arg:"" help:"Documents or glob patterns (docs/**/*.odt)"`
	JSON  bool     `help:"Print JSON instead of text"`
}

func (c *NotesListCmd) Run(app *App) error {
	paths, err := archive.Expand(c.Paths)
	if err != nil {
		return err
	}
	var views []noteView
	for _, path := range paths {
		_, doc, err := app.open(path)
		if err != nil {
			return err
		}
		for _, n := range doc.Notes() {
			views = append(views, noteView{
				Source:   path,
				ID:       n.ID(),
				Class:    string(n.Class()),
				Citation: n.Citation(),
				Body:     n.Body(),
			})
		}
	}

	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		if views == nil {
			views = []noteView{}
		}
		return enc.Encode(views)
	}
	source := ""
	for _, v := range views {
		if len(paths) > 1 && v.Source != source {
			app.printf("== %s\n", v.Source)
			source = v.Source
		}
		app.printf("%-12s %-8s [%s] %s\n", v.ID, v.Class, v.Citation, listing(v.Body))
	}
	return nil
}

// NotesAddCmd inserts a new note.
type NotesAddCmd struct {
	Path      string `arg:"" help:"Document to modify" type:"existingfile"`
	At        string `help:"Anchor and paragraph as one locator: STRING [in STRING]; the note goes after the anchor"`
	Paragraph string `help:"Text identifying the paragraph"`
	After     string `help:"Place the note after this text (default: end of paragraph)"`
	Class     string `help:"Note class" enum:"footnote,endnote" default:"footnote"`
	ID        string `help:"Note id (default: generated)"`
	IDPrefix  string `name:"id-prefix" help:"Prefix of generated ids" default:"ftn"`
	Citation  string `help:"Citation text (default: next number for the class)"`
	Body      string `required:"" help:"Note body text"`

	SaveFlags `embed:""`
}

// applyLocator fills the paragraph and anchor fields from --at.
func (c *NotesAddCmd) applyLocator() error {
	if c.At == "" {
		if c.Paragraph == "" {
			return errors.NewValidation(odf.TagNote, "paragraph", "pass --paragraph or --at")
		}
		return nil
	}
	if c.Paragraph != "" || c.After != "" {
		return errors.NewValidation(odf.TagNote, "at", "--at replaces --paragraph and --after")
	}
	r, err := locator.Parse(c.At)
	if err != nil {
		return err
	}
	if r.Ranged() {
		return errors.NewValidation(odf.TagNote, "at", "a note is placed at a point, not a range")
	}
	c.Paragraph, c.After = r.Start.In(), r.Start.Text
	return nil
}

func (c *NotesAddCmd) Run(app *App) error {
	if err := c.applyLocator(); err != nil {
		return err
	}
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}

	doc.Lock()
	p, err := doc.FindParagraph(c.Paragraph)
	if err != nil {
		doc.Unlock()
		return err
	}
	class := odf.NoteClass(c.Class)
	id := c.ID
	if id == "" {
		id = odf.NewNameAllocator(c.IDPrefix).UniqueOfficeName(p)
	} else if doc.Note(id) != nil {
		doc.Unlock()
		return errors.NewValidation(odf.TagNote, "id", "id "+id+" is already used")
	}
	citation := c.Citation
	if citation == "" {
		citation = strconv.Itoa(countNotes(doc, class) + 1)
	}
	note, err := odf.NewNote(class, odf.NoteOptions{ID: id, Citation: citation, Body: odf.Text(c.Body)})
	if err == nil {
		err = odf.InsertNote(p, c.After, note)
	}
	doc.Unlock()
	if err != nil {
		return err
	}

	logging.NoteEvent("added", id, string(class), "path", c.Path)
	app.printf("Added %s %s [%s]\n", class, id, citation)
	return app.save(src, doc, c.SaveFlags)
}

// listingWidth bounds note and comment text in text listings.
const listingWidth = 72

func listing(s string) string {
	return encoding.Truncate(encoding.OneLine(s), listingWidth)
}

func countNotes(doc *odf.Document, class odf.NoteClass) int {
	count := 0
	for _, n := range doc.Notes() {
		if n.Class() == class {
			count++
		}
	}
	return count
}

// NotesSetCmd edits an existing note.
type NotesSetCmd struct {
	Path     string `arg:"" help:"Document to modify" type:"existingfile"`
	ID       string `arg:"" help:"Note id"`
	Citation string `help:"New citation text"`
	Body     string `help:"New body text"`
	Class    string `help:"New note class: footnote or endnote"`

	SaveFlags `embed:""`
}

func (c *NotesSetCmd) Run(app *App) error {
	if c.Citation == "" && c.Body == "" && c.Class == "" {
		return errors.NewValidation(odf.TagNote, "", "nothing to change; pass --citation, --body or --class")
	}
	if c.Class != "" && !odf.NoteClass(c.Class).Valid() {
		return errors.NewValidation(odf.TagNote, "note-class", `note class must be "footnote" or "endnote"`)
	}
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	note := doc.Note(c.ID)
	if note == nil {
		return errors.NewNotFound("note", c.ID)
	}
	if c.Citation != "" {
		note.SetCitation(c.Citation)
	}
	if c.Body != "" {
		if err := note.SetBody(odf.Text(c.Body)); err != nil {
			return err
		}
	}
	if c.Class != "" {
		note.SetClass(odf.NoteClass(c.Class))
	}
	logging.NoteEvent("updated", c.ID, string(note.Class()), "path", c.Path)
	return app.save(src, doc, c.SaveFlags)
}

// NotesDeleteCmd removes a note.
type NotesDeleteCmd struct {
	Path string `arg:"" help:"Document to modify" type:"existingfile"`
	ID   string `arg:"" help:"Note id"`

	SaveFlags `embed:""`
}

func (c *NotesDeleteCmd) Run(app *App) error {
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	note := doc.Note(c.ID)
	if note == nil {
		return errors.NewNotFound("note", c.ID)
	}
	class := note.Class()
	note.Delete()
	logging.NoteEvent("deleted", c.ID, string(class), "path", c.Path)
	app.printf("Deleted %s %s\n", class, c.ID)
	return app.save(src, doc, c.SaveFlags)
}
