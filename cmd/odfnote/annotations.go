package main

import (
	"encoding/json"
	"slices"

	"github.com/FocuswithJustin/odfnote/core/encoding"
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/fingerprint"
	"github.com/FocuswithJustin/odfnote/core/locator"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/core/xml"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/logging"
)

// AnnotationGroup contains comment operations.
type AnnotationGroup struct {
	List    AnnotationsListCmd    `cmd:"" help:"List the comments of one or more documents"`
	Add     AnnotationsAddCmd     `cmd:"" help:"Add a point or range comment"`
	Extract AnnotationsExtractCmd `cmd:"" help:"Print the text a range comment covers"`
	Rename  AnnotationsRenameCmd  `cmd:"" help:"Rename a comment and its end marker"`
	Delete  AnnotationsDeleteCmd  `cmd:"" help:"Remove a comment and its end marker"`
}

type annotationView struct {
	Source      string `json:"source"`
	Name        string `json:"name"`
	Creator     string `json:"creator,omitempty"`
	Date        string `json:"date,omitempty"`
	Content     string `json:"content"`
	Ranged      bool   `json:"ranged"`
	Annotated   string `json:"annotated,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// AnnotationsListCmd lists comments.
type AnnotationsListCmd struct {
	Paths []string `arg:"" help:"Documents or glob patterns (docs/**/*.odt)"`
	JSON  bool     `help:"Print JSON instead of text"`
}

func (c *AnnotationsListCmd) Run(app *App) error {
	paths, err := archive.Expand(c.Paths)
	if err != nil {
		return err
	}
	views := []annotationView{}
	for _, path := range paths {
		_, doc, err := app.open(path)
		if err != nil {
			return err
		}
		for _, pair := range doc.Pairs() {
			a := pair.Start
			v := annotationView{
				Source:  path,
				Name:    a.Name(),
				Creator: a.Creator(),
				Content: a.Content(),
				Ranged:  pair.End != nil,
			}
			if d := a.Date(); !d.IsZero() {
				v.Date = d.Format(odf.DateLayout)
			}
			if v.Ranged {
				if v.Annotated, err = a.AnnotatedText(odf.DefaultExtractOptions()); err != nil {
					return errors.Wrapf(err, "annotation %q", v.Name)
				}
				v.Fingerprint = fingerprint.Short(fingerprint.Text(v.Annotated))
			}
			views = append(views, v)
		}
		for _, orphan := range doc.OrphanEnds() {
			logging.WarnContext(app.Ctx, "annotation end without start", "path", path, "name", orphan.Name())
		}
	}

	if c.JSON {
		enc := json.NewEncoder(app.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	source := ""
	for _, v := range views {
		if len(paths) > 1 && v.Source != source {
			app.printf("== %s\n", v.Source)
			source = v.Source
		}
		kind := "point"
		if v.Ranged {
			kind = "range"
		}
		app.printf("%s (%s) %s %s: %s\n", v.Name, kind, v.Creator, v.Date, listing(v.Content))
		if v.Ranged {
			app.printf("    on: %q\n", encoding.Truncate(v.Annotated, listingWidth))
		}
	}
	return nil
}

// AnnotationsAddCmd inserts a new comment. With --end-paragraph or
// --after it spans from the start marker to the end marker.
type AnnotationsAddCmd struct {
	Path         string `arg:"" help:"Document to modify" type:"existingfile"`
	At           string `help:"Range as one locator: STRING [in STRING] [.. STRING [in STRING]]"`
	Paragraph    string `help:"Text identifying the paragraph the comment starts in"`
	Before       string `help:"Start the comment before this text (default: start of paragraph)"`
	EndParagraph string `name:"end-paragraph" help:"Text identifying the paragraph the range ends in (default: the start paragraph)"`
	After        string `help:"End the range after this text"`
	Text         string `required:"" help:"Comment text"`
	Creator      string `help:"Author (default: creator from the config file)"`
	Name         string `help:"Annotation name (default: generated)"`

	SaveFlags `embed:""`
}

func (c *AnnotationsAddCmd) ranged() bool {
	return c.EndParagraph != "" || c.After != ""
}

// applyLocator fills the paragraph and anchor fields from --at.
func (c *AnnotationsAddCmd) applyLocator() error {
	if c.At == "" {
		if c.Paragraph == "" {
			return errors.NewValidation(odf.TagAnnotation, "paragraph", "pass --paragraph or --at")
		}
		return nil
	}
	if c.Paragraph != "" || c.Before != "" || c.EndParagraph != "" || c.After != "" {
		return errors.NewValidation(odf.TagAnnotation, "at", "--at replaces --paragraph, --before, --end-paragraph and --after")
	}
	r, err := locator.Parse(c.At)
	if err != nil {
		return err
	}
	c.Paragraph, c.Before = r.Start.In(), r.Start.Text
	if r.End != nil {
		c.EndParagraph, c.After = r.End.In(), r.End.Text
	}
	return nil
}

func (c *AnnotationsAddCmd) Run(app *App) error {
	if err := c.applyLocator(); err != nil {
		return err
	}
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	creator := c.Creator
	if creator == "" {
		creator = app.Config.Creator
	}

	doc.Lock()
	name, err := c.insert(doc, creator, app.Config.Allocator())
	doc.Unlock()
	if err != nil {
		return err
	}

	logging.AnnotationEvent("added", name, c.ranged(), "path", c.Path)
	app.printf("Added annotation %s\n", name)
	return app.save(src, doc, c.SaveFlags)
}

// insert places the start marker and, for ranges, the end marker. The
// caller holds the document lock.
func (c *AnnotationsAddCmd) insert(doc *odf.Document, creator string, alloc *odf.NameAllocator) (string, error) {
	if c.Name != "" && slices.Contains(doc.Resolver().Names(), c.Name) {
		return "", errors.NewValidation(odf.TagAnnotation, "name", "name "+c.Name+" is already used")
	}
	p, err := doc.FindParagraph(c.Paragraph)
	if err != nil {
		return "", err
	}
	endParagraph := p
	if c.EndParagraph != "" {
		if endParagraph, err = doc.FindParagraph(c.EndParagraph); err != nil {
			return "", err
		}
	}

	a, err := odf.NewAnnotation(odf.AnnotationOptions{
		Content:   odf.Text(c.Text),
		Creator:   creator,
		Name:      c.Name,
		Parent:    p,
		Allocator: alloc,
	})
	if err != nil {
		return "", err
	}
	if err := odf.InsertAnnotation(p, c.Before, a); err != nil {
		return "", err
	}
	if !c.ranged() {
		return a.Name(), nil
	}

	end, err := odf.NewAnnotationEnd(a, "")
	if err == nil {
		err = odf.InsertAnnotationEnd(endParagraph, c.After, end)
	}
	if err != nil {
		a.Node().Delete()
		return "", err
	}
	return a.Name(), nil
}

// AnnotationsExtractCmd prints the content a comment spans.
type AnnotationsExtractCmd struct {
	Path         string `arg:"" help:"Document to read" type:"existingfile"`
	Name         string `arg:"" help:"Annotation name"`
	KeepHeadings bool   `name:"keep-headings" help:"Keep headings instead of turning them into paragraphs"`
	Raw          bool   `help:"Keep change tracking, bookmarks and nested comments"`
	XML          bool   `name:"xml" help:"Print the extracted markup instead of its text"`
}

func (c *AnnotationsExtractCmd) Run(app *App) error {
	_, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	a := doc.Annotation(c.Name)
	if a == nil {
		return errors.NewNotFound("annotation", c.Name)
	}
	opts := odf.ExtractOptions{StripHeaders: !c.KeepHeadings, Clean: !c.Raw}

	if c.XML {
		nodes, err := a.AnnotatedNodes(opts)
		if err != nil {
			return err
		}
		_, err = app.Out.Write(xml.FormatNodes(nodes, xml.FormatOptions{}))
		return err
	}
	text, err := a.AnnotatedText(opts)
	if err != nil {
		return err
	}
	app.printf("%s\n", text)
	return nil
}

// AnnotationsRenameCmd renames a comment together with its end marker.
type AnnotationsRenameCmd struct {
	Path    string `arg:"" help:"Document to modify" type:"existingfile"`
	Name    string `arg:"" help:"Current annotation name"`
	NewName string `arg:"" name:"new-name" help:"New annotation name"`

	SaveFlags `embed:""`
}

func (c *AnnotationsRenameCmd) Run(app *App) error {
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	a := doc.Annotation(c.Name)
	if a == nil {
		return errors.NewNotFound("annotation", c.Name)
	}
	if slices.Contains(doc.Resolver().Names(), c.NewName) {
		return errors.NewValidation(odf.TagAnnotation, "name", "name "+c.NewName+" is already used")
	}
	end, err := a.End()
	if err != nil {
		return err
	}
	a.SetName(c.NewName)
	if end != nil {
		end.SetName(c.NewName)
	}
	logging.AnnotationEvent("renamed", c.NewName, end != nil, "path", c.Path, "old_name", c.Name)
	app.printf("Renamed %s to %s\n", c.Name, c.NewName)
	return app.save(src, doc, c.SaveFlags)
}

// AnnotationsDeleteCmd removes a comment and its end marker.
type AnnotationsDeleteCmd struct {
	Path string `arg:"" help:"Document to modify" type:"existingfile"`
	Name string `arg:"" help:"Annotation name"`

	SaveFlags `embed:""`
}

func (c *AnnotationsDeleteCmd) Run(app *App) error {
	src, doc, err := app.open(c.Path)
	if err != nil {
		return err
	}
	a := doc.Annotation(c.Name)
	if a == nil {
		return errors.NewNotFound("annotation", c.Name)
	}
	end, err := a.End()
	if err != nil {
		return err
	}
	if err := a.Delete(nil); err != nil {
		return err
	}
	logging.AnnotationEvent("deleted", c.Name, end != nil, "path", c.Path)
	app.printf("Deleted annotation %s\n", c.Name)
	return app.save(src, doc, c.SaveFlags)
}
