package main

import (
	"github.com/FocuswithJustin/odfnote/core/encoding"
	"github.com/FocuswithJustin/odfnote/core/fingerprint"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/catalog"
)

// CatalogGroup contains catalog database operations.
type CatalogGroup struct {
	Export CatalogExportCmd `cmd:"" help:"Record the notes and comments of documents"`
	List   CatalogListCmd   `cmd:"" help:"List recorded documents"`
	Show   CatalogShowCmd   `cmd:"" help:"Show the entries recorded for a document"`
}

// CatalogFlags locate the database.
type CatalogFlags struct {
	DB string `name:"db" help:"Catalog database (default: catalog.path from the config file)" type:"path"`
}

func (f CatalogFlags) open(app *App) (*catalog.Store, error) {
	path := f.DB
	if path == "" {
		path = app.Config.Catalog.Path
	}
	return catalog.Open(path)
}

// CatalogExportCmd records documents in the catalog.
type CatalogExportCmd struct {
	Paths []string `arg:"" help:"Documents or glob patterns (docs/**/*.odt)"`

	CatalogFlags `embed:""`
}

func (c *CatalogExportCmd) Run(app *App) error {
	paths, err := archive.Expand(c.Paths)
	if err != nil {
		return err
	}
	store, err := c.open(app)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range paths {
		src, doc, err := app.open(path)
		if err != nil {
			return err
		}
		run, err := store.Export(app.Ctx, path, doc, src.Content)
		if err != nil {
			return err
		}
		app.printf("%s: %d entries (run %s, blake3 %s)\n",
			path, run.Entries, run.ID, fingerprint.Short(run.Digest))
	}
	return nil
}

// CatalogListCmd lists recorded documents.
type CatalogListCmd struct {
	CatalogFlags `embed:""`
}

func (c *CatalogListCmd) Run(app *App) error {
	store, err := c.open(app)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(app.Ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		app.printf("%s  %d entries  %s  %s\n",
			r.Source, r.Entries, r.ExportedAt.Format("2006-01-02 15:04:05"), fingerprint.Short(r.Digest))
	}
	return nil
}

// CatalogShowCmd prints the entries of one document.
type CatalogShowCmd struct {
	Source string `arg:"" help:"Document path as it was exported"`

	CatalogFlags `embed:""`
}

func (c *CatalogShowCmd) Run(app *App) error {
	store, err := c.open(app)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries(app.Ctx, c.Source)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind {
		case catalog.KindNote:
			app.printf("%s %s %s [%s] %s\n", e.Kind, e.Name, e.Class, e.Citation, listing(e.Content))
		default:
			app.printf("%s %s %s: %s\n", e.Kind, e.Name, e.Creator, listing(e.Content))
			if e.Ranged {
				app.printf("    on: %q\n", encoding.Truncate(e.Annotated, listingWidth))
			}
		}
	}
	return nil
}
