package main

import (
	"io/fs"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/validation"
)

// SnapshotGroup contains snapshot operations.
type SnapshotGroup struct {
	Show    SnapshotShowCmd    `cmd:"" help:"Print a snapshot's manifest"`
	Restore SnapshotRestoreCmd `cmd:"" help:"Write a snapshot's content back to a document"`
}

// SnapshotShowCmd prints a snapshot manifest.
type SnapshotShowCmd struct {
	Path string `arg:"" help:"Snapshot archive (.tar.xz)" type:"existingfile"`
}

func (c *SnapshotShowCmd) Run(app *App) error {
	manifest, content, err := archive.ReadSnapshot(c.Path)
	if err != nil {
		return err
	}
	app.printf("Source:    %s\n", manifest.Source)
	app.printf("Container: %s\n", manifest.Container)
	app.printf("Taken:     %s\n", manifest.TakenAt.Format("2006-01-02 15:04:05 MST"))
	app.printf("SHA-256:   %s\n", manifest.SHA256)
	app.printf("BLAKE3:    %s\n", manifest.BLAKE3)
	app.printf("Size:      %d bytes\n", len(content))
	return nil
}

// SnapshotRestoreCmd writes snapshot content back.
type SnapshotRestoreCmd struct {
	Path string `arg:"" help:"Snapshot archive (.tar.xz)" type:"existingfile"`
	To   string `help:"Document to restore into (default: the snapshot's source)" type:"path"`
}

func (c *SnapshotRestoreCmd) Run(app *App) error {
	manifest, content, err := archive.ReadSnapshot(c.Path)
	if err != nil {
		return err
	}
	if _, err := odf.ParseDocument(content); err != nil {
		return errors.Wrap(err, "snapshot content")
	}
	target := c.To
	if target == "" {
		target = manifest.Source
	}
	if err := validation.ValidatePath(target); err != nil {
		return err
	}

	// Restoring into an existing package keeps its other members.
	src, err := archive.Load(target)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		src = &archive.Source{Path: target, Container: manifest.Container}
	}
	if err := src.Save(content, ""); err != nil {
		return err
	}
	app.printf("Restored: %s\n", target)
	return nil
}
