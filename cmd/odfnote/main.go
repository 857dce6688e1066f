// Command odfnote lists, adds and checks footnotes, endnotes and comments
// in ODF text documents.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/catalog"
	"github.com/FocuswithJustin/odfnote/internal/config"
	"github.com/FocuswithJustin/odfnote/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for odfnote.
type CLI struct {
	// Global flags
	Config    string `help:"Config file; YAML, or TOML with a .toml extension" type:"path" env:"ODFNOTE_CONFIG"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`

	// Command groups (noun-first organization)
	Notes       NotesGroup      `cmd:"" help:"Footnote and endnote operations"`
	Annotations AnnotationGroup `cmd:"" help:"Comment operations (list, add, extract, delete)"`
	Validate    ValidateCmd     `cmd:"" help:"Check notes and comments for missing parts"`
	Catalog     CatalogGroup    `cmd:"" help:"Record notes and comments in a SQLite catalog"`
	Snapshot    SnapshotGroup   `cmd:"" help:"Inspect and restore pre-save snapshots"`
	Setup       ConfigGroup     `cmd:"" name:"config" help:"Configuration file operations"`
	Version     VersionCmd      `cmd:"" help:"Print version information"`
}

// App is bound into every command's Run method.
type App struct {
	Ctx    context.Context
	Out    io.Writer
	Config *config.Config
	// ConfigPath is the file the configuration was read from.
	ConfigPath string
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

// app loads the configuration and applies the logging flags.
func (c *CLI) app(ctx context.Context, out io.Writer) (*App, error) {
	path := c.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return nil, err
	}
	return &App{Ctx: ctx, Out: out, Config: cfg, ConfigPath: path}, nil
}

// load checks and loads the document at path without parsing it.
func (a *App) load(path string) (*archive.Source, error) {
	if _, err := validation.CheckDocument(path); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}
	return archive.Load(path)
}

// open loads and parses the document at path.
func (a *App) open(path string) (*archive.Source, *odf.Document, error) {
	src, err := a.load(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := odf.ParseDocument(src.Content)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing %s", path)
	}
	return src, doc, nil
}

// SaveFlags are shared by the commands that modify a document.
type SaveFlags struct {
	Out         string `help:"Write the result here instead of overwriting the input" type:"path"`
	SnapshotDir string `name:"snapshot-dir" help:"Directory, relative to the document, for a tar.xz snapshot taken before saving"`
}

// save writes doc back through src, taking a snapshot first when asked.
func (a *App) save(src *archive.Source, doc *odf.Document, flags SaveFlags) error {
	if flags.Out != "" {
		if err := validation.ValidatePath(flags.Out); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}
	if flags.SnapshotDir != "" {
		base := filepath.Dir(src.Path)
		rel, err := validation.SanitizePath(base, flags.SnapshotDir)
		if err != nil {
			return fmt.Errorf("invalid snapshot directory: %w", err)
		}
		name := fmt.Sprintf("%s.%s.tar.xz", filepath.Base(src.Path), time.Now().UTC().Format("20060102T150405Z"))
		snapPath := filepath.Join(base, rel, name)
		if _, err := src.WriteSnapshot(snapPath); err != nil {
			return err
		}
		a.printf("Snapshot: %s\n", snapPath)
	}
	if err := src.Save(doc.Bytes(), flags.Out); err != nil {
		return err
	}
	target := flags.Out
	if target == "" {
		target = src.Path
	}
	a.printf("Saved: %s\n", target)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	app.printf("odfnote version %s (sqlite driver %s)\n", version, catalog.DriverPackage())
	return nil
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("odfnote"),
		kong.Description("Footnotes, endnotes and comments in ODF text documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
	)
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	app, err := cli.app(ctx, stdout)
	if err != nil {
		return err
	}
	return kctx.Run(app)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "odfnote: %v\n", err)
		stop()
		os.Exit(1)
	}
}
