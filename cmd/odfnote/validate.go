package main

import (
	"fmt"

	"github.com/FocuswithJustin/odfnote/core/cache"
	"github.com/FocuswithJustin/odfnote/core/errors"
	"github.com/FocuswithJustin/odfnote/core/odf"
	"github.com/FocuswithJustin/odfnote/internal/archive"
	"github.com/FocuswithJustin/odfnote/internal/logging"
	"github.com/FocuswithJustin/odfnote/internal/watch"
)

// ValidateCmd reports notes without id, class or citation and comments
// without body or creator.
type ValidateCmd struct {
	Paths []string `arg:"" help:"Documents or glob patterns (docs/**/*.odt)"`
	Fix   bool     `help:"Save documents whose missing comment dates were filled in"`
	Watch bool     `help:"Keep running and re-check documents when they change"`

	reports *cache.ReportCache
}

func (c *ValidateCmd) Run(app *App) error {
	paths, err := archive.Expand(c.Paths)
	if err != nil {
		return err
	}
	c.reports = cache.NewReportCache(4 * len(paths))

	failed := 0
	for _, path := range paths {
		ok, err := c.check(app, path)
		if err != nil {
			return err
		}
		if !ok {
			failed++
		}
	}

	if c.Watch {
		w, err := watch.New(paths, 0)
		if err != nil {
			return err
		}
		defer w.Close()
		app.printf("Watching %d document(s)\n", len(paths))
		err = w.Run(app.Ctx, func(path string) {
			if _, err := c.check(app, path); err != nil {
				logging.ErrorContext(app.Ctx, "validation failed", "path", path, "error", err)
			}
		})
		stats := c.reports.Stats()
		logging.DebugContext(app.Ctx, "validation cache", "hits", stats.Hits, "misses", stats.Misses)
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d document(s) have violations", failed, len(paths))
	}
	return nil
}

// check validates one document and prints its report. It reports whether
// the document is free of violations. Content seen before is not parsed
// again unless dates are being fixed.
func (c *ValidateCmd) check(app *App, path string) (bool, error) {
	src, err := app.load(path)
	if err != nil {
		return false, err
	}
	if !c.Fix {
		if report, ok := c.reports.Get(src.Content); ok {
			c.print(app, path, report)
			return report.OK(), nil
		}
	}

	doc, err := odf.ParseDocument(src.Content)
	if err != nil {
		return false, errors.Wrapf(err, "parsing %s", path)
	}
	undated := 0
	for _, a := range doc.Annotations() {
		if a.Node().GetElement("dc:date").TextContent() == "" {
			undated++
		}
	}

	violations := doc.Validate()
	logging.ValidationReport(path, violations)
	var report cache.Report
	for _, v := range violations {
		report.Violations = append(report.Violations, v.Error())
	}
	for _, orphan := range doc.OrphanEnds() {
		report.Orphans = append(report.Orphans, orphan.Name())
	}
	c.reports.Put(src.Content, report)
	c.print(app, path, report)

	if c.Fix && undated > 0 {
		logging.InfoContext(app.Ctx, "filled comment dates", "path", path, "count", undated)
		app.printf("%s: filled in %d comment date(s)\n", path, undated)
		if err := app.save(src, doc, SaveFlags{}); err != nil {
			return false, err
		}
	}
	return report.OK(), nil
}

func (c *ValidateCmd) print(app *App, path string, report cache.Report) {
	for _, v := range report.Violations {
		app.printf("%s: %s\n", path, v)
	}
	for _, name := range report.Orphans {
		app.printf("%s: note: end marker %q has no matching comment\n", path, name)
	}
	if report.OK() {
		app.printf("%s: ok\n", path)
	}
}
