package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/fs"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	rec, err := deps.Graphs.FindGraphByID(deps.Ctx, c.ID)
	if err != nil {
		if pagegraph.ErrorCode(err) == pagegraph.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: graph %q not found. Use 'pagegraph list' to see saved graphs.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagegraph.ErrorMessage(err))
		}
		return err
	}

	exp, err := newExporter(c.Format)
	if err != nil {
		return err
	}
	content, err := exp.Export(rec.Graph)
	if err != nil {
		return err
	}

	if c.Out == "" {
		fmt.Fprintln(deps.Stdout, strings.TrimRight(content, "\n"))
		return nil
	}

	out := filepath.Clean(c.Out)
	store := fs.NewExportStore(filepath.Dir(out), filepath.Base(out))
	path, err := store.Save(deps.Ctx, rec.ID, exp.Format(), content)
	if err != nil {
		_ = store.Abort()
		return err
	}
	if err := store.Commit(); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
	return nil
}
