package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/batch"
	"github.com/fwojciec/pagegraph/fs"
)

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	if c.URL != "" && len(c.Sources) != 1 {
		fmt.Fprintln(deps.Stderr, "error: --url requires exactly one source")
		return pagegraph.Errorf(pagegraph.EINVALID, "--url requires exactly one source")
	}

	var progress batch.ProgressFunc
	if len(c.Sources) > 1 {
		progress = func(e batch.ProgressEvent) {
			if line, ok := progressLine(e); ok {
				fmt.Fprintln(deps.Stderr, line)
			}
		}
	}

	res, err := deps.Runner.Run(deps.Ctx, c.Sources, progress)
	if err != nil {
		return err
	}

	var store *fs.ExportStore
	if c.Out != "" {
		out := filepath.Clean(c.Out)
		store = fs.NewExportStore(filepath.Dir(out), filepath.Base(out))
	}

	var outputs []string
	for _, item := range res.Items {
		if item.Err != nil {
			if progress == nil {
				fmt.Fprintf(deps.Stderr, "error: %s: %s\n", item.Source, pagegraph.ErrorMessage(item.Err))
			}
			continue
		}

		content, err := render(item.Graph, c.Format)
		if err != nil {
			if store != nil {
				_ = store.Abort()
			}
			return err
		}

		if store != nil {
			path, err := store.Save(deps.Ctx, item.Source, extension(c.Format), content)
			if err != nil {
				_ = store.Abort()
				fmt.Fprintf(deps.Stderr, "error: %s\n", pagegraph.ErrorMessage(err))
				return err
			}
			outputs = append(outputs, path)
		} else {
			fmt.Fprintln(deps.Stdout, strings.TrimRight(content, "\n"))
		}

		if item.Record != nil {
			fmt.Fprintf(deps.Stderr, "Saved graph %s (%s)\n", item.Record.ID, item.Source)
		}
	}

	if store != nil {
		if err := store.Commit(); err != nil {
			return err
		}
		for _, path := range outputs {
			fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
		}
	}

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d sources failed", res.Failed, len(c.Sources))
	}
	return nil
}
