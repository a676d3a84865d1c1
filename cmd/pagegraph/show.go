package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/pagegraph"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	rec, err := deps.Graphs.FindGraphByID(deps.Ctx, c.ID)
	if err != nil {
		if pagegraph.ErrorCode(err) == pagegraph.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: graph %q not found. Use 'pagegraph list' to see saved graphs.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagegraph.ErrorMessage(err))
		}
		return err
	}

	content, err := render(rec.Graph, c.Format)
	if err != nil {
		return err
	}

	if c.Format == "summary" {
		fmt.Fprintf(deps.Stdout, "Graph %s (saved %s, content %s)\n", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), rec.ContentHash)
	}
	fmt.Fprintln(deps.Stdout, strings.TrimRight(content, "\n"))
	return nil
}
