package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/pagegraph"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := pagegraph.GraphFilter{Limit: c.Limit}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	recs, err := deps.Graphs.FindGraphs(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagegraph.ErrorMessage(err))
		return err
	}

	if len(recs) == 0 {
		fmt.Fprintln(deps.Stdout, "No graphs found. Use 'pagegraph analyze --save' to store one.")
		return nil
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, rec := range recs {
		md := rec.Graph.Metadata
		url := rec.URL
		if url == "" {
			url = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d objects\t%d relationships\t%.2f\t%s\t%s\n",
			rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"), md.TotalObjects, md.TotalRelationships,
			md.Performance.Complexity, url, md.Title)
	}
	return w.Flush()
}
