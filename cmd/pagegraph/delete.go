package main

import (
	"fmt"

	"github.com/fwojciec/pagegraph"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return pagegraph.Errorf(pagegraph.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Graphs.DeleteGraph(deps.Ctx, c.ID); err != nil {
		if pagegraph.ErrorCode(err) == pagegraph.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: graph %q not found. Use 'pagegraph list' to see saved graphs.\n", c.ID)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", pagegraph.ErrorMessage(err))
		}
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted graph %s\n", c.ID)
	return nil
}
