package main

import (
	"fmt"
)

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	addr := deps.Config.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	fmt.Fprintf(deps.Stderr, "Listening on %s\n", addr)
	if err := deps.Server.ListenAndServe(deps.Ctx, addr); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return err
	}
	return nil
}
