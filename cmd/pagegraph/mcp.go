package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Run executes the mcp command. It serves until the client disconnects or
// the context is cancelled.
func (c *MCPCmd) Run(deps *Dependencies) error {
	return deps.Tools.NewServer().Run(deps.Ctx, &mcp.StdioTransport{})
}
