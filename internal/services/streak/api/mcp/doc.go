// Package mcp defines the MCP tools and resources exposed by the streak
// service: typed tool input/output structs, the handlers that execute them
// against the streak domain, and the readable experiment listing resource.
package mcp
