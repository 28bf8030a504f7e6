// Package server composes and runs the streak MCP process boundary.
//
// It wires the streak tool handlers, the experiment resource, and the
// optional SQLite experiment store into a runnable MCP server serving either
// stdio or HTTP.
package server
