//go:build tools

// Package tools pins development tools invoked with go run so that go.mod
// tracks their versions.
package tools

import (
	_ "github.com/nikolaydubina/go-cover-treemap"
)
