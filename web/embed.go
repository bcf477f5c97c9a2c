// Package web holds the templates and static assets compiled into the binary.
package web

import "embed"

// EmbeddedFS contains templates/ and static/. The all: prefix keeps the
// underscore-named htmx fragments.
//
//go:embed all:templates static
var EmbeddedFS embed.FS
