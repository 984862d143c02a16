// Package web holds the HTML views served by the browse pages.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
