// Package web holds the single page that drives the viewer API.
package web

import (
	_ "embed"
)

//go:embed index.html
var Index []byte
