// Package web embeds the browser upload page.
package web

import _ "embed"

// IndexHTML is the single-page upload client served at "/".
//
//go:embed index.html
var IndexHTML []byte
