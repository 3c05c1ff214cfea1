package server

import _ "embed"

// editorPage is the HTML editor served at GET /. It posts to /render and
// downloads the resulting PDF.
//
//go:embed editor.html
var editorPage []byte
