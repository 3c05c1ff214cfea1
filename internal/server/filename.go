package server

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	disallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.\- ]+`)
	whitespaceRuns          = regexp.MustCompile(`\s+`)
)

// SanitizeFilename normalizes a caller-supplied filename to a safe
// attachment name: drop characters outside [A-Za-z0-9_.- ], collapse
// whitespace runs to a single hyphen, lowercase, ensure a .pdf extension.
// An empty or fully-stripped input yields document-<unix-millis>.pdf.
func SanitizeFilename(name string) string {
	out := disallowedFilenameChars.ReplaceAllString(name, "")
	out = whitespaceRuns.ReplaceAllString(out, "-")
	out = strings.ToLower(out)

	if strings.Trim(out, "-.") == "" {
		return fmt.Sprintf("document-%d.pdf", time.Now().UnixMilli())
	}
	if !strings.HasSuffix(out, ".pdf") {
		out += ".pdf"
	}
	return out
}
