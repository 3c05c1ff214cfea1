package server

import (
	"regexp"
	"testing"
)

var documentPattern = regexp.MustCompile(`^document-\d+\.pdf$`)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"special chars stripped", "My Report #1.pdf", "my-report-1.pdf"},
		{"extension appended", "Q3 Report", "q3-report.pdf"},
		{"uppercase extension kept once lowered", "Invoice.PDF", "invoice.pdf"},
		{"path separators removed", "../../etc/passwd", "....etcpasswd.pdf"},
		{"non-space whitespace stripped", "a\t\tb", "ab.pdf"},
		{"already clean", "statement.pdf", "statement.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameSynthesized(t *testing.T) {
	for _, input := range []string{"", "   ", "###", "///"} {
		got := SanitizeFilename(input)
		if !documentPattern.MatchString(got) {
			t.Errorf("SanitizeFilename(%q) = %q, want document-<millis>.pdf", input, got)
		}
	}
}
