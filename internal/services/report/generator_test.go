package report

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Short strings pass through, got %q", got)
	}

	// Accented titles must never be cut mid-rune
	got := truncate("Observación de auditoría sobre documentación", 12)
	if !utf8.ValidString(got) {
		t.Errorf("Truncated string is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 12 {
		t.Errorf("Expected 12 runes, got %d (%q)", n, got)
	}

	if got := truncate("ááááá", 4); got != "á..." {
		t.Errorf("Expected %q, got %q", "á...", got)
	}
}
