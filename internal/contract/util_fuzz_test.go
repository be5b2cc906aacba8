package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncateText fuzzes TruncateText with random text and widths.
func FuzzTruncateText(f *testing.F) {
	seeds := []struct {
		text  string
		width int
	}{
		{`{"Date":{"Year":2020}}`, 10},
		{"", 0},
		{"ääääää", 5},
		{"abc", -1},
	}
	for _, seed := range seeds {
		f.Add(seed.text, seed.width)
	}

	f.Fuzz(func(t *testing.T, text string, width int) {
		got := TruncateText(text, width)
		if width > 3 && utf8.RuneCountInString(got) > width {
			t.Fatalf("TruncateText(%q, %d) = %q is wider than %d", text, width, got, width)
		}
	})
}

// FuzzParseBoolString fuzzes ParseBoolString with random strings.
func FuzzParseBoolString(f *testing.F) {
	for _, seed := range []string{"yes", "no", "1", "0", "TRUE", "maybe", ""} {
		f.Add(seed)
	}

	f.Fuzz(func(_ *testing.T, s string) {
		_, _ = ParseBoolString(s)
	})
}
