package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"plain text", "plain text"},
		{"a-b.c!", "a\\-b\\.c\\!"},
		{"*bold* _it_ [link](url)", "\\*bold\\* \\_it\\_ \\[link\\]\\(url\\)"},
		{"Ли!", "Ли\\!"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := EscapeMarkdownV2(tc.in); got != tc.expected {
			t.Fatalf("EscapeMarkdownV2(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}
