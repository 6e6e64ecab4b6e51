package textnorm

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts Options
		want string
	}{
		{"empty", "", Options{}, ""},
		{"lowercases", "The CAT Sat", Options{}, "the cat sat"},
		{"strips punctuation", "Hello, world! It's (really) \"fine\"...", Options{}, "hello world its really fine"},
		{"removes newlines without spacing", "line one\n line two\n", Options{}, "line one line two"},
		{"joins words split by bare newline", "end\nstart", Options{}, "endstart"},
		{"keeps double spaces by default", "a  b", Options{}, "a  b"},
		{"collapses double spaces", "a  b   c", Options{CollapseSpaces: true}, "a b  c"},
		{"keeps non ascii punctuation", "café — naïve", Options{}, "café — naïve"},
		{"strips every ascii mark", Punctuation, Options{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.opts); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := "Call me Ishmael. Some years ago--never mind how long precisely--"
	first := Normalize(raw, Options{})
	for i := 0; i < 5; i++ {
		if got := Normalize(raw, Options{}); got != first {
			t.Fatalf("run %d produced %q, want %q", i, got, first)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("  the\tcat  sat\r\non ")
	want := []string{"the", "cat", "sat", "on"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens() = %v, want %v", got, want)
	}
	if got := Tokens(""); len(got) != 0 {
		t.Fatalf("Tokens(\"\") = %v, want empty", got)
	}
}
