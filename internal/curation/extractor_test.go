package curation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "whitespace only", text: " \n\t ", want: nil},
		{name: "no terminal", text: "no punctuation here", want: []string{"no punctuation here"}},
		{
			name: "mixed terminals",
			text: "Hello world.  How are\nyou? Fine!",
			want: []string{"Hello world.", "How are you?", "Fine!"},
		},
		{
			name: "abbreviation over-splits",
			text: "Dr. Smith arrived late.",
			want: []string{"Dr.", "Smith arrived late."},
		},
		{
			name: "mark without whitespace stays joined",
			text: "Version 2.5 shipped.Then nothing.",
			want: []string{"Version 2.5 shipped.Then nothing."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "  Robert  told me ,  a story\nabout uncertainty .  "
	once := Normalize(in)
	require.Equal(t, "Robert told me, a story about uncertainty.", once)
	require.Equal(t, once, Normalize(once))
}

func TestStripPageNoise(t *testing.T) {
	page := "THE BLACK SWAN\nSome text here.\n  42  \n\nmore text\nXIV\nPage iv\nChapter 3."
	require.Equal(t, "Some text here.\nmore text", StripPageNoise(page, DefaultRules()))
}

func TestStripPageNoise_KeepsRomanLetterWords(t *testing.T) {
	page := "It was\nvivid.\nThe\ncivil\nwar,\nmild\nand\nmix\nwere words\nI\nknew."
	require.Equal(t, page, StripPageNoise(page, DefaultRules()))
}
