package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "Warsztaty\n\t plastyczne  dla dzieci", "Warsztaty plastyczne dla dzieci"},
		{"trims", "  Teatrzyk  ", "Teatrzyk"},
		{"canonicalizes polish quotes", "Spektakl „Kot w butach”", `Spektakl "Kot w butach"`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_CapsLength(t *testing.T) {
	long := strings.Repeat("ż", 3000)
	got := NormalizeText(long)
	assert.LessOrEqual(t, len(got), maxTextLen)
	// must still be valid UTF-8 after the cut
	assert.NotContains(t, got, "�")
	for _, r := range got {
		assert.Equal(t, 'ż', r)
	}
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "explicit miejsce label",
			text: "Zapraszamy! Miejsce: Sala widowiskowa MDK",
			want: "Sala widowiskowa MDK",
		},
		{
			name: "explicit adres label",
			text: "adres: ul. Długa 12, Gdańsk",
			want: "ul. Długa 12",
		},
		{
			name: "street preposition",
			text: "Spotykamy się przy ul. Polnej 3",
			want: "ul. Polnej 3",
		},
		{
			name: "locative preposition with proper noun",
			text: "Warsztaty w Bibliotece Miejskiej",
			want: "Bibliotece Miejskiej",
		},
		{
			name: "label outranks preposition",
			text: "w Krakowie, miejsce: Teatr Groteska",
			want: "Teatr Groteska",
		},
		{
			name: "no match",
			text: "zapraszamy wszystkich serdecznie",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLocation(tt.text))
		})
	}
}

func TestNormalizeVenue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"known abbreviation", "MDK", "Młodzieżowy Dom Kultury"},
		{"abbreviation with suffix", "MDK Ochota", "Młodzieżowy Dom Kultury Ochota"},
		{"lowercase abbreviation", "mok", "Miejski Ośrodek Kultury"},
		{"multiword alias", "Teatr Lalek", "Teatr Lalek"},
		{"unknown passes through trimmed", "  Pałac Młodzieży  ", "Pałac Młodzieży"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVenue(tt.in))
		})
	}
}
