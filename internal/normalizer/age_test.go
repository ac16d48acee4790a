package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dzieciakowo/ingest/internal/models"
)

func TestExtractAgeRange(t *testing.T) {
	tests := []struct {
		name string
		text string
		def  *models.AgeRange
		want models.AgeRange
	}{
		{
			name: "numeric span",
			text: "Warsztaty dla dzieci 3-6 lat",
			want: models.AgeRange{Min: 3, Max: 6},
		},
		{
			name: "numeric span with en dash",
			text: "Zajęcia 7–12 lat",
			want: models.AgeRange{Min: 7, Max: 12},
		},
		{
			name: "od X lat defaults max to full range",
			text: "Spektakl od 5 lat",
			want: models.AgeRange{Min: 5, Max: 18},
		},
		{
			name: "od X lat uses caller default max",
			text: "Spektakl od 5 lat",
			def:  &models.AgeRange{Min: 5, Max: 12},
			want: models.AgeRange{Min: 5, Max: 12},
		},
		{
			name: "do X lat",
			text: "Bajka dla dzieci do 8 lat",
			want: models.AgeRange{Min: 0, Max: 8},
		},
		{
			name: "plus form",
			text: "Gra miejska 10+",
			want: models.AgeRange{Min: 10, Max: 18},
		},
		{
			name: "numeric outranks keyword",
			text: "Przedszkolaki i uczniowie, 4-9 lat",
			want: models.AgeRange{Min: 4, Max: 9},
		},
		{
			name: "infant keyword",
			text: "Zajęcia dla niemowląt z rodzicami",
			want: models.AgeRange{Min: 0, Max: 1},
		},
		{
			name: "toddler keyword",
			text: "Poranek dla maluchów",
			want: models.AgeRange{Min: 1, Max: 3},
		},
		{
			name: "preschool keyword",
			text: "Teatrzyk dla przedszkolaków",
			want: models.AgeRange{Min: 3, Max: 6},
		},
		{
			name: "teen keyword",
			text: "Klub młodzieżowy",
			want: models.AgeRange{Min: 13, Max: 18},
		},
		{
			name: "family keyword",
			text: "Piknik rodzinny",
			want: models.AgeRange{Min: 0, Max: 18},
		},
		{
			name: "no signal falls back to full child range",
			text: "Wielkie otwarcie",
			want: FullChildRange,
		},
		{
			name: "no signal uses caller default",
			text: "Wielkie otwarcie",
			def:  &models.AgeRange{Min: 5, Max: 12},
			want: models.AgeRange{Min: 5, Max: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAgeRange(tt.text, tt.def)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid(), "extracted range must stay inside the child domain")
		})
	}
}
