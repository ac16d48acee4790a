package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dzieciakowo/ingest/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Price
	}{
		{
			name: "wstep wolny is free",
			text: "Wstęp wolny, zapraszamy całe rodziny",
			want: models.Price{Type: models.PriceFree},
		},
		{
			name: "bezplatne is free",
			text: "Zajęcia bezpłatne, zapisy w sekretariacie",
			want: models.Price{Type: models.PriceFree},
		},
		{
			name: "za darmo is free",
			text: "dla dzieci za darmo",
			want: models.Price{Type: models.PriceFree},
		},
		{
			name: "plain amount is paid",
			text: "Bilety: 30 zł",
			want: models.Price{Type: models.PricePaid, Amount: 30, Currency: "PLN"},
		},
		{
			name: "decimal comma amount",
			text: "wejściówka 12,50 zł od osoby",
			want: models.Price{Type: models.PricePaid, Amount: 12.5, Currency: "PLN"},
		},
		{
			name: "PLN suffix",
			text: "koszt udziału 45 PLN",
			want: models.Price{Type: models.PricePaid, Amount: 45, Currency: "PLN"},
		},
		{
			name: "donation keyword",
			text: "Wstęp: dobrowolna wpłata",
			want: models.Price{Type: models.PriceDonation, Currency: "PLN"},
		},
		{
			name: "donation with suggested amount",
			text: "dobrowolna cegiełka 5 zł",
			want: models.Price{Type: models.PriceDonation, Amount: 5, Currency: "PLN"},
		},
		{
			name: "empty text defaults to paid placeholder",
			text: "",
			want: models.Price{Type: models.PricePaid, Amount: PlaceholderAmount, Currency: "PLN"},
		},
		{
			name: "no signal defaults to paid placeholder",
			text: "Wielki finał sezonu artystycznego",
			want: models.Price{Type: models.PricePaid, Amount: PlaceholderAmount, Currency: "PLN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.text))
		})
	}
}
