package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dzieciakowo/ingest/internal/models"
)

const (
	// DefaultCurrency is assumed for every amount parsed from Polish text.
	DefaultCurrency = "PLN"

	// PlaceholderAmount is attached when price text is ambiguous. Ambiguous
	// price is assumed paid, not free, so an event is never advertised as
	// free by accident.
	PlaceholderAmount = 10
)

var freeKeywords = []string{
	"wstęp wolny",
	"wstęp bezpłatny",
	"wolny wstęp",
	"bezpłatn",
	"za darmo",
	"darmow",
	"gratis",
	"nieodpłatn",
}

var donationKeywords = []string{
	"dobrowoln",
	"co łaska",
	"cegiełk",
}

var amountRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d{1,2})?)\s*(?:zł|pln)`)

// ParsePrice classifies price text. A free keyword short-circuits everything,
// donation keywords beat a bare amount (a suggested donation still carries
// one), then a numeric amount means paid. No signal at all yields the paid
// placeholder.
func ParsePrice(text string) models.Price {
	lower := strings.ToLower(text)

	for _, kw := range freeKeywords {
		if strings.Contains(lower, kw) {
			return models.Price{Type: models.PriceFree}
		}
	}

	for _, kw := range donationKeywords {
		if strings.Contains(lower, kw) {
			p := models.Price{Type: models.PriceDonation, Currency: DefaultCurrency}
			if amount, ok := parseAmount(text); ok {
				p.Amount = amount
			}
			return p
		}
	}

	if amount, ok := parseAmount(text); ok {
		return models.Price{Type: models.PricePaid, Amount: amount, Currency: DefaultCurrency}
	}

	return models.Price{Type: models.PricePaid, Amount: PlaceholderAmount, Currency: DefaultCurrency}
}

func parseAmount(text string) (float64, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
