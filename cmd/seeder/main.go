// Command seeder fills a development database with synthetic events pushed
// through the regular reconcile path, so listings and moderation screens
// have realistic data to work against.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/dzieciakowo/ingest/internal/gateway"
	"github.com/dzieciakowo/ingest/internal/models"
	"github.com/dzieciakowo/ingest/internal/repository"
)

var venues = []string{
	"Biblioteka Miejska",
	"Teatr Bajka",
	"Młodzieżowy Dom Kultury",
	"Centrum Kultury",
	"Ośrodek Sportu i Rekreacji",
}

var titles = []string{
	"Warsztaty plastyczne",
	"Poranek z bajką",
	"Turniej piłkarzyków",
	"Spektakl Kot w butach",
	"Zajęcia taneczne dla dzieci",
	"Rodzinne śpiewanki",
	"Lekcja muzealna",
}

var categories = []models.Category{
	models.CategoryWorkshop,
	models.CategoryPerformance,
	models.CategorySport,
	models.CategoryEducation,
	models.CategoryOther,
}

func main() {
	count := flag.Int("count", 50, "number of events to seed")
	dsn := flag.String("dsn", "postgres://dzieciakowo:@localhost:5432/dzieciakowo_events?sslmode=disable", "postgres connection string")
	seed := flag.Int64("seed", 0, "random seed (0 = random)")
	flag.Parse()

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	ctx := context.Background()
	store, err := repository.NewPostgresStore(ctx, *dsn)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer store.Close()

	gw := gateway.New(store, nil)

	created, updated := 0, 0
	for i := 0; i < *count; i++ {
		ev := fakeEvent()
		outcome, err := gw.Reconcile(ctx, "seeder", models.TrustCommunity, ev)
		if err != nil {
			log.Printf("Failed to seed event %q: %v", ev.Title, err)
			continue
		}
		if outcome == gateway.OutcomeCreated {
			created++
		} else {
			updated++
		}
	}

	fmt.Printf("Seeded %d events (%d created, %d updated)\n", created+updated, created, updated)
}

func fakeEvent() models.CanonicalEvent {
	ageMin := gofakeit.Number(0, 12)
	ageMax := gofakeit.Number(ageMin, 18)
	start := gofakeit.DateRange(time.Now(), time.Now().AddDate(0, 2, 0))

	price := models.Price{Type: models.PriceFree}
	if gofakeit.Bool() {
		price = models.Price{
			Type:     models.PricePaid,
			Amount:   float64(gofakeit.Number(5, 60)),
			Currency: "PLN",
		}
	}

	return models.CanonicalEvent{
		Title:       fmt.Sprintf("%s #%d", gofakeit.RandomString(titles), gofakeit.Number(1, 999)),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		AgeRange:    models.AgeRange{Min: ageMin, Max: ageMax},
		Price:       price,
		Venue:       gofakeit.RandomString(venues),
		Address:     gofakeit.Street(),
		City:        "Dzieciakowo",
		Organizer:   gofakeit.Company(),
		SourceURL:   gofakeit.URL(),
		StartsAt:    start,
		Category:    categories[gofakeit.Number(0, len(categories)-1)],
		Tags:        []string{gofakeit.Word(), gofakeit.Word()},
	}
}
