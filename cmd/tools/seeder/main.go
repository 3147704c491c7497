package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-sellerstats/internal/app"
	"github.com/noah-isme/backend-sellerstats/internal/dataset"
	"github.com/noah-isme/backend-sellerstats/internal/db"
	"github.com/noah-isme/backend-sellerstats/internal/repo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	input := flag.String("input", "", "dataset JSON file to import")
	dbURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	migrate := flag.Bool("migrate", false, "apply migrations before seeding")
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	if *dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	data, err := dataset.NewLoader(true).LoadFile(*input)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	if *migrate {
		if err := db.Migrate(*dbURL); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := app.OpenPostgres(ctx, *dbURL, "sellerstats-seeder")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	inserted, err := repo.DatasetStore{DB: pool}.ImportDataset(ctx, data)
	if err != nil {
		log.Fatalf("Failed to import dataset: %v", err)
	}
	log.Printf("Seeded %d sellers, %d products, %d new purchase records (%d skipped)",
		len(data.Sellers), len(data.Products), inserted, len(data.PurchaseRecords)-inserted)
}
