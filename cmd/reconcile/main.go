package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/ArowuTest/leaderboard-draw-backend/internal/config"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/models"
	mongorepo "github.com/ArowuTest/leaderboard-draw-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/leaderboard-draw-backend/internal/utils"
	"github.com/ArowuTest/leaderboard-draw-backend/pkg/mongodb"
	"github.com/joho/godotenv"
)

// reconcile exports pending and failed draws as CSV so an operator can check
// each one against the chain before paying or closing it by hand.
//
//	reconcile [seasonId] [output.csv]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var seasonID string
	if len(os.Args) > 1 && os.Args[1] != "" {
		parsed, err := utils.ParseSeasonID(os.Args[1])
		if err != nil {
			log.Fatal(err)
		}
		seasonID = string(parsed)
	}

	var out io.Writer = os.Stdout
	if len(os.Args) > 2 {
		file, err := os.Create(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer file.Close()
		out = file
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	drawRepo := mongorepo.NewDrawRepository(client.Database(cfg.MongoDB.Database))
	draws, err := drawRepo.ListRecent(ctx, seasonID, []models.DrawStatus{models.DrawStatusPending, models.DrawStatusFailed}, 0)
	if err != nil {
		log.Fatalf("Failed to list draws: %v", err)
	}

	if err := utils.WriteDrawsCSV(out, draws); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}
	log.Printf("Exported %d draws needing review", len(draws))
}
