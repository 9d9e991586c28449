// Command main runs the database seeder for Echofeed.
package main

import (
	"flag"
	"log"

	"echofeed/internal/config"
	"echofeed/internal/database"
	"echofeed/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	maxDays := flag.Int("days", 30, "Spread creation times over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if err := s.Run(seed.Options{
		NumPosts:    *numPosts,
		MaxDays:     *maxDays,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
