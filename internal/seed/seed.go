// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"echofeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much demo data the seeder creates.
type Options struct {
	NumPosts    int
	MaxDays     int
	ShouldClean bool
}

var topics = []string{
	"#golang", "#fastapi", "#devops", "#kubernetes", "#opensource",
	"#databases", "#observability", "#testing", "#backend", "#cloud",
	"#linux", "#postgres", "#redis", "#ai", "#startups",
}

// Seeder populates the posts table with synthetic collected posts.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes every stored post.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing posts table...")
	return s.db.Exec("DELETE FROM posts").Error
}

// BuildPost constructs one synthetic post without persisting it. The
// text carries one to three hashtags so the reports have something to
// count, and roughly one post in ten has no creation time to exercise
// the unknown bucket.
func (s *Seeder) BuildPost(maxDays int) *models.Post {
	if maxDays <= 0 {
		maxDays = 30
	}

	tags := make([]string, 0, 3)
	for i := 0; i < 1+s.rng.Intn(3); i++ {
		tags = append(tags, topics[s.rng.Intn(len(topics))])
	}
	text := gofakeit.Sentence(8) + " " + strings.Join(tags, " ")

	post := &models.Post{
		PostID:   fmt.Sprintf("%d", gofakeit.Number(1_000_000_000, 9_999_999_999)),
		AuthorID: fmt.Sprintf("%d", gofakeit.Number(10_000, 99_999)),
		Text:     text,
	}

	if s.rng.Intn(10) > 0 {
		created := time.Now().UTC().
			Add(-time.Duration(s.rng.Intn(maxDays*24)) * time.Hour).
			Add(-time.Duration(s.rng.Intn(60)) * time.Minute).
			Truncate(time.Second)
		post.CreatedAt = &created
	}

	return post
}

// Run seeds the database according to opts.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}

	log.Printf("Seeding %d posts...", opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		post := s.BuildPost(opts.MaxDays)
		if err := s.db.Create(post).Error; err != nil {
			return fmt.Errorf("seeding post %d: %w", i, err)
		}
	}

	log.Printf("Seeded %d posts", opts.NumPosts)
	return nil
}
