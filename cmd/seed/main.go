// Command seed populates a database with synthetic profiles, posts and
// interactions for local development.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/denlabs/denengine/internal/adapters/repository"
	"github.com/denlabs/denengine/internal/seeding"
	"github.com/denlabs/denengine/pkg/logger"
)

func main() {
	var (
		dbPath       = flag.String("db", "den.db", "SQLite database path")
		users        = flag.Int("users", 25, "number of profiles to create")
		postsPer     = flag.Int("posts", 4, "posts per profile")
		interactions = flag.Int("interactions", 12, "interactions per profile")
		seed         = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("seed")
	ctx := context.Background()

	store, err := repository.NewSQLiteStore(ctx, *dbPath)
	if err != nil {
		log.Error(ctx, "open store failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	s := seeding.New(store, seeding.Config{
		Users:               *users,
		PostsPerUser:        *postsPer,
		InteractionsPerUser: *interactions,
		Seed:                *seed,
	})
	written, err := s.Run(ctx)
	if err != nil {
		log.Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "seeding complete",
		logger.String("db", *dbPath),
		logger.Int("users", *users),
		logger.Int("interactions", written),
	)
}
