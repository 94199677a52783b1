package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"libraryapi/internal/book"
	"libraryapi/internal/bootstrap"
	"libraryapi/internal/config"
	"libraryapi/internal/logging"

	"github.com/rs/zerolog"
)

func main() {
	count := flag.Int("count", 1000, "Number of books to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot open store")
	}
	defer closeRepo()

	service := book.NewService(repo, book.WithLogger(logger))
	inserted, skipped, err := seed(ctx, logger, service, rand.New(rand.NewSource(1)), *count)
	if err != nil {
		logger.Fatal().Err(err).Int("inserted", inserted).Msg("seeding failed")
	}

	page, err := service.Find(ctx, book.Filter{}, book.PageRequest{Size: 1})
	if err != nil {
		logger.Fatal().Err(err).Msg("count books")
	}
	logger.Info().
		Int("inserted", inserted).
		Int("skipped", skipped).
		Int("total", page.TotalElements).
		Msg("seeding done")
}

// seed saves count generated books through the service, so ISBNs that are
// already registered are skipped rather than duplicated. Generation is
// deterministic for a given rnd, which makes reruns idempotent.
func seed(ctx context.Context, logger zerolog.Logger, service *book.Service, rnd *rand.Rand, count int) (inserted, skipped int, err error) {
	for i := 0; i < count; i++ {
		b := book.Book{
			Title:  fmt.Sprintf("%s of %s", randomWord(rnd), randomWord(rnd)),
			Author: fmt.Sprintf("%s %s", randomName(rnd), randomSurname(rnd)),
			ISBN:   fmt.Sprintf("978-%09d-%d", i+1, rnd.Intn(10)),
		}

		_, err := service.Save(ctx, b)
		switch {
		case errors.Is(err, book.ErrIsbnAlreadyRegistered):
			skipped++
		case err != nil:
			return inserted, skipped, err
		default:
			inserted++
		}

		if (i+1)%1000 == 0 {
			logger.Info().Int("done", i+1).Int("count", count).Msg("seeding")
		}
	}
	return inserted, skipped, nil
}

var (
	words = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	names    = []string{"Ana", "Ian", "Maria", "John", "Aiko", "Omar", "Lena", "Kofi", "Rosa", "Ivan"}
	surnames = []string{"Fleming", "Silva", "Tanaka", "Okafor", "Novak", "Garcia", "Smith", "Haddad"}
)

func randomWord(rnd *rand.Rand) string    { return words[rnd.Intn(len(words))] }
func randomName(rnd *rand.Rand) string    { return names[rnd.Intn(len(names))] }
func randomSurname(rnd *rand.Rand) string { return surnames[rnd.Intn(len(surnames))] }
