package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libraryapi/internal/book"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrTooManyISBNs rejects a run larger than Config.BooksMax.
var ErrTooManyISBNs = errors.New("too many isbns")

type Config struct {
	// BooksMax caps the number of ISBNs accepted in one run.
	BooksMax int
	// MaxFailures aborts the run once this many lookups failed outright.
	MaxFailures int
}

// Importer registers a book from external metadata. *book.Service
// implements it.
type Importer interface {
	Import(ctx context.Context, isbn string) (book.Book, error)
}

type Service struct {
	importer Importer
	cfg      Config
}

func NewService(importer Importer, cfg Config) *Service {
	return &Service{importer: importer, cfg: cfg}
}

// Run imports every ISBN in order. Already registered and unknown ISBNs are
// counted, not treated as errors.
func (s *Service) Run(ctx context.Context, isbns []string) (run Run, err error) {
	log := zerolog.Ctx(ctx)
	isbns = normalize(isbns)
	run = Run{
		ID:        uuid.NewString(),
		Status:    StatusRunning,
		Requested: len(isbns),
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		now := time.Now().UTC()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}
		if run.Error != "" {
			run.Status = StatusFailed
		} else {
			run.Status = StatusCompleted
		}
		log.Info().
			Str("run_id", run.ID).
			Str("status", run.Status).
			Int("imported", run.Imported).
			Int("skipped", run.Skipped).
			Int("not_found", run.NotFound).
			Int("failed", run.Failed).
			Msg("ingest run finished")
	}()

	if s.cfg.BooksMax > 0 && len(isbns) > s.cfg.BooksMax {
		return run, fmt.Errorf("%w: %d requested, at most %d allowed", ErrTooManyISBNs, len(isbns), s.cfg.BooksMax)
	}

	for _, isbn := range isbns {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		_, err := s.importer.Import(ctx, isbn)
		switch {
		case err == nil:
			run.Imported++
		case errors.Is(err, book.ErrIsbnAlreadyRegistered):
			run.Skipped++
		case errors.Is(err, book.ErrNotFound):
			run.NotFound++
		default:
			run.Failed++
			log.Warn().Err(err).Str("isbn", isbn).Msg("import failed")
			if s.cfg.MaxFailures > 0 && run.Failed >= s.cfg.MaxFailures {
				run.Error = fmt.Sprintf("aborted after %d failures: %v", run.Failed, err)
				return run, err
			}
		}
	}
	return run, nil
}

// normalize trims entries and drops blanks and repeats, keeping order.
func normalize(isbns []string) []string {
	seen := make(map[string]bool, len(isbns))
	out := make([]string, 0, len(isbns))
	for _, isbn := range isbns {
		isbn = strings.TrimSpace(isbn)
		if isbn == "" || seen[isbn] {
			continue
		}
		seen[isbn] = true
		out = append(out, isbn)
	}
	return out
}
