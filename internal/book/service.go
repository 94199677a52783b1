package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Event types published after successful mutations.
const (
	EventCreated = "book.created"
	EventUpdated = "book.updated"
	EventDeleted = "book.deleted"
)

// Service provides book-related business logic.
type Service struct {
	repo     Repository
	events   EventPublisher
	metadata MetadataSource
	log      zerolog.Logger
}

// Option configures optional collaborators of the service.
type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetadataSource(m MetadataSource) Option {
	return func(s *Service) { s.metadata = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new book service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists a new book. The ISBN check is a fast path; the store's own
// uniqueness constraint settles races between concurrent saves.
func (s *Service) Save(ctx context.Context, b Book) (Book, error) {
	exists, err := s.repo.ExistsByISBN(ctx, b.ISBN)
	if err != nil {
		return Book{}, fmt.Errorf("check isbn: %w", err)
	}
	if exists {
		return Book{}, ErrIsbnAlreadyRegistered
	}

	saved, err := s.repo.Insert(ctx, b)
	if err != nil {
		if errors.Is(err, ErrIsbnAlreadyRegistered) {
			return Book{}, ErrIsbnAlreadyRegistered
		}
		return Book{}, fmt.Errorf("insert book: %w", err)
	}
	s.publish(ctx, EventCreated, saved)
	return saved, nil
}

// GetByID returns the book with the given id. found is false when there is
// no such book; err is only set for storage failures.
func (s *Service) GetByID(ctx context.Context, id string) (b Book, found bool, err error) {
	b, err = s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Book{}, false, nil
		}
		return Book{}, false, err
	}
	return b, true, nil
}

// Update stores b under its existing id. The ISBN is not re-checked here.
func (s *Service) Update(ctx context.Context, b Book) (Book, error) {
	if !b.HasID() {
		return Book{}, ErrBookIDRequired
	}
	updated, err := s.repo.Upsert(ctx, b)
	if err != nil {
		if errors.Is(err, ErrIsbnAlreadyRegistered) {
			return Book{}, ErrIsbnAlreadyRegistered
		}
		return Book{}, fmt.Errorf("update book %s: %w", b.ID, err)
	}
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// Delete removes b from the store.
func (s *Service) Delete(ctx context.Context, b Book) error {
	if !b.HasID() {
		return ErrBookIDRequired
	}
	if err := s.repo.Delete(ctx, b); err != nil {
		return fmt.Errorf("delete book %s: %w", b.ID, err)
	}
	s.publish(ctx, EventDeleted, b)
	return nil
}

// Find returns the page of books matching every populated field of filter.
func (s *Service) Find(ctx context.Context, filter Filter, page PageRequest) (Page, error) {
	page = page.Normalize()
	books, total, err := s.repo.FindAll(ctx, filter.Criteria(), page)
	if err != nil {
		return Page{}, err
	}
	if books == nil {
		books = []Book{}
	}
	return Page{Content: books, Request: page, TotalElements: total}, nil
}

// Import fetches metadata for isbn and saves it as a new book.
func (s *Service) Import(ctx context.Context, isbn string) (Book, error) {
	if s.metadata == nil {
		return Book{}, errors.New("no metadata source configured")
	}
	md, err := s.metadata.LookupISBN(ctx, isbn)
	if err != nil {
		return Book{}, err
	}
	b := Book{
		Title:  strings.TrimSpace(md.Title),
		Author: joinAuthors(md.Authors),
		ISBN:   isbn,
	}
	// A catalog entry without a title or author is as good as missing.
	if b.Title == "" || b.Author == "" {
		return Book{}, fmt.Errorf("isbn %s has incomplete metadata: %w", isbn, ErrNotFound)
	}
	return s.Save(ctx, b)
}

func joinAuthors(authors []string) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return strings.Join(names, ", ")
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) publish(ctx context.Context, eventType string, b Book) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, b); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Str("book_id", b.ID).Msg("publish event failed")
	}
}
