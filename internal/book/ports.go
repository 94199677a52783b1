package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=book

// Repository defines the contract for book data storage.
// Implementations must enforce ISBN uniqueness themselves and report a
// violation as ErrIsbnAlreadyRegistered.
type Repository interface {
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	// FindByID returns ErrNotFound when no book has the id.
	FindByID(ctx context.Context, id string) (Book, error)
	Insert(ctx context.Context, b Book) (Book, error)
	Upsert(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, b Book) error
	FindAll(ctx context.Context, criteria []Criterion, page PageRequest) ([]Book, int, error)
	Ping(ctx context.Context) error
}

// EventPublisher receives notifications about successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, b Book) error
}

// MetadataSource looks up bibliographic data by ISBN.
type MetadataSource interface {
	LookupISBN(ctx context.Context, isbn string) (Metadata, error)
}

// Metadata is what an external catalog knows about an ISBN.
type Metadata struct {
	Title   string
	Authors []string
}
