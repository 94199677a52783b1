package book

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository. It keeps an ISBN index so the
// uniqueness rule holds under concurrent writers.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Book
	byISBN map[string]string
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Book),
		byISBN: make(map[string]string),
		now:    time.Now,
	}
}

func (r *MemoryRepo) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byISBN[isbn]
	return ok, nil
}

func (r *MemoryRepo) FindByID(_ context.Context, id string) (Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepo) Insert(_ context.Context, b Book) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byISBN[b.ISBN]; taken {
		return Book{}, ErrIsbnAlreadyRegistered
	}
	now := r.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.byID[b.ID] = b
	r.byISBN[b.ISBN] = b.ID
	return b, nil
}

func (r *MemoryRepo) Upsert(_ context.Context, b Book) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.byISBN[b.ISBN]; taken && owner != b.ID {
		return Book{}, ErrIsbnAlreadyRegistered
	}
	now := r.now().UTC()
	if prev, ok := r.byID[b.ID]; ok {
		b.CreatedAt = prev.CreatedAt
		if prev.ISBN != b.ISBN {
			delete(r.byISBN, prev.ISBN)
		}
	} else {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	r.byID[b.ID] = b
	r.byISBN[b.ISBN] = b.ID
	return b, nil
}

func (r *MemoryRepo) Delete(_ context.Context, b Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[b.ID]
	if !ok {
		return nil
	}
	delete(r.byID, b.ID)
	delete(r.byISBN, prev.ISBN)
	return nil
}

func (r *MemoryRepo) FindAll(_ context.Context, criteria []Criterion, page PageRequest) ([]Book, int, error) {
	matcher := NewMatcher(criteria)
	r.mu.RLock()
	matched := make([]Book, 0, len(r.byID))
	for _, b := range r.byID {
		if matcher.Match(b) {
			matched = append(matched, b)
		}
	}
	r.mu.RUnlock()

	compare := sortKey(page.Sort)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c := compare(a, b); c != 0 {
			if page.Desc {
				return c > 0
			}
			return c < 0
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []Book{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepo) Ping(context.Context) error {
	return nil
}

func sortKey(field string) func(a, b Book) int {
	switch field {
	case SortAuthor:
		return func(a, b Book) int { return strings.Compare(a.Author, b.Author) }
	case SortISBN:
		return func(a, b Book) int { return strings.Compare(a.ISBN, b.ISBN) }
	case SortCreatedAt:
		return func(a, b Book) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return func(a, b Book) int { return strings.Compare(a.Title, b.Title) }
	}
}
