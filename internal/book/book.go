package book

import (
	"time"
)

// Book represents a catalog record. ID is empty until the store assigns one.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasID reports whether the book has been persisted.
func (b Book) HasID() bool {
	return b.ID != ""
}

// Filter is a partially populated book used as a search template.
// Empty fields impose no constraint.
type Filter struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	ISBN   string `json:"isbn,omitempty"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sortable columns. Anything else falls back to SortTitle.
const (
	SortTitle     = "title"
	SortAuthor    = "author"
	SortISBN      = "isbn"
	SortCreatedAt = "created_at"
)

// PageRequest bounds a search. Page is zero-based.
type PageRequest struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort,omitempty"`
	Desc bool   `json:"desc,omitempty"`
}

// Normalize applies defaults and clamps out-of-range values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	switch p.Sort {
	case SortTitle, SortAuthor, SortISBN, SortCreatedAt:
	default:
		p.Sort = SortTitle
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

func (p PageRequest) Next() PageRequest {
	p.Page++
	return p
}

// Page is one slice of a search result.
type Page struct {
	Content       []Book      `json:"content"`
	Request       PageRequest `json:"request"`
	TotalElements int         `json:"total_elements"`
}

func (p Page) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	return (p.TotalElements + p.Request.Size - 1) / p.Request.Size
}

func (p Page) HasNext() bool {
	return p.Request.Page+1 < p.TotalPages()
}
