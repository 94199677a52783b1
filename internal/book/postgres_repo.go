package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var pgSortColumns = map[string]string{
	SortTitle:     "title",
	SortAuthor:    "author",
	SortISBN:      "isbn",
	SortCreatedAt: "created_at",
}

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var exists bool
	err := r.db.QueryRow(timeoutCtx, "SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)", isbn).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Book{}, ErrNotFound
	}
	const query = `
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books
		WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var b Book
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, b Book) (Book, error) {
	const sql = `
		INSERT INTO books (title, author, isbn, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, title, author, isbn, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var out Book
	err := r.db.QueryRow(timeoutCtx, sql, b.Title, b.Author, b.ISBN).
		Scan(&out.ID, &out.Title, &out.Author, &out.ISBN, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Book{}, mapPgError(err)
	}
	return out, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, b Book) (Book, error) {
	if _, err := uuid.Parse(b.ID); err != nil {
		return Book{}, fmt.Errorf("invalid book id %q: %w", b.ID, err)
	}
	const sql = `
		INSERT INTO books (id, title, author, isbn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			isbn = EXCLUDED.isbn,
			updated_at = NOW()
		RETURNING id, title, author, isbn, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var out Book
	err := r.db.QueryRow(timeoutCtx, sql, b.ID, b.Title, b.Author, b.ISBN).
		Scan(&out.ID, &out.Title, &out.Author, &out.ISBN, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Book{}, mapPgError(err)
	}
	return out, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, b Book) error {
	if _, err := uuid.Parse(b.ID); err != nil {
		return nil
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, "DELETE FROM books WHERE id = $1", b.ID)
	return err
}

func (r *PostgresRepo) FindAll(ctx context.Context, criteria []Criterion, page PageRequest) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	for _, c := range criteria {
		clauses = append(clauses, fmt.Sprintf(`%s ILIKE $%d ESCAPE '\'`, pgx.Identifier{string(c.Field)}.Sanitize(), argn))
		args = append(args, LikePattern(c.Value))
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	sortCol, ok := pgSortColumns[page.Sort]
	if !ok {
		sortCol = "title"
	}
	order := "ASC"
	if page.Desc {
		order = "DESC"
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books
		%s
		ORDER BY %s %s, id ASC
		LIMIT $%d OFFSET $%d`,
		where, sortCol, order, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, page.Size, page.Offset())
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrIsbnAlreadyRegistered
	}
	return err
}
