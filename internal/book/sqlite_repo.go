package book

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS books (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	author     TEXT NOT NULL,
	isbn       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS books_isbn_key ON books (isbn);
`

var sqliteSortColumns = map[string]string{
	SortTitle:     "title",
	SortAuthor:    "author",
	SortISBN:      "isbn",
	SortCreatedAt: "created_at",
}

// casefold is registered on the driver because SQLite's built-in lower()
// and LIKE only fold ASCII.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return FoldCase(v), nil
			case []byte:
				return FoldCase(string(v)), nil
			default:
				return v, nil
			}
		})
}

// SQLiteRepo stores books in a single SQLite file through the pure Go driver.
type SQLiteRepo struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, timeout time.Duration) (*SQLiteRepo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create books table: %w", err)
	}
	return &SQLiteRepo{db: db, timeout: timeout, now: time.Now}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *SQLiteRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(timeoutCtx, `SELECT COUNT(1) FROM books WHERE isbn = ?`, isbn).Scan(&n)
	return n > 0, err
}

func (r *SQLiteRepo) FindByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.db.QueryRowContext(timeoutCtx, `
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books WHERE id = ?`, id)
	b, err := scanSQLiteBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *SQLiteRepo) Insert(ctx context.Context, b Book) (Book, error) {
	now := r.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.ExecContext(timeoutCtx, `
		INSERT INTO books (id, title, author, isbn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, b.ISBN, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Book{}, mapSQLiteError(err)
	}
	return b, nil
}

func (r *SQLiteRepo) Upsert(ctx context.Context, b Book) (Book, error) {
	now := r.now().UTC().UnixNano()

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.db.QueryRowContext(timeoutCtx, `
		INSERT INTO books (id, title, author, isbn, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			isbn = excluded.isbn,
			updated_at = excluded.updated_at
		RETURNING id, title, author, isbn, created_at, updated_at`,
		b.ID, b.Title, b.Author, b.ISBN, now, now)
	out, err := scanSQLiteBook(row)
	if err != nil {
		return Book{}, mapSQLiteError(err)
	}
	return out, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, b Book) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.ExecContext(timeoutCtx, `DELETE FROM books WHERE id = ?`, b.ID)
	return err
}

func (r *SQLiteRepo) FindAll(ctx context.Context, criteria []Criterion, page PageRequest) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	for _, c := range criteria {
		clauses = append(clauses, fmt.Sprintf(`casefold(%s) LIKE casefold(?) ESCAPE '\'`, c.Field))
		args = append(args, LikePattern(c.Value))
	}
	where := "WHERE " + strings.Join(clauses, " AND ")

	sortCol, ok := sqliteSortColumns[page.Sort]
	if !ok {
		sortCol = "title"
	}
	order := "ASC"
	if page.Desc {
		order = "DESC"
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(timeoutCtx, "SELECT COUNT(1) FROM books "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, title, author, isbn, created_at, updated_at
		FROM books
		%s
		ORDER BY %s %s, id ASC
		LIMIT ? OFFSET ?`, where, sortCol, order)
	rows, err := r.db.QueryContext(timeoutCtx, dataSQL, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanSQLiteBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBook(s rowScanner) (Book, error) {
	var (
		b                    Book
		createdAt, updatedAt int64
	)
	if err := s.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &createdAt, &updatedAt); err != nil {
		return Book{}, err
	}
	b.CreatedAt = time.Unix(0, createdAt).UTC()
	b.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return b, nil
}

func mapSQLiteError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return ErrIsbnAlreadyRegistered
	}
	return err
}
