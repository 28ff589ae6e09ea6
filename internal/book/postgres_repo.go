package book

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookColumns = `id::text, title, author, publish_year, image_url, created_at, updated_at`

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

func (r *PostgresRepo) Create(ctx context.Context, f Fields) (Book, error) {
	if err := checkFields(f); err != nil {
		return Book{}, err
	}

	const query = `
		INSERT INTO books (title, author, publish_year, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, f.Title, f.Author, f.PublishYear, f.ImageURL))
	if err != nil {
		return Book{}, persistenceError("insert book", err)
	}
	return b, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Book, error) {
	uid, ok := parseUUID(id)
	if !ok {
		return Book{}, ErrNotFound
	}

	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, persistenceError("get book", err)
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books ORDER BY created_at, id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, persistenceError("list books", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, persistenceError("scan book", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list books", err)
	}
	return out, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	uid, ok := parseUUID(id)
	if !ok {
		return Book{}, ErrNotFound
	}
	if p.ImageURL != nil && *p.ImageURL == "" {
		return Book{}, &ValidationError{Fields: []FieldError{{Field: "imageUrl", Message: "imageUrl must be a URL when present"}}}
	}

	// NULL parameters keep the stored value.
	const query = `
		UPDATE books SET
			title        = COALESCE($2, title),
			author       = COALESCE($3, author),
			publish_year = COALESCE($4, publish_year),
			image_url    = COALESCE($5, image_url),
			updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, uid, p.Title, p.Author, p.PublishYear, p.ImageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, persistenceError("update book", err)
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) (Book, error) {
	uid, ok := parseUUID(id)
	if !ok {
		return Book{}, ErrNotFound
	}

	const query = `DELETE FROM books WHERE id = $1 RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, persistenceError("delete book", err)
	}
	return b, nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.Ping(timeoutCtx); err != nil {
		return persistenceError("ping", err)
	}
	return nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.PublishYear, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// parseUUID rejects ids that cannot name a row; they are reported as not found.
func parseUUID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
