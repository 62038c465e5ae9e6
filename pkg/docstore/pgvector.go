package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// Pool is the subset of *pgxpool.Pool used by PGVectorStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PGVectorStore stores records in a Postgres table with a pgvector column.
type PGVectorStore struct {
	pool       Pool
	tableIdent string
	dimension  int
}

// OpenPGVector connects to dsn and prepares the table.
func OpenPGVector(ctx context.Context, dsn, table string, dimension int) (*PGVectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}
	store, err := NewPGVectorStore(ctx, pool, table, dimension)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPGVectorStore wraps an existing pool and ensures the schema exists.
func NewPGVectorStore(ctx context.Context, pool Pool, table string, dimension int) (*PGVectorStore, error) {
	if dimension <= 0 {
		return nil, errors.New("pgvector: dimension must be positive")
	}
	if table == "" {
		table = "erp_passages"
	}
	store := &PGVectorStore{
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
		dimension:  dimension,
	}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (p *PGVectorStore) ensureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		page INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d)
	)`, p.tableIdent, p.dimension)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	return nil
}

// Upsert writes all records in one transaction.
func (p *PGVectorStore) Upsert(ctx context.Context, records []Record) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()

	stmt := fmt.Sprintf(`INSERT INTO %s (id, source, page, content, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    source = excluded.source,
    page = excluded.page,
    content = excluded.content,
    embedding = excluded.embedding`, p.tableIdent)
	for _, rec := range records {
		if len(rec.Embedding) != p.dimension {
			return fmt.Errorf("pgvector: record %q dimension mismatch (got %d want %d)", rec.ID, len(rec.Embedding), p.dimension)
		}
		if _, err := tx.Exec(ctx, stmt, rec.ID, rec.Source, int32(rec.Page), rec.Text, pgvector.NewVector(rec.Embedding)); err != nil {
			return fmt.Errorf("pgvector: upsert %q: %w", rec.ID, err)
		}
	}
	return nil
}

// Search returns up to TopK rows with cosine similarity at least MinScore.
func (p *PGVectorStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != p.dimension {
		return nil, errors.New("pgvector: query dimension mismatch")
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	sql := fmt.Sprintf(`SELECT id, source, page, content, 1 - (embedding <=> $1) AS score FROM %s
WHERE 1 - (embedding <=> $1) >= $2
ORDER BY embedding <=> $1 ASC LIMIT $3`, p.tableIdent)
	rows, err := p.pool.Query(ctx, sql, pgvector.NewVector(query), opts.MinScore, topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var (
			m    Match
			page int32
		)
		if err := rows.Scan(&m.ID, &m.Source, &page, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		if m.Score < opts.MinScore {
			continue
		}
		m.Page = int(page)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	return matches, nil
}

// Close releases the pool.
func (p *PGVectorStore) Close() error {
	p.pool.Close()
	return nil
}
