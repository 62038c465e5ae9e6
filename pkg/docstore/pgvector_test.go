package docstore

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (*PGVectorStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "erp_passages"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	store, err := NewPGVectorStore(context.Background(), mock, "", 3)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mock
}

func TestPGVectorSearch(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	rows := mock.NewRows([]string{"id", "source", "page", "content", "score"}).
		AddRow("a", "docs/manual_nfe.pdf", int32(2), "Para emitir a nota...", 0.82).
		AddRow("b", "docs/manual_nfe.pdf", int32(3), "Outro trecho", 0.55)
	mock.ExpectQuery(`SELECT id, source, page, content, 1 - \(embedding <=> \$1\) AS score FROM "erp_passages"`).
		WithArgs(pgxmock.AnyArg(), 0.4, 4).
		WillReturnRows(rows)

	matches, err := store.Search(context.Background(), []float32{0.1, 0.2, 0.3}, SearchOptions{TopK: 4, MinScore: 0.4})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	p := matches[0].passage()
	if p.Document != "docs/manual_nfe.pdf" || p.Page != 3 || p.Score != 0.82 {
		t.Fatalf("unexpected passage: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGVectorSearchDimensionMismatch(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	if _, err := store.Search(context.Background(), []float32{1}, SearchOptions{}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestPGVectorUpsertCommits(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "erp_passages"`).
		WithArgs("a", "manual.pdf", int32(0), "texto", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.Upsert(context.Background(), []Record{{ID: "a", Source: "manual.pdf", Page: 0, Text: "texto", Embedding: []float32{1, 0, 0}}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGVectorUpsertRollsBackOnMismatch(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.Upsert(context.Background(), []Record{{ID: "a", Embedding: []float32{1}}})
	if err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
