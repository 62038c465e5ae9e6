package docstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/zen-systems/erpassist/pkg/config"
	"github.com/zen-systems/erpassist/pkg/embedding"
)

func TestMemoryStoreSearchOrdersAndFilters(t *testing.T) {
	store := NewMemoryStore()
	err := store.Upsert(context.Background(), []Record{
		{ID: "a", Source: "a.pdf", Embedding: []float32{1, 0}},
		{ID: "b", Source: "b.pdf", Embedding: []float32{0.8, 0.6}},
		{ID: "c", Source: "c.pdf", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := store.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 4, MinScore: 0.4})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "a" || matches[1].ID != "b" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if matches[0].Embedding != nil {
		t.Fatalf("expected embeddings stripped from matches")
	}

	matches, _ = store.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 1})
	if len(matches) != 1 {
		t.Fatalf("expected TopK to cap results, got %d", len(matches))
	}
}

func TestMemoryStoreRejectsRecordWithoutEmbedding(t *testing.T) {
	if err := NewMemoryStore().Upsert(context.Background(), []Record{{ID: "a"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecordsRoundTripThroughOpen(t *testing.T) {
	fsys := afero.NewMemMapFs()
	ctx := context.Background()
	embedder := embedding.NewHashEmbedder(32)

	input := bytes.NewBufferString(`{"source":"manuais/fiscal.pdf","page":4,"text":"Como emitir nota fiscal eletronica"}

{"id":"x","source":"manuais/folha.pdf","page":0,"text":"Fechamento da folha de pagamento"}
`)
	records, err := ReadRecords(input)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 || records[0].ID == "" || records[1].ID != "x" {
		t.Fatalf("unexpected records: %+v", records)
	}

	mem := NewMemoryStore()
	if err := Index(ctx, embedder, mem, records); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := SaveMemory(mem, fsys, "records.jsonl"); err != nil {
		t.Fatalf("save: %v", err)
	}

	store, err := Open(ctx, config.StoreConfig{Provider: "memory", RecordsPath: "records.jsonl"}, 32, fsys)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	retriever := NewRetriever(embedder, store, SearchOptions{TopK: 4, MinScore: 0.4})
	passages, err := retriever.Retrieve(ctx, "emitir nota fiscal eletronica")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(passages) == 0 || passages[0].Document != "manuais/fiscal.pdf" || passages[0].Page != 5 {
		t.Fatalf("unexpected passages: %+v", passages)
	}
}

func TestOpenMissingRecordsFile(t *testing.T) {
	store, err := Open(context.Background(), config.StoreConfig{Provider: "memory", RecordsPath: "none.jsonl"}, 8, afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(store.(*MemoryStore).Records()) != 0 {
		t.Fatalf("expected empty store")
	}
}
