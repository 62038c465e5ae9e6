package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"

	"github.com/zen-systems/erpassist/pkg/config"
	"github.com/zen-systems/erpassist/pkg/embedding"
)

// Retriever embeds a question and searches the store for passages.
type Retriever struct {
	embedder embedding.Embedder
	store    Store
	opts     SearchOptions
}

// NewRetriever creates a retriever with the given search bounds.
func NewRetriever(embedder embedding.Embedder, store Store, opts SearchOptions) *Retriever {
	return &Retriever{embedder: embedder, store: store, opts: opts}
}

// Retrieve returns passages scoring at least the configured threshold, best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]Passage, error) {
	vec, err := r.embedder.Embed(ctx, question, embedding.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	matches, err := r.store.Search(ctx, vec, r.opts)
	if err != nil {
		return nil, err
	}
	passages := make([]Passage, 0, len(matches))
	for _, m := range matches {
		passages = append(passages, m.passage())
	}
	return passages, nil
}

// Index embeds records lacking an embedding and upserts them.
func Index(ctx context.Context, embedder embedding.Embedder, store Store, records []Record) error {
	for i := range records {
		if len(records[i].Embedding) > 0 {
			continue
		}
		if strings.TrimSpace(records[i].Text) == "" {
			return fmt.Errorf("record %q has no text", records[i].ID)
		}
		vec, err := embedder.Embed(ctx, records[i].Text, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("embed record %q: %w", records[i].ID, err)
		}
		records[i].Embedding = vec
	}
	return store.Upsert(ctx, records)
}

// Open builds the store named by cfg. The memory store is preloaded from
// cfg.RecordsPath when that file exists.
func Open(ctx context.Context, cfg config.StoreConfig, dimension int, fsys afero.Fs) (Store, error) {
	switch cfg.Provider {
	case "pgvector":
		store, err := OpenPGVector(ctx, cfg.DSN, cfg.Table, dimension)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory", "":
		store := NewMemoryStore()
		if cfg.RecordsPath == "" {
			return store, nil
		}
		f, err := fsys.Open(cfg.RecordsPath)
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		defer f.Close()
		records, err := ReadRecords(f)
		if err != nil {
			return nil, fmt.Errorf("read records %s: %w", cfg.RecordsPath, err)
		}
		if err := store.Upsert(ctx, records); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
	}
}

// SaveMemory writes the memory store's records to path.
func SaveMemory(store *MemoryStore, fsys afero.Fs, path string) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create records: %w", err)
	}
	if err := WriteRecords(f, store.Records()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
