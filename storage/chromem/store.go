// Copyright 2026 Stratum Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/philippgille/chromem-go"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
	"github.com/stratumhq/corpus/storage/badger"
)

// Metadata keys attached to every stored embedding.
const (
	metaDocument = "document"
	metaOrdinal  = "ordinal"
	metaSection  = "section"
	metaTokens   = "tokens"
	metaModel    = "model"
)

// Link keys mirror the keyword index's chunk bookkeeping. chromem has no
// filtered count or ID listing, so the reconciliation counts come from
// these links instead.
const (
	docLinkPrefix   = "vecd" // vecd:<partition>:<doc>:<chunk> -> empty
	chunkLinkPrefix = "vecc" // vecc:<partition>:<chunk> -> doc
)

// Store implements storage.VectorStore on an embedded chromem-go database.
// Each scope maps to its own chromem collection, so similarity search can
// never cross tenants. Attribution links live on the shared badger backend.
type Store struct {
	db      *chromem.DB
	backend *badger.Backend
	logger  *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore opens a vector store at the given path, or in memory when
// inMemory is set. The badger backend holds per-document chunk links.
func NewStore(filePath string, inMemory bool, backend *badger.Backend) (storage.VectorStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}

	var db *chromem.DB
	if inMemory {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(filePath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
	}

	return &Store{
		db:      db,
		backend: backend,
		logger:  slog.Default().With("component", "vector-store"),
	}, nil
}

// Upsert inserts or overwrites entries by chunk ID within the scope.
func (s *Store) Upsert(ctx context.Context, scope core.Scope, entries []storage.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	col, err := s.db.GetOrCreateCollection(scope.Collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open collection %q: %w", scope.Collection, err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Vector) == 0 {
			return fmt.Errorf("%w: chunk %s has no vector", storage.ErrInvalidQuery, entry.Chunk)
		}
		docs = append(docs, chromem.Document{
			ID:      entry.Chunk.String(),
			Content: entry.Text,
			Metadata: map[string]string{
				metaDocument: string(entry.Document),
				metaOrdinal:  strconv.Itoa(entry.Ordinal),
				metaSection:  entry.Section,
				metaTokens:   strconv.Itoa(entry.TokenCount),
				metaModel:    entry.Model,
			},
			Embedding: entry.Vector,
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		for _, entry := range entries {
			if err := tx.Set(makeDocLinkKey(scope.Partition, entry.Document, entry.Chunk), nil); err != nil {
				return err
			}
			if err := tx.Set(makeChunkLinkKey(scope.Partition, entry.Chunk), []byte(entry.Document)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Query returns the top-k entries most similar to the vector, ordered by
// descending cosine similarity. An absent collection yields no hits.
func (s *Store) Query(ctx context.Context, scope core.Scope, vector []float32, k int) ([]storage.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: non-positive k %d", storage.ErrInvalidQuery, k)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	col := s.db.GetCollection(scope.Collection, nil)
	if col == nil {
		return []storage.VectorHit{}, nil
	}

	// chromem rejects nResults above the collection size.
	n := k
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return []storage.VectorHit{}, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	hits := make([]storage.VectorHit, 0, len(results))
	for _, result := range results {
		chunk, err := parseChunkID(result.ID)
		if err != nil {
			return nil, err
		}
		ordinal, _ := strconv.Atoi(result.Metadata[metaOrdinal])
		tokens, _ := strconv.Atoi(result.Metadata[metaTokens])
		hits = append(hits, storage.VectorHit{
			Chunk:      chunk,
			Document:   core.DocumentID(result.Metadata[metaDocument]),
			Ordinal:    ordinal,
			Section:    result.Metadata[metaSection],
			Text:       result.Content,
			TokenCount: tokens,
			Score:      float64(result.Similarity),
		})
	}
	return hits, nil
}

// DeleteChunks removes entries by chunk ID. Absent IDs are no-ops.
func (s *Store) DeleteChunks(ctx context.Context, scope core.Scope, chunks []core.ChunkID) error {
	if len(chunks) == 0 {
		return nil
	}

	if col := s.db.GetCollection(scope.Collection, nil); col != nil {
		ids := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			ids = append(ids, chunk.String())
		}
		if err := col.Delete(ctx, nil, nil, ids...); err != nil {
			return fmt.Errorf("failed to delete vectors: %w", err)
		}
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		for _, chunk := range chunks {
			if err := removeLinks(tx, scope.Partition, chunk); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// DeleteDocument removes every entry derived from the document.
func (s *Store) DeleteDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) error {
	chunks, err := s.docChunks(scope, doc)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	return s.DeleteChunks(ctx, scope, chunks)
}

// DeleteScope removes the scope's collection and all its links.
func (s *Store) DeleteScope(ctx context.Context, scope core.Scope) error {
	if col := s.db.GetCollection(scope.Collection, nil); col != nil {
		if err := s.db.DeleteCollection(scope.Collection); err != nil {
			return fmt.Errorf("failed to delete collection %q: %w", scope.Collection, err)
		}
	}

	return s.backend.WithTx(func(tx *badgerdb.Txn) error {
		prefixes := [][]byte{
			fmt.Appendf(nil, "%s:%s:", docLinkPrefix, scope.Partition),
			fmt.Appendf(nil, "%s:%s:", chunkLinkPrefix, scope.Partition),
		}
		for _, prefix := range prefixes {
			opts := badgerdb.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)

			var doomed [][]byte
			for iter.Rewind(); iter.Valid(); iter.Next() {
				doomed = append(doomed, iter.Item().KeyCopy(nil))
			}
			iter.Close()

			for _, key := range doomed {
				if err := tx.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	}, true)
}

// CountDocument reports how many entries remain for the document.
func (s *Store) CountDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) (int, error) {
	chunks, err := s.docChunks(scope, doc)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// CountScope reports how many entries remain in the scope.
func (s *Store) CountScope(ctx context.Context, scope core.Scope) (int, error) {
	col := s.db.GetCollection(scope.Collection, nil)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

func (s *Store) docChunks(scope core.Scope, doc core.DocumentID) ([]core.ChunkID, error) {
	var chunks []core.ChunkID
	err := s.backend.WithTx(func(tx *badgerdb.Txn) error {
		prefix := fmt.Appendf(nil, "%s:%s:%s:", docLinkPrefix, scope.Partition, doc)
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			chunk, err := parseChunkID(string(key[len(prefix):]))
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

func removeLinks(tx *badgerdb.Txn, partition string, chunk core.ChunkID) error {
	chunkKey := makeChunkLinkKey(partition, chunk)
	item, err := tx.Get(chunkKey)
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	var doc core.DocumentID
	if err := item.Value(func(val []byte) error {
		doc = core.DocumentID(val)
		return nil
	}); err != nil {
		return err
	}
	if err := tx.Delete(makeDocLinkKey(partition, doc, chunk)); err != nil {
		return err
	}
	return tx.Delete(chunkKey)
}

func makeDocLinkKey(partition string, doc core.DocumentID, chunk core.ChunkID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:%s", docLinkPrefix, partition, doc, chunk)
}

func makeChunkLinkKey(partition string, chunk core.ChunkID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", chunkLinkPrefix, partition, chunk)
}

func parseChunkID(id string) (core.ChunkID, error) {
	value, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed chunk id %q", storage.ErrSerializationFailed, id)
	}
	return core.ChunkID(value), nil
}
