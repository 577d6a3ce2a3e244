package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// BM25 parameters, standard Robertson/Sparck-Jones defaults.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// KeywordIndex implements storage.KeywordIndex as a BM25-scored inverted
// index on BadgerDB. Every key is prefixed with the scope's partition, so
// partitions never share postings.
type KeywordIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.KeywordIndex = (*KeywordIndex)(nil)

// NewKeywordIndex creates a keyword index on the given backend.
//
// Returns storage.KeywordIndex interface to enforce abstraction.
func NewKeywordIndex(backend *Backend) (storage.KeywordIndex, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &KeywordIndex{
		backend: backend,
		logger:  slog.Default().With("component", "keyword-index"),
	}, nil
}

// posting is the stored value for one (term, chunk) pair.
type posting struct {
	tf int // term frequency within the chunk
	dl int // chunk length in analyzed terms
}

func marshalPosting(p posting) []byte {
	buf := make([]byte, varint.Int.Size(p.tf)+varint.Int.Size(p.dl))
	n := varint.Int.Marshal(p.tf, buf)
	varint.Int.Marshal(p.dl, buf[n:])
	return buf
}

func unmarshalPosting(data []byte) (p posting, err error) {
	var n int
	if p.tf, n, err = varint.Int.Unmarshal(data); err != nil {
		return
	}
	if p.dl, _, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return
	}
	return
}

// chunkMeta is the stored value keyed by chunk. It carries the chunk's
// attribution for hydrating search hits, and its term list for reversing
// postings on delete and re-index.
type chunkMeta struct {
	doc     core.DocumentID
	ordinal int
	section string
	text    string
	tokens  int
	dl      int
	terms   []string
}

func marshalChunkMeta(m chunkMeta) []byte {
	size := ord.String.Size(string(m.doc)) +
		varint.Int.Size(m.ordinal) +
		ord.String.Size(m.section) +
		ord.String.Size(m.text) +
		varint.Int.Size(m.tokens) +
		varint.Int.Size(m.dl) +
		varint.Int.Size(len(m.terms))
	for _, term := range m.terms {
		size += ord.String.Size(term)
	}
	buf := make([]byte, size)
	n := ord.String.Marshal(string(m.doc), buf)
	n += varint.Int.Marshal(m.ordinal, buf[n:])
	n += ord.String.Marshal(m.section, buf[n:])
	n += ord.String.Marshal(m.text, buf[n:])
	n += varint.Int.Marshal(m.tokens, buf[n:])
	n += varint.Int.Marshal(m.dl, buf[n:])
	n += varint.Int.Marshal(len(m.terms), buf[n:])
	for _, term := range m.terms {
		n += ord.String.Marshal(term, buf[n:])
	}
	return buf
}

func unmarshalChunkMeta(data []byte) (m chunkMeta, err error) {
	var (
		s     string
		n, mm int
		count int
	)
	if s, n, err = ord.String.Unmarshal(data); err != nil {
		return
	}
	m.doc = core.DocumentID(s)
	if m.ordinal, mm, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	if m.section, mm, err = ord.String.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	if m.text, mm, err = ord.String.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	if m.tokens, mm, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	if m.dl, mm, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	if count, mm, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return
	}
	n += mm
	m.terms = make([]string, count)
	for i := 0; i < count; i++ {
		if m.terms[i], mm, err = ord.String.Unmarshal(data[n:]); err != nil {
			return
		}
		n += mm
	}
	return
}

// partitionStats tracks corpus-level numbers BM25 needs.
type partitionStats struct {
	chunks int
	tokens int64
}

func marshalStats(s partitionStats) []byte {
	buf := make([]byte, varint.Int.Size(s.chunks)+varint.Int64.Size(s.tokens))
	n := varint.Int.Marshal(s.chunks, buf)
	varint.Int64.Marshal(s.tokens, buf[n:])
	return buf
}

func unmarshalStats(data []byte) (s partitionStats, err error) {
	var n int
	if s.chunks, n, err = varint.Int.Unmarshal(data); err != nil {
		return
	}
	if s.tokens, _, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return
	}
	return
}

func getStats(tx *badger.Txn, partition string) (partitionStats, error) {
	item, err := tx.Get(makeStatsKey(partition))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return partitionStats{}, nil
		}
		return partitionStats{}, err
	}
	var stats partitionStats
	err = item.Value(func(val []byte) error {
		stats, err = unmarshalStats(val)
		return err
	})
	return stats, err
}

// Index adds or replaces a chunk in the scope's partition.
func (k *KeywordIndex) Index(ctx context.Context, scope core.Scope, chunk core.Chunk) error {
	terms := analyze(chunk.Text)
	freq := termFrequencies(terms)

	return k.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := getStats(tx, scope.Partition)
		if err != nil {
			return err
		}

		// Replace semantics: drop the chunk's previous postings first.
		if err := removeChunk(tx, scope.Partition, chunk.Id, &stats); err != nil {
			return err
		}

		meta := chunkMeta{
			doc:     chunk.Document,
			ordinal: chunk.Ordinal,
			section: chunk.Section,
			text:    chunk.Text,
			tokens:  chunk.TokenCount,
			dl:      len(terms),
			terms:   make([]string, 0, len(freq)),
		}
		for term, tf := range freq {
			meta.terms = append(meta.terms, term)
			value := marshalPosting(posting{tf: tf, dl: len(terms)})
			if err := tx.Set(makePostingKey(scope.Partition, term, chunk.Id), value); err != nil {
				return err
			}
		}
		if err := tx.Set(makeChunkMetaKey(scope.Partition, chunk.Id), marshalChunkMeta(meta)); err != nil {
			return err
		}
		if err := tx.Set(makeDocChunkKey(scope.Partition, chunk.Document, chunk.Id), nil); err != nil {
			return err
		}

		stats.chunks++
		stats.tokens += int64(len(terms))
		return tx.Set(makeStatsKey(scope.Partition), marshalStats(stats))
	}, true)
}

// Search returns the top-k chunks ranked by BM25 score, descending.
// Ties break by chunk ID for determinism.
func (k *KeywordIndex) Search(ctx context.Context, scope core.Scope, query string, limit int) ([]storage.KeywordHit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: non-positive limit %d", storage.ErrInvalidQuery, limit)
	}

	terms := uniqueTerms(analyze(query))
	if len(terms) == 0 {
		return []storage.KeywordHit{}, nil
	}

	var results []storage.KeywordHit

	err := k.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := getStats(tx, scope.Partition)
		if err != nil {
			return err
		}
		if stats.chunks == 0 {
			return nil
		}
		avgdl := float64(stats.tokens) / float64(stats.chunks)
		if avgdl <= 0 {
			avgdl = 1
		}

		scores := make(map[core.ChunkID]float64)
		for _, term := range terms {
			type hit struct {
				chunk core.ChunkID
				p     posting
			}
			var hits []hit

			prefix := makePostingScanPrefix(scope.Partition, term)
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				item := iter.Item()
				chunk, err := chunkIDFromKey(item.Key(), len(prefix))
				if err != nil {
					iter.Close()
					return err
				}
				var p posting
				if err := item.Value(func(val []byte) error {
					p, err = unmarshalPosting(val)
					return err
				}); err != nil {
					iter.Close()
					return err
				}
				hits = append(hits, hit{chunk: chunk, p: p})
			}
			iter.Close()

			if len(hits) == 0 {
				continue
			}

			df := float64(len(hits))
			idf := math.Log(1 + (float64(stats.chunks)-df+0.5)/(df+0.5))
			for _, h := range hits {
				tf := float64(h.p.tf)
				dl := float64(h.p.dl)
				norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*dl/avgdl))
				scores[h.chunk] += idf * norm
			}
		}

		ranked := make([]storage.KeywordHit, 0, len(scores))
		for chunk, score := range scores {
			ranked = append(ranked, storage.KeywordHit{Chunk: chunk, Score: score})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].Chunk < ranked[j].Chunk
		})
		if len(ranked) > limit {
			ranked = ranked[:limit]
		}

		// Hydrate only the surviving hits with their stored attribution.
		for i := range ranked {
			item, err := tx.Get(makeChunkMetaKey(scope.Partition, ranked[i].Chunk))
			if err != nil {
				return err
			}
			var meta chunkMeta
			if err := item.Value(func(val []byte) error {
				meta, err = unmarshalChunkMeta(val)
				return err
			}); err != nil {
				return err
			}
			ranked[i].Document = meta.doc
			ranked[i].Ordinal = meta.ordinal
			ranked[i].Section = meta.section
			ranked[i].Text = meta.text
			ranked[i].TokenCount = meta.tokens
		}
		results = ranked
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []storage.KeywordHit{}
	}
	return results, nil
}

// DeleteChunks removes chunks from the index. Absent IDs are no-ops.
func (k *KeywordIndex) DeleteChunks(ctx context.Context, scope core.Scope, chunks []core.ChunkID) error {
	return k.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := getStats(tx, scope.Partition)
		if err != nil {
			return err
		}
		for _, chunk := range chunks {
			if err := removeChunk(tx, scope.Partition, chunk, &stats); err != nil {
				return err
			}
		}
		return tx.Set(makeStatsKey(scope.Partition), marshalStats(stats))
	}, true)
}

// DeleteDocument removes every chunk indexed for the document.
func (k *KeywordIndex) DeleteDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) error {
	chunks, err := k.docChunks(scope, doc)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	return k.DeleteChunks(ctx, scope, chunks)
}

// DeleteScope removes the scope's partition entirely.
func (k *KeywordIndex) DeleteScope(ctx context.Context, scope core.Scope) error {
	return k.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range partitionScanPrefixes(scope.Partition) {
			opts := badger.DefaultIteratorOptions
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

// CountDocument reports how many chunks remain indexed for the document.
func (k *KeywordIndex) CountDocument(ctx context.Context, scope core.Scope, doc core.DocumentID) (int, error) {
	chunks, err := k.docChunks(scope, doc)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// CountScope reports how many chunks remain indexed in the scope.
func (k *KeywordIndex) CountScope(ctx context.Context, scope core.Scope) (int, error) {
	var count int
	err := k.backend.WithTx(func(tx *badger.Txn) error {
		stats, err := getStats(tx, scope.Partition)
		if err != nil {
			return err
		}
		count = stats.chunks
		return nil
	}, false)
	return count, err
}

func (k *KeywordIndex) docChunks(scope core.Scope, doc core.DocumentID) ([]core.ChunkID, error) {
	var chunks []core.ChunkID
	err := k.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeDocChunksScanPrefix(scope.Partition, doc)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := chunkIDFromKey(iter.Item().Key(), len(prefix))
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

// removeChunk deletes a chunk's postings, meta and document link,
// adjusting stats in place. Missing chunks are no-ops.
func removeChunk(tx *badger.Txn, partition string, chunk core.ChunkID, stats *partitionStats) error {
	item, err := tx.Get(makeChunkMetaKey(partition, chunk))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}

	var meta chunkMeta
	if err := item.Value(func(val []byte) error {
		meta, err = unmarshalChunkMeta(val)
		return err
	}); err != nil {
		return err
	}

	for _, term := range meta.terms {
		if err := tx.Delete(makePostingKey(partition, term, chunk)); err != nil {
			return err
		}
	}
	if err := tx.Delete(makeDocChunkKey(partition, meta.doc, chunk)); err != nil {
		return err
	}
	if err := tx.Delete(makeChunkMetaKey(partition, chunk)); err != nil {
		return err
	}

	stats.chunks--
	stats.tokens -= int64(meta.dl)
	if stats.chunks < 0 {
		stats.chunks = 0
	}
	if stats.tokens < 0 {
		stats.tokens = 0
	}
	return nil
}

func chunkIDFromKey(key []byte, prefixLen int) (core.ChunkID, error) {
	if len(key) < prefixLen+16 {
		return 0, fmt.Errorf("%w: malformed index key %q", storage.ErrTruncatedData, key)
	}
	id, err := strconv.ParseUint(string(key[prefixLen:prefixLen+16]), 16, 64)
	if err != nil {
		return 0, err
	}
	return core.ChunkID(id), nil
}
