// Package ingest implements the document ingestion pipeline: raw text is
// normalized, split into overlapping structure-aware chunks, embedded,
// and upserted into the tenant's vector and keyword stores. Ingestion is
// idempotent: chunk IDs derive from content, unchanged documents are
// skipped, and changed documents fully supersede their previous chunks.
package ingest
