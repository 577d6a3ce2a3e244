// Package retrieval implements the query side of the knowledge base:
// hybrid vector plus keyword retrieval run concurrently, min-max score
// fusion, optional cross-encoder reranking, relevance thresholding and
// budget-bounded context assembly. A query that finds nothing relevant
// yields an Insufficient result, never a fabricated answer and never an
// error; only the loss of both retrieval signals is a failure.
package retrieval
