// Package chromem implements the vector store on an embedded chromem-go
// database. Every scope owns a dedicated collection, named after the
// tenant and its embedding model, which is the isolation boundary for
// similarity search.
package chromem
