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


// Package storage provides the storage abstraction layer for the
// retrieval core.
//
// It defines repository and adapter interfaces that decouple storage
// implementations from the pipeline:
//
//   - TenantRepository: tenant registry and API keys
//   - DocumentRepository: per-tenant document catalog
//   - VectorStore: per-scope vector similarity search and upsert
//   - KeywordIndex: per-scope lexical (BM25) search
//
// Implementation packages:
//
//   - storage/badger: BadgerDB-backed registry, catalog and keyword index
//   - storage/chromem: chromem-go-backed vector store
//
// Every adapter method takes an explicit core.Scope; isolation between
// tenants is enforced at this boundary and implementations must never
// let entries written under one scope become visible from another.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable alternative backends. Internal constructors may return concrete
// types within the implementation package.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout
// support; no storage call may block past its caller's deadline.
package storage
