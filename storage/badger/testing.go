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

package badger

import "github.com/stratumhq/corpus/storage"

// NewMemoryRepositories creates in-memory tenant and document repositories
// plus a keyword index for testing.
// Returns tenantRepo, docRepo, keywordIndex, backend, and error.
// Caller must close the repos and backend when done.
func NewMemoryRepositories() (storage.TenantRepository, storage.DocumentRepository, storage.KeywordIndex, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tenantRepo, err := NewTenantRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	docRepo, err := NewDocumentRepository(backend)
	if err != nil {
		tenantRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	keywords, err := NewKeywordIndex(backend)
	if err != nil {
		docRepo.Close()
		tenantRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return tenantRepo, docRepo, keywords, backend, nil
}
