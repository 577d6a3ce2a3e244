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

package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	// Repositories return it for unknown tenants, documents and API keys;
	// callers distinguish it from infrastructure failures with errors.Is.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a uniqueness violation, such as a second
	// tenant registered under an existing name.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidQuery indicates malformed query or write parameters,
	// such as a non-positive result limit or an entry without a vector.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a stored record could not be
	// decoded back into its domain type.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates a stored key or value was shorter than
	// its format requires.
	ErrTruncatedData = errors.New("truncated data")
)
