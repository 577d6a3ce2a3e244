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

package tenant

import "errors"

var (
	// ErrTenantNotFound indicates the tenant ID resolves to nothing.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantDeleted indicates the tenant exists but is somewhere in its
	// deletion lifecycle. Callers must not treat this as ErrTenantNotFound:
	// a deleted tenant still owns data until the purge confirms otherwise.
	ErrTenantDeleted = errors.New("tenant deleted")

	// ErrInvalidAPIKey indicates an API key that is malformed, unknown, or
	// fails verification. The cause is deliberately not distinguished.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
