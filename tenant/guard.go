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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// Guard resolves tenant IDs to storage scopes and enforces lifecycle
// state on every operation. It is the single place scopes are derived;
// adapters never compute their own namespaces.
type Guard struct {
	tenants storage.TenantRepository
	logger  *slog.Logger
}

// NewGuard creates a guard over the tenant registry.
func NewGuard(tenants storage.TenantRepository) (*Guard, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	return &Guard{
		tenants: tenants,
		logger:  slog.Default().With("component", "tenant-guard"),
	}, nil
}

// Resolve validates that the tenant exists and is active, and returns its
// record plus the exclusive storage scope. A tenant anywhere in its
// deletion lifecycle yields ErrTenantDeleted, never ErrTenantNotFound.
func (g *Guard) Resolve(ctx context.Context, id core.TenantID) (*core.Tenant, core.Scope, error) {
	tenant, err := g.tenants.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.Scope{}, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
		}
		return nil, core.Scope{}, err
	}
	if tenant.State != core.TenantActive {
		return nil, core.Scope{}, fmt.Errorf("%w: tenant %s is %s", ErrTenantDeleted, id, tenant.State)
	}
	return tenant, ScopeFor(tenant), nil
}

// Lookup returns the tenant record regardless of lifecycle state, for
// administrative paths such as deletion and the reconciliation sweep.
func (g *Guard) Lookup(ctx context.Context, id core.TenantID) (*core.Tenant, core.Scope, error) {
	tenant, err := g.tenants.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.Scope{}, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
		}
		return nil, core.Scope{}, err
	}
	return tenant, ScopeFor(tenant), nil
}

// ScopeFor derives a tenant's exclusive storage scope. The collection
// name binds the tenant to its embedding model, so switching models can
// never mix vectors of different dimensionality.
func ScopeFor(tenant *core.Tenant) core.Scope {
	return core.Scope{
		Tenant:     tenant.Id,
		Collection: fmt.Sprintf("kb_%s_%s", slug(string(tenant.Id)), slug(tenant.EmbeddingModel)),
		Partition:  string(tenant.Id),
	}
}

// slug keeps collection names within the character set vector stores
// commonly accept.
func slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
