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
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-crypt/x/bcrypt"
	"github.com/stratumhq/corpus/core"
	"github.com/stratumhq/corpus/storage"
)

// API keys look like "ck_<keyid>.<secret>". The key ID is public and
// indexes the stored bcrypt hash; the secret is shown once and never
// stored.
const keyPrefix = "ck_"

// Keyring issues and verifies tenant API keys.
type Keyring struct {
	tenants storage.TenantRepository
	guard   *Guard
	logger  *slog.Logger
}

// NewKeyring creates a keyring over the tenant registry.
func NewKeyring(tenants storage.TenantRepository, guard *Guard) (*Keyring, error) {
	if tenants == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("guard required")
	}
	return &Keyring{
		tenants: tenants,
		guard:   guard,
		logger:  slog.Default().With("component", "keyring"),
	}, nil
}

// Issue generates a new API key for an active tenant and returns the raw
// key. Only the bcrypt hash of the secret is persisted.
func (k *Keyring) Issue(ctx context.Context, id core.TenantID) (string, error) {
	if _, _, err := k.guard.Resolve(ctx, id); err != nil {
		return "", err
	}

	keyId, secret, err := generateKeyMaterial()
	if err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	record := &core.APIKeyRecord{
		KeyId:  keyId,
		Tenant: id,
		Hash:   string(hash),
	}
	if err := k.tenants.AddAPIKey(ctx, record); err != nil {
		return "", err
	}

	k.logger.Info("api key issued", "tenant", id, "key", keyId)
	return keyId + "." + secret, nil
}

// Authenticate verifies a raw API key and returns the owning tenant ID.
// Keys of deleted tenants fail with ErrTenantDeleted.
func (k *Keyring) Authenticate(ctx context.Context, rawKey string) (core.TenantID, error) {
	keyId, secret, ok := splitKey(rawKey)
	if !ok {
		return "", ErrInvalidAPIKey
	}

	record, err := k.tenants.GetAPIKey(ctx, keyId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidAPIKey
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.Hash), []byte(secret)); err != nil {
		return "", ErrInvalidAPIKey
	}

	if _, _, err := k.guard.Resolve(ctx, record.Tenant); err != nil {
		return "", err
	}
	return record.Tenant, nil
}

// Revoke removes every API key issued to a tenant.
func (k *Keyring) Revoke(ctx context.Context, id core.TenantID) error {
	return k.tenants.DeleteAPIKeys(ctx, id)
}

func generateKeyMaterial() (keyId, secret string, err error) {
	idBytes := make([]byte, 6)
	if _, err = rand.Read(idBytes); err != nil {
		return "", "", err
	}
	secretBytes := make([]byte, 24)
	if _, err = rand.Read(secretBytes); err != nil {
		return "", "", err
	}
	keyId = keyPrefix + hex.EncodeToString(idBytes)
	secret = base64.RawURLEncoding.EncodeToString(secretBytes)
	return keyId, secret, nil
}

func splitKey(rawKey string) (keyId, secret string, ok bool) {
	if !strings.HasPrefix(rawKey, keyPrefix) {
		return "", "", false
	}
	keyId, secret, ok = strings.Cut(rawKey, ".")
	if !ok || keyId == keyPrefix || secret == "" {
		return "", "", false
	}
	return keyId, secret, true
}
