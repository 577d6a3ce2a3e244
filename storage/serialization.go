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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stratumhq/corpus/core"
)

// Handwritten mus-go serializers for stored records. Field order is part
// of the on-disk format; append new fields at the end only.

// tenantMUS serializes core.Tenant.
type tenantMUS struct{}

// TenantMUS is the serializer for core.Tenant records.
var TenantMUS = tenantMUS{}

func (tenantMUS) Size(t core.Tenant) (size int) {
	size = ord.String.Size(string(t.Id))
	size += ord.String.Size(t.Name)
	size += ord.String.Size(t.Description)
	size += ord.String.Size(t.SystemPrompt)
	size += ord.String.Size(t.ChatModel)
	size += ord.String.Size(t.EmbeddingModel)
	size += varint.Int.Size(int(t.State))
	size += varint.Int64.Size(t.CreatedAt.UnixNano())
	size += varint.Int64.Size(t.UpdatedAt.UnixNano())
	return size
}

func (tenantMUS) Marshal(t core.Tenant, bs []byte) (n int) {
	n = ord.String.Marshal(string(t.Id), bs)
	n += ord.String.Marshal(t.Name, bs[n:])
	n += ord.String.Marshal(t.Description, bs[n:])
	n += ord.String.Marshal(t.SystemPrompt, bs[n:])
	n += ord.String.Marshal(t.ChatModel, bs[n:])
	n += ord.String.Marshal(t.EmbeddingModel, bs[n:])
	n += varint.Int.Marshal(int(t.State), bs[n:])
	n += varint.Int64.Marshal(t.CreatedAt.UnixNano(), bs[n:])
	n += varint.Int64.Marshal(t.UpdatedAt.UnixNano(), bs[n:])
	return n
}

func (tenantMUS) Unmarshal(bs []byte) (t core.Tenant, n int, err error) {
	var (
		s  string
		i  int
		ts int64
		m  int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	t.Id = core.TenantID(s)
	if t.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if t.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if t.SystemPrompt, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if t.ChatModel, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if t.EmbeddingModel, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if i, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	t.State = core.TenantState(i)
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	t.CreatedAt = time.Unix(0, ts).UTC()
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	t.UpdatedAt = time.Unix(0, ts).UTC()
	return
}

// documentMUS serializes core.Document.
type documentMUS struct{}

// DocumentMUS is the serializer for core.Document records.
var DocumentMUS = documentMUS{}

func (documentMUS) Size(d core.Document) (size int) {
	size = ord.String.Size(string(d.Id))
	size += ord.String.Size(string(d.Tenant))
	size += ord.String.Size(d.Name)
	size += varint.Uint64.Size(d.ContentHash)
	size += varint.Int.Size(d.ChunkCount)
	size += varint.Int.Size(int(d.State))
	size += varint.Int64.Size(d.IngestedAt.UnixNano())
	size += varint.Int64.Size(d.UpdatedAt.UnixNano())
	return size
}

func (documentMUS) Marshal(d core.Document, bs []byte) (n int) {
	n = ord.String.Marshal(string(d.Id), bs)
	n += ord.String.Marshal(string(d.Tenant), bs[n:])
	n += ord.String.Marshal(d.Name, bs[n:])
	n += varint.Uint64.Marshal(d.ContentHash, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += varint.Int.Marshal(int(d.State), bs[n:])
	n += varint.Int64.Marshal(d.IngestedAt.UnixNano(), bs[n:])
	n += varint.Int64.Marshal(d.UpdatedAt.UnixNano(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d core.Document, n int, err error) {
	var (
		s  string
		i  int
		ts int64
		m  int
	)
	if s, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	d.Id = core.DocumentID(s)
	if s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	d.Tenant = core.TenantID(s)
	if d.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.ContentHash, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if d.ChunkCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if i, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	d.State = core.DocumentState(i)
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	d.IngestedAt = time.Unix(0, ts).UTC()
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	d.UpdatedAt = time.Unix(0, ts).UTC()
	return
}

// apiKeyMUS serializes core.APIKeyRecord.
type apiKeyMUS struct{}

// APIKeyMUS is the serializer for core.APIKeyRecord records.
var APIKeyMUS = apiKeyMUS{}

func (apiKeyMUS) Size(r core.APIKeyRecord) (size int) {
	size = ord.String.Size(r.KeyId)
	size += ord.String.Size(string(r.Tenant))
	size += ord.String.Size(r.Hash)
	size += varint.Int64.Size(r.CreatedAt.UnixNano())
	return size
}

func (apiKeyMUS) Marshal(r core.APIKeyRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.KeyId, bs)
	n += ord.String.Marshal(string(r.Tenant), bs[n:])
	n += ord.String.Marshal(r.Hash, bs[n:])
	n += varint.Int64.Marshal(r.CreatedAt.UnixNano(), bs[n:])
	return n
}

func (apiKeyMUS) Unmarshal(bs []byte) (r core.APIKeyRecord, n int, err error) {
	var (
		s  string
		ts int64
		m  int
	)
	if r.KeyId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	r.Tenant = core.TenantID(s)
	if r.Hash, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if ts, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	r.CreatedAt = time.Unix(0, ts).UTC()
	return
}

// MarshalTenant serializes a Tenant to bytes.
func MarshalTenant(tenant *core.Tenant) []byte {
	buf := make([]byte, TenantMUS.Size(*tenant))
	TenantMUS.Marshal(*tenant, buf)
	return buf
}

// UnmarshalTenant deserializes a Tenant from bytes.
func UnmarshalTenant(data []byte) (*core.Tenant, error) {
	tenant, _, err := TenantMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalAPIKey serializes an APIKeyRecord to bytes.
func MarshalAPIKey(record *core.APIKeyRecord) []byte {
	buf := make([]byte, APIKeyMUS.Size(*record))
	APIKeyMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalAPIKey deserializes an APIKeyRecord from bytes.
func UnmarshalAPIKey(data []byte) (*core.APIKeyRecord, error) {
	record, _, err := APIKeyMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
