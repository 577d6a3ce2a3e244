package badger

import (
	"fmt"
	"strings"

	"github.com/stratumhq/corpus/core"
)

// Key prefixes for different data types
const (
	tenantPrefix     = "ten"
	tenantNamePrefix = "tenn"
	apiKeyPrefix     = "key"
	documentPrefix   = "doc"
	docNamePrefix    = "docn"

	// keyword index keyspace, always partition-scoped
	postingPrefix   = "kwp" // kwp:<partition>:<term>:<chunk> -> tf, dl
	chunkMetaPrefix = "kwc" // kwc:<partition>:<chunk> -> doc, dl, terms
	docChunksPrefix = "kwd" // kwd:<partition>:<doc>:<chunk> -> empty
	statsPrefix     = "kws" // kws:<partition> -> chunk count, token count
)

func makeTenantKey(id core.TenantID) []byte {
	return fmt.Appendf(nil, "%s:%s", tenantPrefix, id)
}

func makeTenantNameKey(name string) []byte {
	return fmt.Appendf(nil, "%s:%s", tenantNamePrefix, name)
}

func makeAPIKeyKey(keyId string) []byte {
	return fmt.Appendf(nil, "%s:%s", apiKeyPrefix, keyId)
}

func makeDocumentKey(tenant core.TenantID, id core.DocumentID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", documentPrefix, tenant, id)
}

func makeDocumentScanPrefix(tenant core.TenantID) []byte {
	return fmt.Appendf(nil, "%s:%s:", documentPrefix, tenant)
}

func makeDocNameKey(tenant core.TenantID, name string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", docNamePrefix, tenant, name)
}

// termEscaper keeps ':' out of the term segment of posting keys. Terms
// like URLs survive the analyzer with colons intact; left unescaped they
// would corrupt the prefix scan of every term that is their colon-prefix.
var termEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func makePostingKey(partition, term string, chunk core.ChunkID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:%s", postingPrefix, partition, termEscaper.Replace(term), chunk)
}

func makePostingScanPrefix(partition, term string) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:", postingPrefix, partition, termEscaper.Replace(term))
}

func makeChunkMetaKey(partition string, chunk core.ChunkID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s", chunkMetaPrefix, partition, chunk)
}

func makeChunkMetaScanPrefix(partition string) []byte {
	return fmt.Appendf(nil, "%s:%s:", chunkMetaPrefix, partition)
}

func makeDocChunkKey(partition string, doc core.DocumentID, chunk core.ChunkID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:%s", docChunksPrefix, partition, doc, chunk)
}

func makeDocChunksScanPrefix(partition string, doc core.DocumentID) []byte {
	return fmt.Appendf(nil, "%s:%s:%s:", docChunksPrefix, partition, doc)
}

func makeStatsKey(partition string) []byte {
	return fmt.Appendf(nil, "%s:%s", statsPrefix, partition)
}

// partitionScanPrefixes returns every keyspace prefix owned by a partition,
// used by DeleteScope.
func partitionScanPrefixes(partition string) [][]byte {
	return [][]byte{
		fmt.Appendf(nil, "%s:%s:", postingPrefix, partition),
		fmt.Appendf(nil, "%s:%s:", chunkMetaPrefix, partition),
		fmt.Appendf(nil, "%s:%s:", docChunksPrefix, partition),
		fmt.Appendf(nil, "%s:%s", statsPrefix, partition),
	}
}
