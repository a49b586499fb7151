package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
)

// AssessKey returns the cache key for a category's AI framing:
// assess:{category}:{evidenceHash}
func AssessKey(category string, evidence []model.EvidenceItem) string {
	return "assess:" + category + ":" + EvidenceHash(evidence)
}

// RAGKey returns the cache key for retrieval results:
// rag:{category}:{queryHash}
func RAGKey(category, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "rag:" + category + ":" + hex.EncodeToString(sum[:16])
}

// EvidenceHash fingerprints an evidence set independent of its order.
// Any change to an item's identity or text yields a new hash.
func EvidenceHash(evidence []model.EvidenceItem) string {
	parts := make([]string, len(evidence))
	for i, item := range evidence {
		itemSum := sha256.Sum256([]byte(item.ID + "\x00" + item.Title + "\x00" + item.Text))
		parts[i] = hex.EncodeToString(itemSum[:])
	}
	sort.Strings(parts)

	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:16])
}
