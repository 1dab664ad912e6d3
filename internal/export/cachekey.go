package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep content hashes and parameter keys from ever
// colliding. The version suffix allows an algorithm migration to coexist
// with old records.
const (
	domainContent = "specl/context/v1"
	domainParams  = "specl/export-params/v1"
)

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null
// separator removes any domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateCacheKey computes the content hash of a pruned, validated
// context. The context is canonicalized first, so key insertion order never
// causes spurious cache misses.
func GenerateCacheKey(context map[string]any) (string, error) {
	canonical, err := MarshalCanonical(context)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return hashWithDomain(domainContent, canonical), nil
}

// ParamsKey derives a lookup key from the export parameters, independent of
// content identity.
func ParamsKey(documentID string, profile Profile, language Language, scope Scope) string {
	canonical, err := MarshalCanonical(map[string]any{
		"documentId": documentID,
		"profile":    string(profile),
		"language":   string(language),
		"scope":      string(scope),
	})
	if err != nil {
		// All inputs are strings; canonical marshaling cannot fail.
		panic(err)
	}
	return hashWithDomain(domainParams, canonical)
}
