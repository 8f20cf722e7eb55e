package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCatalog     = "shapeforge/catalog/v1"
	DomainTransaction = "shapeforge/transaction/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CatalogDigest computes a stable digest of catalog tables.
// The argument must be canonically marshalable (see MarshalCanonical).
func CatalogDigest(tables map[string]any) (string, error) {
	canonical, err := MarshalCanonical(tables)
	if err != nil {
		return "", fmt.Errorf("CatalogDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCatalog, canonical), nil
}

// TransactionID computes a content-addressed ID for a recipe transaction.
// Stable given the same run, machine, recipe, consumed handles and seq; two
// runs sharing a journal never collide.
func TransactionID(runID, machine, recipe string, consumed []Handle, seq int64) (string, error) {
	handles := make([]any, len(consumed))
	for i, h := range consumed {
		handles[i] = h
	}
	obj := map[string]any{
		"run_id":   runID,
		"machine":  machine,
		"recipe":   recipe,
		"consumed": handles,
		"seq":      seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransactionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransaction, canonical), nil
}
