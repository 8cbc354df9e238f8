// Package attest produces verifiable attestations binding a query, its
// scored context, and the generated answer to a TEE-issued proof token.
package attest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/chaincontext/chaincontext/internal/model"
)

// hashInput is the canonical structure hashed into an attestation. Context
// items are sorted by ID before marshalling so the hash is independent of
// scoring order.
type hashInput struct {
	Query    string                 `json:"query"`
	Context  []model.ScoredEvidence `json:"context"`
	Response model.GeneratedAnswer  `json:"response"`
}

// DataHash computes the SHA-256 hex digest over the canonical JSON
// encoding of the query, its scored context, and the generated answer.
// The same inputs always hash to the same value regardless of the order
// the context items arrive in.
func DataHash(query string, contextItems []model.ScoredEvidence, response model.GeneratedAnswer) string {
	sorted := make([]model.ScoredEvidence, len(contextItems))
	copy(sorted, contextItems)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := json.Marshal(hashInput{
		Query:    query,
		Context:  sorted,
		Response: response,
	})
	if err != nil {
		// Marshalling plain structs cannot fail; hash the query alone
		// as a degenerate fallback.
		data = []byte(query)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TokenDigest computes the 0x-prefixed SHA-256 digest over the raw bytes
// of a token's header and payload. This matches the digest the on-chain
// verifier recomputes from the submitted parts.
func TokenDigest(headerHex, payloadHex string) (string, error) {
	header, err := hex.DecodeString(trimHexPrefix(headerHex))
	if err != nil {
		return "", fmt.Errorf("decode header: %w", err)
	}
	payload, err := hex.DecodeString(trimHexPrefix(payloadHex))
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	sum := sha256.Sum256(append(header, payload...))
	return "0x" + hex.EncodeToString(sum[:]), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
