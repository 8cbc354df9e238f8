package model

// AttestationTypeVTPM marks attestations backed by a GCP vTPM proof token
const AttestationTypeVTPM = "gcp_vtpm"

// Attestation is the persisted claim binding a query/context/response triple
// to a deterministic hash and, when available, a hardware-rooted proof token.
// An attestation is immutable after construction; verification produces a
// separate VerificationResult and never mutates the attestation.
type Attestation struct {
	DataHash  string `json:"data_hash"`           // hex sha256 over the canonical triple
	Header    string `json:"header,omitempty"`    // 0x-hex decoded token header
	Payload   string `json:"payload,omitempty"`   // 0x-hex decoded token payload
	Signature string `json:"signature,omitempty"` // 0x-hex decoded token signature
	Digest    string `json:"digest,omitempty"`    // 0x-hex sha256 over header+payload
	Timestamp int64  `json:"timestamp"`           // unix seconds
	Simulated bool   `json:"simulated"`
	Type      string `json:"type,omitempty"`
}

// HasToken reports whether a complete proof token is attached
func (a Attestation) HasToken() bool {
	return a.Header != "" && a.Payload != "" && a.Signature != ""
}

// VerificationResult is produced fresh by every verification call.
// It is never cached and never linked back into the attestation record.
type VerificationResult struct {
	Verified        bool   `json:"verified"`
	Simulated       bool   `json:"simulated"`
	Timestamp       int64  `json:"timestamp"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Error           string `json:"error,omitempty"`
}
