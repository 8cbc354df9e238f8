package model

// GeneratedAnswer is the normalized structured output of the generation client
type GeneratedAnswer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SourceRef is one evidence source as presented in an answered result.
// Content is truncated to a bounded preview length.
type SourceRef struct {
	Text       string  `json:"text"`
	Source     string  `json:"source"` // display name of the source kind
	SourceType string  `json:"source_type"`
	TrustScore float64 `json:"trust_score"`
	URL        string  `json:"url,omitempty"`
	Timestamp  int64   `json:"timestamp"`
}

// AnsweredResult is the complete response to one query.
// Answer never fails outright: expected failure modes surface through the
// Error field and a degraded answer rather than a Go error.
type AnsweredResult struct {
	QueryID        string       `json:"query_id"`
	Query          string       `json:"query"`
	Answer         string       `json:"answer"`
	Confidence     float64      `json:"confidence"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Sources        []SourceRef  `json:"sources"`
	Attestation    *Attestation `json:"attestation,omitempty"`
	Error          string       `json:"error,omitempty"`
	ProcessingTime float64      `json:"processing_time"` // seconds
}
