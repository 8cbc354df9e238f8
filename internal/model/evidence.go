package model

// SourceKind identifies where a piece of evidence originated
type SourceKind string

const (
	SourceFTSO2s           SourceKind = "ftso_2s"           // FTSO 2-second latency feed
	SourceFTSO90s          SourceKind = "ftso_90s"          // FTSO 90-second anchor feed
	SourceBlockchainState  SourceKind = "blockchain_state"  // Direct chain state reads
	SourceFlareDocs        SourceKind = "flare_docs"        // Official documentation
	SourceGitHubCode       SourceKind = "github_code"       // Repository code
	SourceGitHubIssues     SourceKind = "github_issues"     // Issue tracker discussion
	SourceTwitterOfficial  SourceKind = "twitter_official"  // Official social accounts
	SourceTwitterCommunity SourceKind = "twitter_community" // Community social posts
)

// DisplayName returns a human-readable label for the source kind
func (s SourceKind) DisplayName() string {
	names := map[SourceKind]string{
		SourceFTSO2s:           "FTSO 2s Data",
		SourceFTSO90s:          "FTSO 90s Data",
		SourceBlockchainState:  "Blockchain State",
		SourceFlareDocs:        "Flare Documentation",
		SourceGitHubCode:       "GitHub Code",
		SourceGitHubIssues:     "GitHub Issues",
		SourceTwitterOfficial:  "Official Twitter",
		SourceTwitterCommunity: "Community Twitter",
	}
	if name, ok := names[s]; ok {
		return name
	}
	return titleCase(string(s))
}

// titleCase converts an identifier like "unknown_blog" to "Unknown Blog"
func titleCase(s string) string {
	out := make([]byte, 0, len(s))
	upper := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

// EvidenceItem is one immutable piece of retrieved context.
// Items are produced by the retriever per query and never mutated.
type EvidenceItem struct {
	ID                     string     `json:"id"`
	Content                string     `json:"content"`
	Source                 SourceKind `json:"source"`
	Timestamp              int64      `json:"timestamp"` // unix seconds
	CrossVerificationCount uint       `json:"cross_verifications,omitempty"`
	OnchainVerified        bool       `json:"onchain_verified,omitempty"`
	URL                    string     `json:"url,omitempty"`
}

// TrustFactors is the per-item scoring breakdown. All factors are in [0,1];
// OnchainBonus is either 0 or the configured flat bonus.
type TrustFactors struct {
	Recency           float64 `json:"recency"`
	SourceReliability float64 `json:"source_reliability"`
	CrossVerification float64 `json:"cross_verification"`
	OnchainBonus      float64 `json:"onchain_verification"`
	Overall           float64 `json:"overall_score"`
}

// ScoredEvidence is an evidence item with its composite trust score attached
type ScoredEvidence struct {
	EvidenceItem
	TrustScore float64 `json:"trust_score"`
}

// PromptBundle partitions scored evidence into trust tiers.
// The partition is total and disjoint; membership is determined solely by
// the trust score against the configured thresholds.
type PromptBundle struct {
	HighTrust   []ScoredEvidence `json:"high_trust"`
	MediumTrust []ScoredEvidence `json:"medium_trust"`
	LowTrust    []ScoredEvidence `json:"low_trust"`
}

// Len returns the total number of items across all tiers
func (b PromptBundle) Len() int {
	return len(b.HighTrust) + len(b.MediumTrust) + len(b.LowTrust)
}
