// Package assemble partitions scored evidence into trust tiers and renders
// the trust-weighted prompt sent to the generation client.
package assemble

import (
	"fmt"
	"strings"

	"github.com/chaincontext/chaincontext/internal/model"
)

// Assembler builds trust-tiered prompts. Formatting is deterministic given
// identical inputs so downstream hashing stays reproducible.
type Assembler struct {
	high float64
	low  float64
}

// NewAssembler creates an assembler. A nil config uses the built-in thresholds.
func NewAssembler(cfg *model.TrustConfig) *Assembler {
	if cfg == nil {
		cfg = &model.DefaultConfig().Trust
	}
	return &Assembler{
		high: cfg.HighTrustThreshold,
		low:  cfg.LowTrustThreshold,
	}
}

// Partition splits scored evidence into high (> high threshold), medium
// (inclusive between the thresholds) and low (< low threshold) tiers.
// Scores landing exactly on a threshold always go to the medium tier.
func (a *Assembler) Partition(items []model.ScoredEvidence) model.PromptBundle {
	var bundle model.PromptBundle
	for _, item := range items {
		switch {
		case item.TrustScore > a.high:
			bundle.HighTrust = append(bundle.HighTrust, item)
		case item.TrustScore < a.low:
			bundle.LowTrust = append(bundle.LowTrust, item)
		default:
			bundle.MediumTrust = append(bundle.MediumTrust, item)
		}
	}
	return bundle
}

// Format renders the complete prompt: role header, the literal query, one
// labeled section per non-empty tier (the high tier always appears, with a
// placeholder when empty), and the fixed instruction block.
func (a *Assembler) Format(query string, bundle model.PromptBundle) string {
	var b strings.Builder

	b.WriteString("You are ChainContext, a knowledgeable assistant specializing in the Flare blockchain ecosystem.\n\n")
	b.WriteString("Answer the following query based on the provided context information.\n")
	b.WriteString("Each piece of context has a trust score (0-1) indicating its reliability.\n\n")
	fmt.Fprintf(&b, "QUERY: %s\n\n", query)

	fmt.Fprintf(&b, "HIGHLY TRUSTED CONTEXT (Trust Score > %.1f):\n", a.high)
	if len(bundle.HighTrust) > 0 {
		writeTier(&b, bundle.HighTrust)
	} else {
		b.WriteString("\nNo highly trusted context available.\n")
	}

	if len(bundle.MediumTrust) > 0 {
		fmt.Fprintf(&b, "\nMEDIUM TRUSTED CONTEXT (Trust Score %.1f-%.1f):\n", a.low, a.high)
		writeTier(&b, bundle.MediumTrust)
	}

	if len(bundle.LowTrust) > 0 {
		fmt.Fprintf(&b, "\nLOW TRUSTED CONTEXT (Trust Score < %.1f) - Use with caution:\n", a.low)
		writeTier(&b, bundle.LowTrust)
	}

	b.WriteString(`
INSTRUCTIONS:
1. Answer the query using only the provided context.
2. Prioritize information from highly trusted sources.
3. If there are conflicts, explain them and favor higher trust sources.
4. If the context doesn't contain relevant information, state that you don't have sufficient information.
5. Include a confidence assessment in your answer based on the trust scores and completeness of information.
6. Format your answer in JSON with the following structure:
{
  "answer": "Your comprehensive answer goes here",
  "confidence": 0.85,
  "reasoning": "Brief explanation of how you determined the answer and confidence"
}
`)

	return b.String()
}

func writeTier(b *strings.Builder, items []model.ScoredEvidence) {
	for i, item := range items {
		fmt.Fprintf(b, "\n[%d] Source: %s (Trust: %.2f)\n%s\n", i+1, item.Source, item.TrustScore, item.Content)
	}
}
