package assemble

import (
	"strings"
	"testing"

	"github.com/chaincontext/chaincontext/internal/model"
)

func scoredItem(id string, score float64) model.ScoredEvidence {
	return model.ScoredEvidence{
		EvidenceItem: model.EvidenceItem{
			ID:      id,
			Content: "content for " + id,
			Source:  model.SourceFlareDocs,
		},
		TrustScore: score,
	}
}

func TestAssembler_Partition_TotalAndDisjoint(t *testing.T) {
	assembler := NewAssembler(nil)

	items := []model.ScoredEvidence{
		scoredItem("a", 0.95),
		scoredItem("b", 0.61),
		scoredItem("c", 0.6),
		scoredItem("d", 0.5),
		scoredItem("e", 0.4),
		scoredItem("f", 0.39),
		scoredItem("g", 0.0),
		scoredItem("h", 1.0),
	}

	bundle := assembler.Partition(items)

	if bundle.Len() != len(items) {
		t.Fatalf("partition not total: %d in, %d out", len(items), bundle.Len())
	}

	seen := make(map[string]int)
	for _, tier := range [][]model.ScoredEvidence{bundle.HighTrust, bundle.MediumTrust, bundle.LowTrust} {
		for _, item := range tier {
			seen[item.ID]++
		}
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("item %q appears in %d tiers", id, count)
		}
	}
}

func TestAssembler_Partition_BoundariesLandInMedium(t *testing.T) {
	assembler := NewAssembler(nil)

	bundle := assembler.Partition([]model.ScoredEvidence{
		scoredItem("lo", 0.4),
		scoredItem("hi", 0.6),
	})

	if len(bundle.MediumTrust) != 2 {
		t.Fatalf("expected both boundary scores in medium tier, got high=%d medium=%d low=%d",
			len(bundle.HighTrust), len(bundle.MediumTrust), len(bundle.LowTrust))
	}
}

func TestAssembler_Format_Sections(t *testing.T) {
	assembler := NewAssembler(nil)

	bundle := assembler.Partition([]model.ScoredEvidence{
		scoredItem("a", 0.9),
		scoredItem("b", 0.5),
	})

	prompt := assembler.Format("What is FTSO?", bundle)

	if !strings.Contains(prompt, "QUERY: What is FTSO?") {
		t.Error("prompt missing literal query")
	}
	if !strings.Contains(prompt, "HIGHLY TRUSTED CONTEXT") {
		t.Error("prompt missing high trust section")
	}
	if !strings.Contains(prompt, "MEDIUM TRUSTED CONTEXT") {
		t.Error("prompt missing medium trust section")
	}
	if strings.Contains(prompt, "LOW TRUSTED CONTEXT") {
		t.Error("empty low tier should be omitted")
	}
	if !strings.Contains(prompt, "(Trust: 0.90)") {
		t.Error("trust scores should render with two decimals")
	}
	if !strings.Contains(prompt, `"answer"`) || !strings.Contains(prompt, `"confidence"`) {
		t.Error("prompt missing structured response instructions")
	}
}

func TestAssembler_Format_EmptyHighTierPlaceholder(t *testing.T) {
	assembler := NewAssembler(nil)

	bundle := assembler.Partition([]model.ScoredEvidence{scoredItem("a", 0.1)})
	prompt := assembler.Format("query", bundle)

	if !strings.Contains(prompt, "No highly trusted context available.") {
		t.Error("expected placeholder for empty high tier")
	}
	if !strings.Contains(prompt, "LOW TRUSTED CONTEXT") {
		t.Error("expected low trust section for low-scoring evidence")
	}
}

func TestAssembler_Format_Deterministic(t *testing.T) {
	assembler := NewAssembler(nil)

	items := []model.ScoredEvidence{
		scoredItem("a", 0.9),
		scoredItem("b", 0.5),
		scoredItem("c", 0.2),
	}
	bundle := assembler.Partition(items)

	first := assembler.Format("query", bundle)
	second := assembler.Format("query", bundle)
	if first != second {
		t.Error("identical inputs must produce identical prompts")
	}
}
