package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/chaincontext/chaincontext/internal/attest"
	"github.com/chaincontext/chaincontext/internal/genai"
	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/store"
)

type mockGenerator struct {
	data    map[string]any
	text    string
	success bool
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt, systemInstruction string) genai.Generation {
	m.prompts = append(m.prompts, prompt)
	return genai.Generation{Text: m.text, Success: m.success}
}

func (m *mockGenerator) GenerateStructured(ctx context.Context, prompt string, schema map[string]string, systemInstruction string) genai.StructuredGeneration {
	m.prompts = append(m.prompts, prompt)
	return genai.StructuredGeneration{Data: m.data, Text: m.text, Success: m.success}
}

type mockRetriever struct {
	items []model.EvidenceItem
	err   error
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	return m.items, m.err
}

func simulatedAttestor() *attest.Generator {
	return attest.NewGeneratorWithSources()
}

func structuredGenerator(answer string, confidence float64) *mockGenerator {
	return &mockGenerator{
		data:    map[string]any{"answer": answer, "confidence": confidence, "reasoning": "from evidence"},
		success: true,
	}
}

func testItems() []model.EvidenceItem {
	now := time.Now().Unix()
	return []model.EvidenceItem{
		{ID: "a", Content: "fresh chain state", Source: model.SourceBlockchainState, Timestamp: now - 60, OnchainVerified: true},
		{ID: "b", Content: "old community chatter", Source: model.SourceTwitterCommunity, Timestamp: now - 40*86400},
	}
}

func TestAnswerHappyPath(t *testing.T) {
	gen := structuredGenerator("The network is healthy.", 0.9)
	recorder := store.NewMemoryStore()
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: gen,
		Attestor:  simulatedAttestor(),
		Store:     recorder,
	})

	result := p.Answer(context.Background(), "network status", "user-1")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Answer != "The network is healthy." {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if result.Confidence != 0.9 {
		t.Errorf("unexpected confidence %v", result.Confidence)
	}
	if len(result.QueryID) != 32 {
		t.Errorf("expected 32-char query id, got %q", result.QueryID)
	}
	if result.Attestation == nil {
		t.Fatal("expected an attestation")
	}
	if !result.Attestation.Simulated {
		t.Error("no token sources configured, attestation should be simulated")
	}
	if result.Attestation.DataHash == "" {
		t.Error("attestation must carry the data hash")
	}
	if result.ProcessingTime < 0 {
		t.Errorf("negative processing time %v", result.ProcessingTime)
	}

	records := recorder.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	if records[0].UserID != "user-1" {
		t.Errorf("unexpected user id %q", records[0].UserID)
	}
}

func TestAnswerSourcesSortedByTrust(t *testing.T) {
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: structuredGenerator("ok", 0.8),
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "network status", "")

	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Sources[0].TrustScore < result.Sources[1].TrustScore {
		t.Error("sources should be ordered most trusted first")
	}
	if result.Sources[0].SourceType != string(model.SourceBlockchainState) {
		t.Errorf("fresh chain state should rank first, got %s", result.Sources[0].SourceType)
	}
}

func TestAnswerRetrieverFailureDegrades(t *testing.T) {
	p := NewPipeline(Options{
		Retriever: &mockRetriever{err: fmt.Errorf("index offline")},
		Generator: structuredGenerator("unused", 0.5),
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "anything", "")

	if result.Error == "" {
		t.Fatal("expected error to be reported")
	}
	if result.Answer != degradedAnswer {
		t.Errorf("expected degraded answer, got %q", result.Answer)
	}
	if result.Confidence != 0 {
		t.Errorf("degraded result should carry zero confidence, got %v", result.Confidence)
	}
	if result.Attestation != nil {
		t.Error("failed queries should not carry an attestation")
	}
}

func TestAnswerNoGeneratorDegrades(t *testing.T) {
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "anything", "")

	if result.Error == "" || !strings.Contains(result.Error, "not configured") {
		t.Errorf("expected configuration error, got %q", result.Error)
	}
	if result.Answer != degradedAnswer {
		t.Errorf("expected degraded answer, got %q", result.Answer)
	}
}

func TestAnswerSalvagesUnstructuredText(t *testing.T) {
	gen := &mockGenerator{text: "plain prose answer with no JSON at all", success: true}
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: gen,
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "anything", "")

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if result.Answer != "plain prose answer with no JSON at all" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if result.Confidence != 0.4 {
		t.Errorf("salvaged text should carry reduced confidence, got %v", result.Confidence)
	}
}

func TestAnswerExtractsFencedJSONFromText(t *testing.T) {
	gen := &mockGenerator{
		text:    "```json\n{\"answer\": \"fenced\", \"confidence\": 0.7, \"reasoning\": \"r\"}\n```",
		success: true,
	}
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: gen,
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "anything", "")

	if result.Answer != "fenced" {
		t.Errorf("unexpected answer %q", result.Answer)
	}
	if result.Confidence != 0.7 {
		t.Errorf("unexpected confidence %v", result.Confidence)
	}
}

func TestAnswerParallelScoringMatchesSequential(t *testing.T) {
	items := testItems()
	gen := structuredGenerator("ok", 0.8)

	sequential := NewPipeline(Options{
		Retriever: &mockRetriever{items: items},
		Generator: gen,
		Attestor:  simulatedAttestor(),
		Workers:   1,
	})
	parallel := NewPipeline(Options{
		Retriever: &mockRetriever{items: items},
		Generator: structuredGenerator("ok", 0.8),
		Attestor:  simulatedAttestor(),
		Workers:   4,
	})

	seq := sequential.Answer(context.Background(), "q", "")
	par := parallel.Answer(context.Background(), "q", "")

	if len(seq.Sources) != len(par.Sources) {
		t.Fatalf("source count mismatch: %d vs %d", len(seq.Sources), len(par.Sources))
	}
	for i := range seq.Sources {
		if seq.Sources[i].SourceType != par.Sources[i].SourceType {
			t.Errorf("source %d type mismatch: %s vs %s", i, seq.Sources[i].SourceType, par.Sources[i].SourceType)
		}
		if seq.Sources[i].TrustScore != par.Sources[i].TrustScore {
			t.Errorf("source %d score mismatch: %v vs %v", i, seq.Sources[i].TrustScore, par.Sources[i].TrustScore)
		}
	}
}

func TestAnswerCancelledContext(t *testing.T) {
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: structuredGenerator("ok", 0.8),
		Attestor:  simulatedAttestor(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := p.Answer(ctx, "anything", "")

	if result.Error == "" {
		t.Error("cancelled context should surface as a degraded result")
	}
	if result.Answer != degradedAnswer {
		t.Errorf("expected degraded answer, got %q", result.Answer)
	}
}

func TestTruncatePreservesMultibyteRunes(t *testing.T) {
	long := strings.Repeat("ব", 300)
	got := truncate(long, 200)
	if !utf8.ValidString(got) {
		t.Fatal("truncated text is not valid UTF-8")
	}
	if want := strings.Repeat("ব", 200) + "..."; got != want {
		t.Errorf("expected 200 runes plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}

	short := "latência média de 2s"
	if truncate(short, 200) != short {
		t.Error("text under the limit must pass through unchanged")
	}
}

func TestSourcePreviewsTruncateOnRuneBoundary(t *testing.T) {
	items := testItems()
	items[0].Content = strings.Repeat("ネットワーク状態", 50)

	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: items},
		Generator: structuredGenerator("ok", 0.8),
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "network status", "")

	for _, src := range result.Sources {
		if !utf8.ValidString(src.Text) {
			t.Errorf("source preview is not valid UTF-8: %q", src.Text)
		}
	}
}

func TestSalvagedTextTruncatesOnRuneBoundary(t *testing.T) {
	gen := &mockGenerator{text: strings.Repeat("Ω", 600), success: true}
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: gen,
		Attestor:  simulatedAttestor(),
	})

	result := p.Answer(context.Background(), "anything", "")

	if !utf8.ValidString(result.Answer) {
		t.Fatal("salvaged answer is not valid UTF-8")
	}
	if want := strings.Repeat("Ω", 500) + "..."; result.Answer != want {
		t.Errorf("expected 500 runes plus ellipsis, got %d runes", utf8.RuneCountInString(result.Answer))
	}
}

func TestPromptContainsQueryAndEvidence(t *testing.T) {
	gen := structuredGenerator("ok", 0.8)
	p := NewPipeline(Options{
		Retriever: &mockRetriever{items: testItems()},
		Generator: gen,
		Attestor:  simulatedAttestor(),
	})

	p.Answer(context.Background(), "what is the network status", "")

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one generation call, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "QUERY: what is the network status") {
		t.Error("prompt missing the query line")
	}
	if !strings.Contains(prompt, "fresh chain state") {
		t.Error("prompt missing evidence content")
	}
}
