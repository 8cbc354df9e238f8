// Package pipeline orchestrates the answering flow: retrieval, trust
// scoring, prompt assembly, generation, and attestation.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chaincontext/chaincontext/internal/assemble"
	"github.com/chaincontext/chaincontext/internal/attest"
	"github.com/chaincontext/chaincontext/internal/genai"
	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/retrieve"
	"github.com/chaincontext/chaincontext/internal/store"
	"github.com/chaincontext/chaincontext/internal/trust"
	"github.com/chaincontext/chaincontext/internal/worker"
)

// Stage labels a phase of query processing for diagnostics.
type Stage string

const (
	StageReceived   Stage = "received"
	StageEmbedding  Stage = "embedding"
	StageScoring    Stage = "scoring"
	StagePrompting  Stage = "prompting"
	StageGenerating Stage = "generating"
	StageAttesting  Stage = "attesting"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// degradedAnswer is returned when processing fails at any stage.
const degradedAnswer = "I encountered an error while processing your query. Please try again later."

// ErrNoGenerator is reported when answering is attempted without a
// configured generation client.
var ErrNoGenerator = errors.New("generation client not configured")

const systemInstruction = "You are ChainContext, a verifiable knowledge system for the Flare blockchain. Always return JSON responses as requested in the user's prompt."

// answerSchema describes the structured response expected from the model.
var answerSchema = map[string]string{
	"answer":     "string",
	"confidence": "number",
	"reasoning":  "string",
}

// Pipeline runs queries end to end. All collaborators are injected so
// tests can substitute any stage.
type Pipeline struct {
	engine    *trust.Engine
	assembler *assemble.Assembler
	retriever retrieve.Retriever
	generator genai.Generator
	embedder  genai.Embedder
	attestor  *attest.Generator
	store     store.QueryStore
	workers   int
	verbose   bool
	now       func() time.Time
}

// Options bundles the pipeline's collaborators.
type Options struct {
	Engine    *trust.Engine
	Assembler *assemble.Assembler
	Retriever retrieve.Retriever
	Generator genai.Generator
	Embedder  genai.Embedder
	Attestor  *attest.Generator
	Store     store.QueryStore
	Workers   int
	Verbose   bool
}

// NewPipeline creates a pipeline. Missing collaborators fall back to
// defaults where one exists; the generator has no default and generation
// fails gracefully when it is nil.
func NewPipeline(opts Options) *Pipeline {
	if opts.Engine == nil {
		opts.Engine = trust.NewEngine(nil)
	}
	if opts.Assembler == nil {
		opts.Assembler = assemble.NewAssembler(nil)
	}
	if opts.Retriever == nil {
		opts.Retriever = retrieve.NewStaticRetriever()
	}
	if opts.Attestor == nil {
		opts.Attestor = attest.NewGenerator(nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &Pipeline{
		engine:    opts.Engine,
		assembler: opts.Assembler,
		retriever: opts.Retriever,
		generator: opts.Generator,
		embedder:  opts.Embedder,
		attestor:  opts.Attestor,
		store:     opts.Store,
		workers:   opts.Workers,
		verbose:   opts.Verbose,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Answer processes one query end to end. It never returns an error: any
// failure produces a degraded result carrying the error message, so the
// caller always has something to show.
func (p *Pipeline) Answer(ctx context.Context, query, userID string) *model.AnsweredResult {
	start := p.now()
	queryID := newQueryID(query, start)

	result, err := p.run(ctx, queryID, query)
	if err != nil {
		p.logStage(queryID, StageFailed, err.Error())
		result = &model.AnsweredResult{
			QueryID:    queryID,
			Query:      query,
			Answer:     degradedAnswer,
			Confidence: 0,
			Reasoning:  "Processing failed before an answer could be generated.",
			Sources:    []model.SourceRef{},
			Error:      err.Error(),
		}
	}

	result.ProcessingTime = p.now().Sub(start).Seconds()

	if p.store != nil {
		if err := p.store.RecordQuery(ctx, userID, result); err != nil && p.verbose {
			fmt.Fprintf(os.Stderr, "pipeline: record query: %v\n", err)
		}
	}

	return result
}

func (p *Pipeline) run(ctx context.Context, queryID, query string) (*model.AnsweredResult, error) {
	p.logStage(queryID, StageReceived, query)

	// Embedding is advisory: it warms the cache for retrievers that use
	// vectors, and its failure never blocks the query.
	if p.embedder != nil {
		p.logStage(queryID, StageEmbedding, "")
		p.embedder.Embed(ctx, query)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	p.logStage(queryID, StageScoring, fmt.Sprintf("%d items", len(items)))
	scored := p.scoreAll(ctx, items)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logStage(queryID, StagePrompting, "")
	bundle := p.assembler.Partition(scored)
	prompt := p.assembler.Format(query, bundle)

	p.logStage(queryID, StageGenerating, "")
	answer, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logStage(queryID, StageAttesting, "")
	attestation := p.attestor.Attest(ctx, query, scored, answer)

	p.logStage(queryID, StageCompleted, "")
	return &model.AnsweredResult{
		QueryID:     queryID,
		Query:       query,
		Answer:      answer.Answer,
		Confidence:  answer.Confidence,
		Reasoning:   answer.Reasoning,
		Sources:     formatSources(scored),
		Attestation: &attestation,
	}, nil
}

// scoreAll scores evidence concurrently through the worker pool,
// preserving input order. Small batches and single-worker configurations
// score inline.
func (p *Pipeline) scoreAll(ctx context.Context, items []model.EvidenceItem) []model.ScoredEvidence {
	if p.workers <= 1 || len(items) <= 1 {
		return p.engine.ScoreAll(items)
	}

	pool := worker.NewPool(p.workers)
	pool.Start()

	for i, item := range items {
		pool.Submit(&scoreJob{engine: p.engine, index: i, item: item})
	}

	scored := make([]model.ScoredEvidence, len(items))
	for _, res := range pool.Wait() {
		sr, ok := res.(*scoreResult)
		if !ok {
			continue
		}
		scored[sr.index] = sr.evidence
	}
	return scored
}

type scoreJob struct {
	engine *trust.Engine
	index  int
	item   model.EvidenceItem
}

type scoreResult struct {
	index    int
	evidence model.ScoredEvidence
}

func (r *scoreResult) GetError() error { return nil }

func (j *scoreJob) Execute(ctx context.Context) worker.Result {
	factors := j.engine.Score(j.item)
	return &scoreResult{
		index: j.index,
		evidence: model.ScoredEvidence{
			EvidenceItem: j.item,
			TrustScore:   factors.Overall,
		},
	}
}

// generate calls the model and normalizes its output into a structured
// answer, salvaging what it can from malformed responses.
func (p *Pipeline) generate(ctx context.Context, prompt string) (model.GeneratedAnswer, error) {
	if p.generator == nil {
		return model.GeneratedAnswer{}, ErrNoGenerator
	}

	gen := p.generator.GenerateStructured(ctx, prompt, answerSchema, systemInstruction)
	if !gen.Success {
		return model.GeneratedAnswer{}, fmt.Errorf("generate answer: model call failed")
	}

	if gen.Data != nil {
		return genai.NormalizeAnswer(gen.Data), nil
	}

	if data, ok := genai.ExtractJSON(gen.Text); ok {
		return genai.NormalizeAnswer(data), nil
	}

	// Unstructured text still beats no answer.
	text := truncate(strings.TrimSpace(gen.Text), 500)
	return model.GeneratedAnswer{
		Answer:     text,
		Confidence: 0.4,
		Reasoning:  "The response could not be structured as JSON.",
	}, nil
}

// formatSources converts scored evidence into display references, most
// trusted first.
func formatSources(scored []model.ScoredEvidence) []model.SourceRef {
	sorted := make([]model.ScoredEvidence, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TrustScore > sorted[j].TrustScore })

	refs := make([]model.SourceRef, 0, len(sorted))
	for _, s := range sorted {
		refs = append(refs, model.SourceRef{
			Text:       truncate(s.Content, 200),
			Source:     s.Source.DisplayName(),
			SourceType: string(s.Source),
			TrustScore: s.TrustScore,
			URL:        s.URL,
			Timestamp:  s.Timestamp,
		})
	}
	return refs
}

// truncate shortens s to at most limit runes, appending an ellipsis.
// Cutting on rune boundaries keeps multibyte evidence text valid UTF-8.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// newQueryID derives a short stable identifier from the query text and
// arrival time.
func newQueryID(query string, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", query, at.UnixNano())))
	return hex.EncodeToString(sum[:])[:32]
}

func (p *Pipeline) logStage(queryID string, stage Stage, detail string) {
	if !p.verbose {
		return
	}
	if detail != "" {
		fmt.Fprintf(os.Stderr, "pipeline: [%s] %s: %s\n", queryID[:8], stage, detail)
		return
	}
	fmt.Fprintf(os.Stderr, "pipeline: [%s] %s\n", queryID[:8], stage)
}
