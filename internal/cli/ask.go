package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaincontext/chaincontext/internal/assemble"
	"github.com/chaincontext/chaincontext/internal/attest"
	"github.com/chaincontext/chaincontext/internal/cache"
	"github.com/chaincontext/chaincontext/internal/genai"
	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/pipeline"
	"github.com/chaincontext/chaincontext/internal/retrieve"
	"github.com/chaincontext/chaincontext/internal/store"
	"github.com/chaincontext/chaincontext/internal/trust"
	"github.com/chaincontext/chaincontext/internal/worker"
)

var (
	askTimeout time.Duration
	askUserID  string
	noCache    bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Answer a question with trust-weighted context and an attestation",
	Long: `Ask answers a single question about the Flare ecosystem:
- Retrieve relevant evidence
- Score each item for recency, reliability, cross-verification, and on-chain confirmation
- Assemble a trust-tiered prompt and generate an answer
- Attach a verifiable attestation binding the answer to its evidence

Example:
  chaincontext ask "What is the current FTSO price feed latency?"
  chaincontext ask "Is the network healthy?" --user alice --timeout 1m`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall query timeout")
	askCmd.Flags().StringVar(&askUserID, "user", "", "user identifier recorded with the query")
	askCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	p, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n", query)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", askTimeout)
	}

	result := p.Answer(ctx, query, askUserID)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if result.Error != "" {
		return fmt.Errorf("query failed: %s", result.Error)
	}
	return nil
}

// buildPipeline assembles the full answering pipeline from configuration.
// The returned cleanup releases any external connections.
func buildPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	limiter := worker.NewLimiter(cfg.Chain.RequestsPerSecond, cfg.Chain.Burst)

	opts := pipeline.Options{
		Engine:    trust.NewEngine(&cfg.Trust),
		Assembler: assemble.NewAssembler(&cfg.Trust),
		Retriever: retrieve.NewStaticRetriever(),
		Attestor:  attest.NewGenerator(&cfg.Attestation).WithLimiter(limiter).WithVerbose(verbose),
		Workers:   cfg.Concurrency.ScoringWorkers,
		Verbose:   verbose,
	}

	client, err := genai.NewGenerator(cfg.LLM)
	if err != nil {
		return nil, cleanup, fmt.Errorf("initialize generation client: %w", err)
	}
	if client != nil {
		opts.Generator = client
		opts.Embedder = genai.NewCachedEmbedder(client, embeddingCache(cfg))
	}

	if cfg.Store.MongoURI != "" {
		st, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
		if err != nil {
			// A dead database never blocks answering
			fmt.Fprintf(os.Stderr, "Warning: query store unavailable: %v\n", err)
		} else {
			opts.Store = st
			cleanup = func() {
				closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer closeCancel()
				_ = st.Close(closeCtx)
			}
		}
	}

	return pipeline.NewPipeline(opts), cleanup, nil
}

// embeddingCache picks the configured cache backend.
func embeddingCache(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.RedisURI != "" {
		rc, err := cache.NewRedisCache(cfg.Cache.RedisURI, cfg.Cache.MemoryTTL)
		if err == nil {
			return rc
		}
		fmt.Fprintf(os.Stderr, "Warning: redis cache unavailable: %v\n", err)
	}
	return cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
}
