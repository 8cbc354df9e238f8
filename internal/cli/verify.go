package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/verify"
	"github.com/chaincontext/chaincontext/internal/worker"
)

var verifyTimeout time.Duration

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <attestation.json>",
	Short: "Verify an attestation against the on-chain contract",
	Long: `Verify checks a previously generated attestation:
- Hardware-backed attestations are submitted to the verification contract
- Simulated attestations pass a local consistency check
- When the chain is unreachable the token digest is recomputed locally

Example:
  chaincontext ask "network status" > answer.json
  jq .attestation answer.json > attestation.json
  chaincontext verify attestation.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 30*time.Second, "verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read attestation: %w", err)
	}

	var att model.Attestation
	if err := json.Unmarshal(data, &att); err != nil {
		return fmt.Errorf("parse attestation: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limiter := worker.NewLimiter(cfg.Chain.RequestsPerSecond, cfg.Chain.Burst)
	verifier, err := verify.NewVerifier(&cfg.Chain, limiter)
	if err != nil {
		return fmt.Errorf("initialize verifier: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Contract: %s\n", cfg.Chain.AttestationContract)
		fmt.Fprintf(os.Stderr, "RPC: %s\n\n", cfg.Chain.RPCURL)
	}

	result := verifier.Verify(ctx, att)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))

	if !result.Verified {
		return fmt.Errorf("attestation did not verify")
	}
	return nil
}
