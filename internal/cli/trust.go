package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/trust"
)

// trustCmd represents the trust command
var trustCmd = &cobra.Command{
	Use:   "trust <evidence.json>",
	Short: "Score an evidence item and show the factor breakdown",
	Long: `Trust scores a single evidence item from a JSON file and prints the
individual factors (recency, source reliability, cross-verification,
on-chain bonus) alongside the composite score.

The input file holds one evidence item:
  {
    "id": "example",
    "content": "...",
    "source": "ftso_2s",
    "timestamp": 1700000000,
    "cross_verifications": 2,
    "onchain_verified": true
  }

Example:
  chaincontext trust evidence.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTrust,
}

func init() {
	rootCmd.AddCommand(trustCmd)
}

func runTrust(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read evidence: %w", err)
	}

	var item model.EvidenceItem
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("parse evidence: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine := trust.NewEngine(&cfg.Trust)
	factors := engine.Score(item)

	out, err := json.MarshalIndent(factors, "", "  ")
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
