// Package verify checks attestations against the on-chain attestation
// contract, falling back to a local digest check when the chain is
// unreachable or the attestation carries no token.
package verify

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chaincontext/chaincontext/internal/attest"
	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/worker"
)

// attestationABI describes the single view method the verifier calls.
const attestationABI = `[{"inputs":[{"internalType":"bytes","name":"header","type":"bytes"},{"internalType":"bytes","name":"payload","type":"bytes"},{"internalType":"bytes","name":"signature","type":"bytes"}],"name":"verifyAndAttest","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}]`

// ContractCaller abstracts the eth_call surface so tests can substitute a
// fake chain.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Verifier submits attestation token parts to the verification contract.
// It never returns a Go error: a chain failure degrades to a simulated
// verification so callers always get a usable result.
type Verifier struct {
	mu       sync.Mutex
	caller   ContractCaller
	contract common.Address
	rpcURL   string
	timeout  time.Duration
	limiter  *worker.Limiter
	abi      abi.ABI
	now      func() time.Time
}

// NewVerifier creates a verifier over the configured chain. The RPC
// connection is dialed lazily on first use.
func NewVerifier(cfg *model.ChainConfig, limiter *worker.Limiter) (*Verifier, error) {
	if cfg == nil {
		cfg = &model.DefaultConfig().Chain
	}
	if !common.IsHexAddress(cfg.AttestationContract) {
		return nil, fmt.Errorf("invalid attestation contract address %q", cfg.AttestationContract)
	}

	parsed, err := abi.JSON(strings.NewReader(attestationABI))
	if err != nil {
		return nil, fmt.Errorf("parse attestation ABI: %w", err)
	}

	return &Verifier{
		contract: common.HexToAddress(cfg.AttestationContract),
		rpcURL:   cfg.RPCURL,
		timeout:  cfg.Timeout,
		limiter:  limiter,
		abi:      parsed,
		now:      time.Now,
	}, nil
}

// NewVerifierWithCaller creates a verifier over an explicit chain caller.
// Used by tests.
func NewVerifierWithCaller(caller ContractCaller, contract common.Address) *Verifier {
	parsed, _ := abi.JSON(strings.NewReader(attestationABI))
	return &Verifier{
		caller:   caller,
		contract: contract,
		timeout:  10 * time.Second,
		abi:      parsed,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify checks the attestation. Simulated attestations and attestations
// without token parts short-circuit to a simulated pass without touching
// the chain.
func (v *Verifier) Verify(ctx context.Context, att model.Attestation) model.VerificationResult {
	if att.Simulated || !att.HasToken() {
		return model.VerificationResult{
			Verified:  true,
			Simulated: true,
			Timestamp: v.now().Unix(),
		}
	}

	result, err := v.callChain(ctx, att)
	if err != nil {
		return v.simulate(att, err)
	}
	return result
}

// callChain submits the token parts to the contract's verifyAndAttest
// view method.
func (v *Verifier) callChain(ctx context.Context, att model.Attestation) (model.VerificationResult, error) {
	caller, err := v.dial(ctx)
	if err != nil {
		return model.VerificationResult{}, err
	}

	if v.limiter != nil && v.rpcURL != "" {
		if err := v.limiter.Wait(ctx, v.rpcURL); err != nil {
			return model.VerificationResult{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	callCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	header, err := decodeHexBytes(att.Header)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("decode header: %w", err)
	}
	payload, err := decodeHexBytes(att.Payload)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("decode payload: %w", err)
	}
	signature, err := decodeHexBytes(att.Signature)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("decode signature: %w", err)
	}
	input, err := v.abi.Pack("verifyAndAttest", header, payload, signature)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("pack call: %w", err)
	}

	output, err := caller.CallContract(callCtx, ethereum.CallMsg{
		To:   &v.contract,
		Data: input,
	}, nil)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("call contract: %w", err)
	}

	values, err := v.abi.Unpack("verifyAndAttest", output)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("unpack result: %w", err)
	}
	verified, ok := values[0].(bool)
	if !ok {
		return model.VerificationResult{}, fmt.Errorf("unexpected result type %T", values[0])
	}

	return model.VerificationResult{
		Verified:  verified,
		Timestamp: v.now().Unix(),
	}, nil
}

// dial establishes the RPC connection on first use. The mutex keeps
// concurrent verifications from dialing twice or racing on the cached
// client.
func (v *Verifier) dial(ctx context.Context) (ContractCaller, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.caller != nil {
		return v.caller, nil
	}
	if v.rpcURL == "" {
		return nil, fmt.Errorf("no RPC endpoint configured")
	}

	dialCtx := ctx
	if v.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	client, err := ethclient.DialContext(dialCtx, v.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", v.rpcURL, err)
	}
	v.caller = client
	return v.caller, nil
}

// simulate performs a local verification by recomputing the token digest
// from the attestation's own parts. It reports the chain error that
// forced the fallback.
func (v *Verifier) simulate(att model.Attestation, cause error) model.VerificationResult {
	result := model.VerificationResult{
		Simulated: true,
		Timestamp: v.now().Unix(),
		Error:     cause.Error(),
	}

	digest, err := attest.TokenDigest(att.Header, att.Payload)
	if err != nil {
		return result
	}
	result.Verified = strings.EqualFold(digest, att.Digest)
	return result
}

func decodeHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
