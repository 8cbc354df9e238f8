package attest

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaincontext/chaincontext/internal/model"
	"github.com/chaincontext/chaincontext/internal/worker"
)

// Generator builds attestations for answered queries. Token acquisition
// walks an ordered source chain; when every source fails the attestation
// degrades to simulated mode but still carries the data hash, so the
// answer remains bound to its inputs.
type Generator struct {
	sources []TokenSource
	verbose bool
	now     func() time.Time
}

// NewGenerator creates a generator with the standard acquisition chain
// derived from the given configuration.
func NewGenerator(cfg *model.AttestationConfig) *Generator {
	if cfg == nil {
		cfg = &model.DefaultConfig().Attestation
	}
	sources := []TokenSource{
		NewMetadataSource(cfg.MetadataURLs, cfg.Audience, cfg.MetadataTimeout),
		&CommandSource{Path: cfg.SignerPath, Audience: cfg.Audience, Timeout: cfg.CommandTimeout, Sudo: cfg.SignerSudo},
		&ScriptSource{Path: cfg.HelperScript, Timeout: cfg.CommandTimeout},
		&FileSource{Path: cfg.TokenFile},
	}
	return &Generator{sources: sources, now: time.Now}
}

// NewGeneratorWithSources creates a generator over an explicit source
// chain. Used by tests and specialized deployments.
func NewGeneratorWithSources(sources ...TokenSource) *Generator {
	return &Generator{sources: sources, now: time.Now}
}

// WithLimiter applies a rate limiter to the network-backed sources.
func (g *Generator) WithLimiter(limiter *worker.Limiter) *Generator {
	for _, src := range g.sources {
		if ms, ok := src.(*MetadataSource); ok {
			ms.Limiter = limiter
		}
	}
	return g
}

// WithVerbose enables acquisition diagnostics on stderr.
func (g *Generator) WithVerbose(verbose bool) *Generator {
	g.verbose = verbose
	return g
}

// WithClock overrides the time source. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Attest produces an attestation for the given query, scored context, and
// generated answer. It never fails: when no source yields a usable token
// the result is marked simulated.
func (g *Generator) Attest(ctx context.Context, query string, contextItems []model.ScoredEvidence, response model.GeneratedAnswer) model.Attestation {
	att := model.Attestation{
		DataHash:  DataHash(query, contextItems, response),
		Timestamp: g.now().Unix(),
		Simulated: true,
	}

	token := g.acquireToken(ctx)
	if token == "" {
		return att
	}

	header, payload, signature, err := ParseToken(token)
	if err != nil {
		if g.verbose {
			fmt.Fprintf(os.Stderr, "attest: token unusable: %v\n", err)
		}
		return att
	}

	digest, err := TokenDigest(header, payload)
	if err != nil {
		if g.verbose {
			fmt.Fprintf(os.Stderr, "attest: digest failed: %v\n", err)
		}
		return att
	}

	att.Header = header
	att.Payload = payload
	att.Signature = signature
	att.Digest = digest
	att.Simulated = false
	att.Type = model.AttestationTypeVTPM
	return att
}

// acquireToken walks the source chain and returns the first well-formed
// token, or "" when every source fails.
func (g *Generator) acquireToken(ctx context.Context) string {
	for _, src := range g.sources {
		token, err := src.Token(ctx)
		if err != nil {
			if g.verbose {
				fmt.Fprintf(os.Stderr, "attest: source %s failed: %v\n", src.Name(), err)
			}
			continue
		}
		if !ValidShape(token) {
			if g.verbose {
				fmt.Fprintf(os.Stderr, "attest: source %s returned malformed token\n", src.Name())
			}
			continue
		}
		if g.verbose {
			fmt.Fprintf(os.Stderr, "attest: token acquired via %s\n", src.Name())
		}
		return token
	}
	return ""
}

// ParseToken splits a serialized proof token into hex-encoded header,
// payload, and signature parts suitable for on-chain submission.
func ParseToken(token string) (header, payload, signature string, err error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("token has %d parts, want 3", len(parts))
	}

	decoded := make([][]byte, 3)
	for i, p := range parts {
		raw, err := decodeSegment(p)
		if err != nil {
			return "", "", "", fmt.Errorf("decode part %d: %w", i, err)
		}
		decoded[i] = raw
	}

	return "0x" + hex.EncodeToString(decoded[0]),
		"0x" + hex.EncodeToString(decoded[1]),
		"0x" + hex.EncodeToString(decoded[2]),
		nil
}

// decodeSegment decodes one base64url token segment, tolerating both
// padded and unpadded encodings.
func decodeSegment(s string) ([]byte, error) {
	if raw, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
