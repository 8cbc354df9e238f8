package attest

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chaincontext/chaincontext/internal/worker"
)

// TokenSource produces a raw proof token from one acquisition mechanism.
// Sources are tried in order; the first that yields a well-formed token
// wins.
type TokenSource interface {
	// Name identifies the source in diagnostics.
	Name() string
	// Token returns the raw token string, or an error if this source
	// cannot produce one.
	Token(ctx context.Context) (string, error)
}

// ValidShape reports whether a raw token has the three-part dotted
// structure of a serialized proof token. It does not verify signatures.
func ValidShape(token string) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// MetadataSource fetches an identity token from a cloud instance metadata
// service. Several endpoint variants are tried because the path differs
// across environments.
type MetadataSource struct {
	URLs     []string
	Audience string
	Timeout  time.Duration
	Client   *http.Client
	Limiter  *worker.Limiter
}

// NewMetadataSource creates a metadata token source over the given
// endpoint variants.
func NewMetadataSource(urls []string, audience string, timeout time.Duration) *MetadataSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MetadataSource{
		URLs:     urls,
		Audience: audience,
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *MetadataSource) Name() string { return "metadata" }

// Token requests an identity token from each endpoint variant in turn.
// A fresh nonce is attached to every request so tokens cannot be replayed
// across attestations.
func (s *MetadataSource) Token(ctx context.Context) (string, error) {
	var lastErr error
	for _, endpoint := range s.URLs {
		token, err := s.fetch(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		if token != "" {
			return token, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no metadata endpoints configured")
	}
	return "", fmt.Errorf("metadata token: %w", lastErr)
}

func (s *MetadataSource) fetch(ctx context.Context, endpoint string) (string, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx, endpoint); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	nonce, err := newNonce()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("audience", s.Audience)
	q.Set("nonce", nonce)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CommandSource invokes a local TPM signer binary to mint a token.
type CommandSource struct {
	Path     string
	Audience string
	Timeout  time.Duration
	Sudo     bool
}

func (s *CommandSource) Name() string { return "signer" }

// Token runs the signer binary and returns the first line of its output.
func (s *CommandSource) Token(ctx context.Context) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("signer path not configured")
	}
	if _, err := os.Stat(s.Path); err != nil {
		return "", fmt.Errorf("signer binary: %w", err)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{s.Path, "token", "--audience", s.Audience}
	if s.Sudo {
		args = append([]string{"sudo"}, args...)
	}

	cmd := exec.CommandContext(cmdCtx, args[0], args[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run signer: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// ScriptSource runs a site-local helper script that encapsulates token
// acquisition for environments where neither the metadata service nor the
// signer binary is directly reachable.
type ScriptSource struct {
	Path    string
	Timeout time.Duration
}

func (s *ScriptSource) Name() string { return "helper-script" }

func (s *ScriptSource) Token(ctx context.Context) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("helper script not configured")
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", fmt.Errorf("helper script: %w", err)
	}
	if info.Mode()&0111 == 0 {
		return "", fmt.Errorf("helper script %s is not executable", s.Path)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, s.Path).Output()
	if err != nil {
		return "", fmt.Errorf("run helper script: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// FileSource reads a previously cached token from disk. It is the last
// resort in the acquisition chain.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return "token-file" }

func (s *FileSource) Token(ctx context.Context) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("token file not configured")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
