package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Sravan1011/Clamify/internal/model"
)

// Verifier resolves a single claim to a canonical verdict. The batch
// path uses the backend's non-streaming endpoint, so there is no
// progress log here.
type Verifier interface {
	VerifyClaim(ctx context.Context, claim string) (*model.Verdict, error)
}

// ClaimJob verifies one claim, honoring the shared backend limiter.
type ClaimJob struct {
	Claim    string
	Verifier Verifier
	Limiter  *Limiter
}

// Execute runs the job.
func (j *ClaimJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx); err != nil {
			return &ClaimResult{Claim: j.Claim, Error: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	verdict, err := j.Verifier.VerifyClaim(ctx, j.Claim)
	if err != nil {
		return &ClaimResult{Claim: j.Claim, Error: err}
	}
	return &ClaimResult{Claim: j.Claim, Verdict: verdict}
}

// ClaimResult is the outcome of one batch claim.
type ClaimResult struct {
	Claim   string
	Verdict *model.Verdict
	Error   error
}

// GetError returns the job error, if any.
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many claims concurrently.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a processor with the given worker count and
// backend rate limit.
func NewBatchProcessor(verifier Verifier, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessClaims verifies the claims in parallel and returns one result
// per claim.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string) []*ClaimResult {
	if len(claims) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Propagate caller cancellation (batch timeout) into the pool.
	stop := context.AfterFunc(ctx, pool.Shutdown)
	defer stop()

	for _, claim := range claims {
		pool.Submit(&ClaimJob{
			Claim:    claim,
			Verifier: b.verifier,
			Limiter:  b.limiter,
		})
	}

	results := pool.Wait()

	claimResults := make([]*ClaimResult, len(results))
	for i, result := range results {
		claimResults[i] = result.(*ClaimResult)
	}
	return claimResults
}

// ProcessFile reads claims from a file and verifies them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// ReadClaimsFromFile reads claims from a file, one per line. Blank
// lines and #-comments are skipped, exact duplicates are dropped.
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return claims, nil
}
