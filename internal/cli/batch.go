package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sravan1011/Clamify/internal/cache"
	"github.com/Sravan1011/Clamify/internal/client"
	"github.com/Sravan1011/Clamify/internal/credstore"
	"github.com/Sravan1011/Clamify/internal/model"
	"github.com/Sravan1011/Clamify/internal/normalize"
	"github.com/Sravan1011/Clamify/internal/render"
	"github.com/Sravan1011/Clamify/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchRate    float64
	batchBurst   int
	// noCache and noFooter are defined in verify.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies multiple claims concurrently:
- Read claims from input file (one per line, # comments ignored)
- Verify claims in parallel with configurable worker count
- Throttle backend requests with a shared rate limit
- Generate individual JSON and Markdown reports for each claim

Example:
  clamify batch claims.txt
  clamify batch claims.txt --concurrency 8 --output-dir ./verdicts
  clamify batch claims.txt --rate 2 --burst 4 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clamify-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 1, "backend requests per second")
	batchCmd.Flags().IntVar(&batchBurst, "burst", 2, "rate limit burst size")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh verification)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if batchRate > 0 {
		cfg.RateLimit.RequestsPerSecond = batchRate
	}
	if batchBurst > 0 {
		cfg.RateLimit.Burst = batchBurst
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	store, err := credstore.NewStore()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	creds, err := store.Load()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if !creds.Configured() {
		return fmt.Errorf("no Gemini API key configured; run 'clamify keys set' first")
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Clamify Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Rate limit:   %.1f req/s (burst %d)\n", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	verifier := &batchVerifier{
		client: client.New(cfg.Backend),
		creds:  creds,
	}
	if cfg.Cache.Enabled {
		verifier.cache = cache.NewVerdictCache(cfg.Cache)
	}

	processor := worker.NewBatchProcessor(verifier, cfg.Concurrency.Workers, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := render.New(os.Stdout, cfg.Output)

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Claim, result.Error)
			continue
		}

		slug := claimSlug(result.Claim)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Verdict, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Claim, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Verdict, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Claim, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s: %s\n", result.Claim, result.Verdict.Label)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// batchVerifier adapts the non-streaming client endpoint plus the local
// cache to the worker pool's Verifier interface.
type batchVerifier struct {
	client *client.Client
	creds  model.Credentials
	cache  *cache.VerdictCache
}

func (b *batchVerifier) VerifyClaim(ctx context.Context, claim string) (*model.Verdict, error) {
	if b.cache != nil {
		if v, ok := b.cache.Lookup(claim); ok {
			return v, nil
		}
	}

	raw, err := b.client.Verify(ctx, claim, b.creds)
	if err != nil {
		return nil, err
	}

	verdict, err := normalize.Normalize(raw, claim)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		_ = b.cache.Store(claim, verdict)
	}
	return verdict, nil
}

// claimSlug builds a stable, filesystem-safe report name for a claim.
// A short hash suffix keeps claims with the same prefix from colliding.
func claimSlug(claim string) string {
	sum := sha256.Sum256([]byte(claim))

	slug := strings.ToLower(strings.TrimSpace(claim))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		slug = "claim"
	}

	return slug + "-" + hex.EncodeToString(sum[:4])
}
