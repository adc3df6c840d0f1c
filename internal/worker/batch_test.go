package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/Sravan1011/Clamify/internal/model"
)

type stubVerifier struct {
	calls   atomic.Int32
	failFor string
}

func (v *stubVerifier) VerifyClaim(ctx context.Context, claim string) (*model.Verdict, error) {
	v.calls.Add(1)
	if claim == v.failFor {
		return nil, fmt.Errorf("backend rejected %q", claim)
	}
	return &model.Verdict{Claim: claim, Label: model.LabelUncertain}, nil
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	verifier := &stubVerifier{}
	processor := NewBatchProcessor(verifier, 4, 1000, 1000)

	claims := []string{"claim one", "claim two", "claim three"}
	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if verifier.calls.Load() != 3 {
		t.Errorf("Expected 3 verifier calls, got %d", verifier.calls.Load())
	}

	var got []string
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("Unexpected error for %q: %v", r.Claim, r.Error)
		}
		if r.Verdict == nil || r.Verdict.Claim != r.Claim {
			t.Errorf("Verdict/claim mismatch: %+v", r)
		}
		got = append(got, r.Claim)
	}
	sort.Strings(got)
	want := []string{"claim one", "claim three", "claim two"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Missing claim in results: got %v", got)
			break
		}
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	verifier := &stubVerifier{failFor: "bad claim"}
	processor := NewBatchProcessor(verifier, 2, 1000, 1000)

	results := processor.ProcessClaims(context.Background(), []string{"good claim", "bad claim"})

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
			if r.Claim != "bad claim" {
				t.Errorf("Wrong claim failed: %q", r.Claim)
			}
			if r.Verdict != nil {
				t.Error("Failed result must not carry a verdict")
			}
		}
	}
	if failures != 1 {
		t.Errorf("Expected exactly 1 failure, got %d", failures)
	}
}

func TestBatchProcessor_EmptyInput(t *testing.T) {
	processor := NewBatchProcessor(&stubVerifier{}, 2, 1000, 1000)
	results := processor.ProcessClaims(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results for empty input, got %d", len(results))
	}
}

func TestReadClaimsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.txt")
	content := `# election claims
Deepfakes decided the election

Deepfakes decided the election
  The moon landing was staged
# trailing comment
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	claims, err := ReadClaimsFromFile(path)
	if err != nil {
		t.Fatalf("ReadClaimsFromFile failed: %v", err)
	}

	want := []string{"Deepfakes decided the election", "The moon landing was staged"}
	if len(claims) != len(want) {
		t.Fatalf("Expected %d claims, got %d: %v", len(want), len(claims), claims)
	}
	for i := range want {
		if claims[i] != want[i] {
			t.Errorf("claims[%d] = %q, want %q", i, claims[i], want[i])
		}
	}
}

func TestReadClaimsFromFile_Missing(t *testing.T) {
	if _, err := ReadClaimsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLimiter_ThrottlesWait(t *testing.T) {
	limiter := NewLimiter(100, 1)

	ctx, cancel := context.WithCancel(context.Background())
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Error("Expected wait to respect canceled context")
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 1)
	if !limiter.Allow() {
		t.Error("Expected first request within burst to be allowed")
	}
	if limiter.Allow() {
		t.Error("Expected second immediate request to be throttled")
	}
}
