// Package digest turns a canonical verdict into a short plain-language
// summary for the terminal. It is strictly display-side: the verdict is
// already final when a digest is generated, and digest failures never
// alter the session outcome.
package digest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sravan1011/Clamify/internal/model"
)

// Provider is a completion backend for digest generation.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete returns the completion for a prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Digester generates verdict digests through a configured provider.
type Digester struct {
	provider Provider
}

// New creates a digester from configuration. An empty provider name
// disables digests and returns (nil, nil).
func New(cfg model.DigestConfig) (*Digester, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			return nil, err
		}
		return &Digester{provider: p}, nil
	default:
		return nil, fmt.Errorf("unknown digest provider: %s (supported: openai)", cfg.Provider)
	}
}

// Generate produces a digest for a completed verdict.
func (d *Digester) Generate(ctx context.Context, v *model.Verdict) (string, error) {
	out, err := d.provider.Complete(ctx, BuildPrompt(v))
	if err != nil {
		return "", fmt.Errorf("%s digest: %w", d.provider.Name(), err)
	}
	return strings.TrimSpace(out), nil
}

// BuildPrompt constructs the digest prompt. The model is asked to
// restate, never to re-verify: the verdict and scores are authoritative
// inputs, not questions.
func BuildPrompt(v *model.Verdict) string {
	var b strings.Builder

	b.WriteString("You are explaining a completed fact-check result to a general reader.\n")
	b.WriteString("Do NOT re-evaluate the claim or question the verdict; restate what was found.\n")
	b.WriteString("Do not cite any source that is not listed below.\n\n")

	fmt.Fprintf(&b, "Claim: %s\n", v.Claim)
	fmt.Fprintf(&b, "Verdict: %s\n", v.Label)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", v.ConfidenceScore*100)
	if v.TruthProbability != nil {
		fmt.Fprintf(&b, "Truth probability: %.0f%%\n", *v.TruthProbability)
	}
	if v.Summary != "" {
		fmt.Fprintf(&b, "Analyst summary: %s\n", v.Summary)
	}

	if len(v.Sources) > 0 {
		b.WriteString("Sources:\n")
		for i, s := range v.Sources {
			if i >= 10 {
				fmt.Fprintf(&b, "... and %d more\n", len(v.Sources)-10)
				break
			}
			fmt.Fprintf(&b, "- %s (%s)\n", s.Title, s.URL)
		}
	}

	if f := v.Forensics; f != nil {
		fmt.Fprintf(&b, "Forensic verdict: %s (integrity %.0f%%, AI probability %.0f%%)\n",
			f.Verdict, f.IntegrityScore*100, f.AIProbability*100)
	}

	b.WriteString("\nWrite 2-3 plain sentences a non-expert can follow.")
	return b.String()
}
