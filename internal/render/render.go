// Package render writes a canonical verdict to its output surfaces:
// a JSON artifact, a Markdown report, and a styled terminal summary.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sravan1011/Clamify/internal/model"
)

// Renderer writes verdict reports. Zero value is not usable; construct
// with New.
type Renderer struct {
	out           io.Writer
	includeFooter bool
}

// New creates a renderer writing terminal output to out.
func New(out io.Writer, cfg model.OutputConfig) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out, includeFooter: cfg.IncludeFooter}
}

// RenderJSON writes the verdict as indented JSON to path.
func (r *Renderer) RenderJSON(v *model.Verdict, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the verdict as a Markdown report to path.
func (r *Renderer) RenderMarkdown(v *model.Verdict, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.Markdown(v)), 0o644); err != nil {
		return fmt.Errorf("write Markdown report: %w", err)
	}
	return nil
}

// Markdown returns the Markdown report body.
func (r *Renderer) Markdown(v *model.Verdict) string {
	var b strings.Builder

	b.WriteString("# Claim Verification Report\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", v.Claim)
	fmt.Fprintf(&b, "**Verdict:** %s\n\n", v.Label)
	fmt.Fprintf(&b, "**Confidence:** %.0f%%", v.ConfidenceScore*100)
	if v.ConfidenceLevel != "" {
		fmt.Fprintf(&b, " (%s)", v.ConfidenceLevel)
	}
	b.WriteString("\n\n")
	if v.TruthProbability != nil {
		fmt.Fprintf(&b, "**Truth probability:** %.0f%%\n\n", *v.TruthProbability)
	}

	if v.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(v.Summary)
		b.WriteString("\n\n")
	}

	if len(v.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, s := range v.Sources {
			title := s.Title
			if title == "" {
				title = s.Host
			}
			fmt.Fprintf(&b, "- [%s](%s)", title, s.URL)
			if s.Reliability > 0 {
				fmt.Fprintf(&b, " — reliability %.0f%%", s.Reliability*100)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if f := v.Forensics; f != nil {
		b.WriteString("## Content Forensics\n\n")
		fmt.Fprintf(&b, "**Assessment:** %s\n\n", f.Verdict)
		fmt.Fprintf(&b, "**Integrity score:** %.0f%%\n\n", f.IntegrityScore*100)
		fmt.Fprintf(&b, "**AI generation probability:** %.0f%%\n\n", f.AIProbability*100)
		if len(f.Indicators) > 0 {
			b.WriteString("**Indicators:**\n\n")
			for _, ind := range f.Indicators {
				fmt.Fprintf(&b, "- %s\n", ind)
			}
			b.WriteString("\n")
		}
		if len(f.Penalties) > 0 {
			b.WriteString("**Penalties:**\n\n")
			b.WriteString("| Flag | Deduction |\n|------|-----------|\n")
			for _, p := range f.Penalties {
				fmt.Fprintf(&b, "| %s | %.2f |\n", p.Flag, p.Score)
			}
			b.WriteString("\n")
		}
	} else if v.ForensicNote != "" {
		b.WriteString("## Content Forensics\n\n")
		b.WriteString(v.ForensicNote)
		b.WriteString("\n\n")
	}

	if v.ReportURL != "" {
		fmt.Fprintf(&b, "Full report: %s\n\n", v.ReportURL)
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n*Generated by Clamify on %s*\n",
			time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	}

	return b.String()
}

// RenderSummary prints the styled terminal panel for a verdict.
func (r *Renderer) RenderSummary(v *model.Verdict) {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Claim"))
	b.WriteString("  ")
	b.WriteString(textStyle.Render(v.Claim))
	b.WriteString("\n\n")

	b.WriteString(LabelStyle(string(v.Label)).Render(string(v.Label)))
	fmt.Fprintf(&b, "  %s", labelStyle.Render(fmt.Sprintf("confidence %.0f%%", v.ConfidenceScore*100)))
	if v.TruthProbability != nil {
		fmt.Fprintf(&b, "  %s", labelStyle.Render(fmt.Sprintf("truth probability %.0f%%", *v.TruthProbability)))
	}
	b.WriteString("\n")

	if v.Summary != "" {
		b.WriteString("\n")
		b.WriteString(textStyle.Render(v.Summary))
		b.WriteString("\n")
	}

	if len(v.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Sources"))
		b.WriteString("\n")
		for i, s := range v.Sources {
			if i >= 5 {
				b.WriteString(labelStyle.Render(fmt.Sprintf("  ... and %d more", len(v.Sources)-5)))
				b.WriteString("\n")
				break
			}
			title := s.Title
			if title == "" {
				title = s.URL
			}
			fmt.Fprintf(&b, "  %s %s\n", textStyle.Render(title), labelStyle.Render(s.Host))
		}
	}

	if f := v.Forensics; f != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Forensics"))
		fmt.Fprintf(&b, "  %s  %s\n",
			textStyle.Render(f.Verdict),
			labelStyle.Render(fmt.Sprintf("integrity %.0f%%, AI probability %.0f%%",
				f.IntegrityScore*100, f.AIProbability*100)))
		for _, p := range f.Penalties {
			fmt.Fprintf(&b, "  %s %s\n",
				uncertainStyle.Render("▾"),
				textStyle.Render(fmt.Sprintf("%s (-%.2f)", p.Flag, p.Score)))
		}
	} else if v.ForensicNote != "" {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Forensics"))
		fmt.Fprintf(&b, "  %s\n", textStyle.Render(v.ForensicNote))
	}

	fmt.Fprintln(r.out, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// RenderDigest prints the plain-language digest below the summary panel.
func (r *Renderer) RenderDigest(digest string) {
	if strings.TrimSpace(digest) == "" {
		return
	}
	fmt.Fprintln(r.out, titleStyle.Render("In plain terms"))
	fmt.Fprintln(r.out, textStyle.Render(digest))
}
