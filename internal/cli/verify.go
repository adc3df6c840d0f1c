package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Sravan1011/Clamify/internal/cache"
	"github.com/Sravan1011/Clamify/internal/client"
	"github.com/Sravan1011/Clamify/internal/credstore"
	"github.com/Sravan1011/Clamify/internal/digest"
	"github.com/Sravan1011/Clamify/internal/model"
	"github.com/Sravan1011/Clamify/internal/render"
	"github.com/Sravan1011/Clamify/internal/session"
	"github.com/Sravan1011/Clamify/internal/tui"
)

var (
	outJSON       string
	outMD         string
	verifyTimeout time.Duration
	baseURL       string
	userAgent     string
	httpProxy     string
	httpsProxy    string
	noCache       bool
	noFooter      bool
	plainOutput   bool
	digestEnabled bool
	digestModel   string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single claim and render the verdict",
	Long: `Verify submits one claim to the verification backend and streams
its progress live:
- Multi-agent search and analysis stages appear as they happen
- The final verdict shows the label, confidence, evidence sources,
  and content forensics
- Completed verdicts are cached locally for instant repeat lookups

Example:
  clamify verify "The Earth is flat"
  clamify verify "Drinking water cures cancer" --json verdict.json --md verdict.md
  clamify verify "The moon landing was staged" --digest`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain line output instead of the live view")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Backend flags
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().StringVar(&baseURL, "base-url", "", "verification backend URL (overrides config)")
	verifyCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides config)")
	verifyCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	verifyCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh verification)")

	// Digest flags
	verifyCmd.Flags().BoolVar(&digestEnabled, "digest", false, "generate a plain-language digest of the verdict")
	verifyCmd.Flags().StringVar(&digestModel, "digest-model", "", "digest model name (default: gpt-4o-mini)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := args[0]

	cfg := loadConfig()
	applyVerifyFlags(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	defer cancel()

	renderer := render.New(os.Stdout, cfg.Output)

	var verdicts *cache.VerdictCache
	if cfg.Cache.Enabled {
		verdicts = cache.NewVerdictCache(cfg.Cache)
		if v, ok := verdicts.Lookup(claim); ok {
			if verbose {
				fmt.Fprintln(os.Stderr, "✓ Verdict served from cache")
			}
			return renderVerdict(ctx, cfg, renderer, v)
		}
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

	c := client.New(cfg.Backend)

	final, err := runSession(ctx, c, claim, creds)
	if err != nil {
		return err
	}

	if final.Status == session.StatusFailed {
		return fmt.Errorf("verification failed: %s", final.ErrorMessage)
	}

	if verdicts != nil {
		if err := verdicts.Store(claim, final.Result); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Warning: failed to cache verdict: %v\n", err)
		}
	}

	return renderVerdict(ctx, cfg, renderer, final.Result)
}

func applyVerifyFlags(cfg *model.Config) {
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if verifyTimeout > 0 {
		cfg.Backend.Timeout = verifyTimeout
	}
	if userAgent != "" {
		cfg.Backend.UserAgent = userAgent
	}
	if httpProxy != "" {
		cfg.Backend.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.Backend.HTTPSProxy = httpsProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if digestEnabled && cfg.Digest.Provider == "" {
		cfg.Digest.Provider = "openai"
	}
	if digestModel != "" {
		cfg.Digest.Model = digestModel
	}
}

// runSession drives one verification to a terminal state, rendering
// progress either through the live view or as plain lines.
func runSession(ctx context.Context, c *client.Client, claim string, creds model.Credentials) (session.Session, error) {
	if plainOutput {
		return runPlainSession(ctx, c, claim, creds)
	}
	return runLiveSession(ctx, c, claim, creds)
}

func runLiveSession(ctx context.Context, c *client.Client, claim string, creds model.Credentials) (session.Session, error) {
	prog := tea.NewProgram(tui.NewModel(claim))

	// The sink runs under the machine's lock, so it must never block on
	// the program. Snapshots are complete states, not deltas, so dropping
	// one when the forwarder has stopped loses nothing: the final state
	// comes from machine.Snapshot, not from the message stream.
	snaps := make(chan session.Session, 256)
	machine := session.NewMachine(c, func(s session.Session) {
		select {
		case snaps <- s:
		default:
		}
	})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case s := <-snaps:
				prog.Send(tui.SessionMsg(s))
			case <-stop:
				return
			}
		}
	}()

	if err := machine.Submit(ctx, claim, creds); err != nil {
		close(stop)
		<-done
		prog.Kill()
		return session.Session{}, err
	}

	finalModel, err := prog.Run()
	close(stop)
	<-done
	if err != nil {
		machine.Reset()
		return session.Session{}, fmt.Errorf("run live view: %w", err)
	}

	if m, ok := finalModel.(tui.Model); ok && m.Canceled() {
		machine.Reset()
		return session.Session{}, fmt.Errorf("verification canceled")
	}

	return machine.Snapshot(), nil
}

func runPlainSession(ctx context.Context, c *client.Client, claim string, creds model.Credentials) (session.Session, error) {
	done := make(chan struct{})
	logged := 0

	machine := session.NewMachine(c, func(s session.Session) {
		for ; logged < len(s.Log); logged++ {
			entry := s.Log[logged]
			fmt.Fprintf(os.Stderr, "[%s] %s\n", entry.Source, entry.Text)
		}
		if s.Status.Terminal() {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})

	if err := machine.Submit(ctx, claim, creds); err != nil {
		return session.Session{}, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		machine.Reset()
		return session.Session{}, fmt.Errorf("verification timed out: %w", ctx.Err())
	}

	return machine.Snapshot(), nil
}

// renderVerdict writes the terminal summary, the optional file outputs,
// and the optional digest.
func renderVerdict(ctx context.Context, cfg *model.Config, renderer *render.Renderer, v *model.Verdict) error {
	renderer.RenderSummary(v)

	if outJSON != "" {
		if err := renderer.RenderJSON(v, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(v, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if digestEnabled {
		d, err := digest.New(cfg.Digest)
		if err != nil {
			return fmt.Errorf("configure digest: %w", err)
		}
		if d != nil {
			// Digest failures are reported but never fail the verdict.
			text, err := d.Generate(ctx, v)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: digest generation failed: %v\n", err)
			} else {
				renderer.RenderDigest(text)
			}
		}
	}

	return nil
}
