package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sravan1011/Clamify/internal/credstore"
)

var (
	geminiKey string
	tavilyKey string
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage verification API credentials",
	Long: `Manage the API keys Clamify forwards to the verification backend.

The Gemini key is required; the Tavily key is optional and enables the
backend's web-search stage. Keys are stored in ~/.clamify/credentials.yaml
with owner-only permissions and are never printed or logged.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save API keys",
	Long: `Save the Gemini (required) and Tavily (optional) API keys.

Keys can be passed as flags or entered interactively:
  clamify keys set --gemini AIza... --tavily tvly-...
  clamify keys set`,
	RunE: runKeysSet,
}

var keysStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which keys are configured",
	Long:  `Report whether each API key is configured, without revealing key material.`,
	RunE:  runKeysStatus,
}

var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored keys",
	RunE:  runKeysClear,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysStatusCmd)
	keysCmd.AddCommand(keysClearCmd)

	keysSetCmd.Flags().StringVar(&geminiKey, "gemini", "", "Gemini API key (required)")
	keysSetCmd.Flags().StringVar(&tavilyKey, "tavily", "", "Tavily API key (optional)")
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	store, err := credstore.NewStore()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}

	gemini := geminiKey
	tavily := tavilyKey

	// Interactive fallback when flags are absent.
	if gemini == "" {
		gemini, err = promptLine("Gemini API key (required): ")
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("tavily") {
			tavily, err = promptLine("Tavily API key (optional, press Enter to skip): ")
			if err != nil {
				return err
			}
		}
	}

	if err := store.Save(gemini, tavily); err != nil {
		return err
	}

	fmt.Println("✓ Credentials saved")
	if strings.TrimSpace(tavily) == "" {
		fmt.Println("  Tavily key not set; the backend's web-search stage stays disabled")
	}
	return nil
}

func runKeysStatus(cmd *cobra.Command, args []string) error {
	store, err := credstore.NewStore()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}

	creds, err := store.Load()
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	fmt.Printf("Credential file: %s\n\n", store.Path())
	fmt.Printf("  Gemini key:  %s\n", presence(creds.GeminiKey != ""))
	fmt.Printf("  Tavily key:  %s\n", presence(creds.TavilyKey != ""))
	return nil
}

func runKeysClear(cmd *cobra.Command, args []string) error {
	store, err := credstore.NewStore()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("✓ Credentials cleared")
	return nil
}

func presence(set bool) string {
	if set {
		return "configured"
	}
	return "not configured"
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
