package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sravan1011/Clamify/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clamify",
	Short: "Clamify - AI-assisted claim verification from the terminal",
	Long: `Clamify verifies factual claims against a Claime verification backend.

It submits a claim, streams the backend's multi-agent progress live,
and renders the final verdict with its confidence, evidence sources,
and content forensics.

Clamify reports what the verification service found; it does not
verify claims on its own.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Clamify.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clamify v0.1.0")
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.clamify/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.clamify")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAMIFY_*
	viper.SetEnvPrefix("CLAMIFY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults overlaid with
// whatever the config file or CLAMIFY_* environment supplies. Flags are
// applied on top by the individual commands.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("backend.base_url"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := viper.GetDuration("backend.timeout"); v > 0 {
		cfg.Backend.Timeout = v
	}
	if v := viper.GetString("backend.user_agent"); v != "" {
		cfg.Backend.UserAgent = v
	}
	if v := viper.GetString("backend.http_proxy"); v != "" {
		cfg.Backend.HTTPProxy = v
	}
	if v := viper.GetString("backend.https_proxy"); v != "" {
		cfg.Backend.HTTPSProxy = v
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := viper.GetDuration("cache.memory_ttl"); v > 0 {
		cfg.Cache.MemoryTTL = v
	}
	if v := viper.GetDuration("cache.disk_ttl"); v > 0 {
		cfg.Cache.DiskTTL = v
	}

	if v := viper.GetInt("concurrency.workers"); v > 0 {
		cfg.Concurrency.Workers = v
	}
	if v := viper.GetFloat64("rate_limit.requests_per_second"); v > 0 {
		cfg.RateLimit.RequestsPerSecond = v
	}
	if v := viper.GetInt("rate_limit.burst"); v > 0 {
		cfg.RateLimit.Burst = v
	}

	if viper.IsSet("output.include_footer") {
		cfg.Output.IncludeFooter = viper.GetBool("output.include_footer")
	}
	cfg.Output.Verbose = verbose

	if v := viper.GetString("digest.provider"); v != "" {
		cfg.Digest.Provider = v
	}
	if v := viper.GetString("digest.model"); v != "" {
		cfg.Digest.Model = v
	}
	if v := viper.GetString("digest.base_url"); v != "" {
		cfg.Digest.BaseURL = v
	}
	if v := viper.GetInt("digest.timeout"); v > 0 {
		cfg.Digest.Timeout = v
	}
	if v := viper.GetInt("digest.max_tokens"); v > 0 {
		cfg.Digest.MaxTokens = v
	}

	return cfg
}
