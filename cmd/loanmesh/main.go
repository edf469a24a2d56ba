// Package main implements the loanmesh CLI: an HTTP server and an
// interactive terminal chat over the same conversation engine.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML configuration file
	configPath string
	// version information
	version = "dev"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loanmesh",
	Short: "Conversational personal loan assistant",
	Long: `loanmesh runs a conversational loan application: needs assessment,
offer negotiation, phone and identity verification, underwriting and
sanction letter generation.

Configuration is read from an optional YAML file (--config) and
LOANMESH_ prefixed environment variables. Provider credentials use their
conventional variables (GOOGLE_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_VERIFY_SERVICE_SID).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
}
