package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/castlebridge/go-cryptobackend/internal/backend"
	"github.com/castlebridge/go-cryptobackend/internal/config"
	"github.com/castlebridge/go-cryptobackend/internal/engine"
	"github.com/castlebridge/go-cryptobackend/internal/logging"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cryptobackend",
	Short: "Crypto backend inspection and key management tool",
	Long: `cryptobackend is a command-line companion to the crypto backend
library. It drives the same engine abstraction the library exposes:
probing which ciphers, digests and curves the engine build supports,
generating RSA, DSA and EC keys, and inspecting PEM key material.

Commands:
  ciphers     List supported cipher and mode combinations
  digests     List supported digest algorithms
  curves      List supported elliptic curves
  keygen      Generate RSA, DSA or EC keys
  inspect     Inspect PEM key material
  version     Show backend and engine versions`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}

// newBackend builds the backend every command runs against, honoring the
// configured log level and the --verbose/--quiet overrides.
func newBackend() (*backend.Backend, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	logger := logging.New(level)

	b := backend.New(engine.New(), backend.WithLogger(logger))
	return b, cfg, nil
}
