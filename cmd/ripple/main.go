package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: "Fine-grained reactive runtime for Go",
		Long: `Ripple is a fine-grained reactive dependency-tracking runtime.

Signals hold mutable state, memos derive cached values from them, and
effects run side effects whenever their dependencies change — with
automatic dependency tracking, batched notification, and an async
resource primitive with request cancellation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
