// Command scf runs the streaming market-intelligence pipeline: the log
// ingestor, signature resolver, parsers, feature worker, detector, executor,
// exit worker, shadow evaluator, health ticker, and dashboard, orchestrated
// by internal/supervisor. CLI surface grounded on
// orbas1-Synnergy/synnergy-network/cmd/synnergy/main.go's cobra-subcommand shape.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scf",
		Short: "Streaming market-intelligence pipeline for DEX swap detection",
	}
	root.AddCommand(diagCmd())
	root.AddCommand(fullCmd())
	return root
}
