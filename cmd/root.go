package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "logkv",
	Short: "A log-structured key-value store",
	Long: `logkv is an embedded key-value store backed by an append-only log.
A single process serves the data over HTTP, gRPC and an interactive prompt.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "couldn't execute app,", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(getCmd, setCmd, removeCmd, keysCmd)
	rootCmd.AddCommand(exportCmd)
}
