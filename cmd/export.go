package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sajjad-MoBe/logkv/internal/export"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

var (
	exportLogFile string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the live key/values of a log to a JSON file",
	Long: `Open the log (taking its lock, so no server may be running on it),
replay it and write every live key/value pair, sorted by key, to a JSON file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := shared.Open(exportLogFile)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := export.ToFile(store, exportOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d keys to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportLogFile, "log-file", "kvstore.log", "Path of the data log to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "export.json", "Destination JSON file")
}
