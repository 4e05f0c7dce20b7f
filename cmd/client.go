package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sajjad-MoBe/logkv/internal/client"
)

var (
	serverURL     string
	clientTimeout time.Duration
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := newClient().Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(value))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value under a key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Set(cmd.Context(), args[0], []byte(args[1])); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <key>",
	Aliases: []string{"delete"},
	Short:   "Remove a key",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := newClient().Keys(cmd.Context())
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func newClient() *client.Client {
	cfg := client.DefaultRetryConfig()
	cfg.Timeout = clientTimeout
	return client.NewClient(serverURL, cfg)
}

func init() {
	for _, c := range []*cobra.Command{getCmd, setCmd, removeCmd, keysCmd} {
		c.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:3000", "Base URL of the logkv HTTP API")
		c.Flags().DurationVar(&clientTimeout, "timeout", 5*time.Second, "Request timeout")
	}
}
