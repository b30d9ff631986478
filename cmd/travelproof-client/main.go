// Command travelproof-client drives the travelproof backend from a terminal:
// it runs a verification session for a wallet and requests or lists
// proof-of-travel POAPs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "travelproof-client",
		Short:         "Verify a passport and mint proof-of-travel POAPs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringP(backendFlagName, backendFlagShorthand, "", backendFlagUsage)
	rootCmd.PersistentFlags().StringP(walletFlagName, walletFlagShorthand, "", walletFlagUsage)
	rootCmd.PersistentFlags().Duration(timeoutFlagName, defaultTimeout, timeoutFlagUsage)

	rootCmd.AddCommand(verifyCmd(), mintCmd(), visitedCmd())
	return rootCmd
}
