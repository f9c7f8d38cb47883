package cmd

import (
	"fmt"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the address of the signing account",
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	pk, err := signature.Resolve(getPrivateKeyHex(), getPrivateKeyPath())
	if err != nil {
		return err
	}

	fmt.Println(signature.Address(pk).Hex())
	return nil
}
