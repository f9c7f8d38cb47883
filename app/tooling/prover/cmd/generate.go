package cmd

import (
	"fmt"
	"os"

	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new signing key file",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(accountPath, 0700); err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %q already exists", path)
	}

	pk, err := signature.Generate(path)
	if err != nil {
		return err
	}

	fmt.Println(path, signature.Address(pk).Hex())
	return nil
}
