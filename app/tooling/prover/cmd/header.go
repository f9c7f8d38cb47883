package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var headerCmd = &cobra.Command{
	Use:   "header [block]",
	Short: "Print the RLP encoded header for a block",
	Args:  cobra.MaximumNArgs(1),
	RunE:  headerRun,
}

func init() {
	rootCmd.AddCommand(headerCmd)
}

func headerRun(cmd *cobra.Command, args []string) error {
	number, err := parseBlock(args)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	client, _, err := connect(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer client.Close()

	rlp, err := client.Block.RLPHeader(cmd.Context(), number)
	if err != nil {
		return err
	}

	fmt.Println(hexutil.Encode(rlp))
	return nil
}
