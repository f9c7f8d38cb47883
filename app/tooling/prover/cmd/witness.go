package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var witnessCmd = &cobra.Command{
	Use:   "witness [block]",
	Short: "Print the block hash witness for a block",
	Args:  cobra.MaximumNArgs(1),
	RunE:  witnessRun,
}

func init() {
	rootCmd.AddCommand(witnessCmd)
}

func witnessRun(cmd *cobra.Command, args []string) error {
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

	w, err := client.Block.HashWitness(cmd.Context(), number)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}
