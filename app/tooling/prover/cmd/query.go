package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	queryAddress string
	querySlots   []string
)

var queryCmd = &cobra.Command{
	Use:   "query block...",
	Short: "Build a query over one or more blocks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  queryRun,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryAddress, "address", "", "Account to include for every block.")
	queryCmd.Flags().StringSliceVar(&querySlots, "slot", nil, "Storage slots of the account to include for every block.")
}

func queryRun(cmd *cobra.Command, args []string) error {
	rows, err := queryRows(args)
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

	qb := client.NewQueryBuilder()
	for _, row := range rows {
		if err := qb.Append(row); err != nil {
			return err
		}
	}
	log.Infow("query", "builder", qb.String())

	q, err := qb.Build(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

// queryRows expands the block arguments with the address and slot flags.
func queryRows(args []string) ([]query.Row, error) {
	var addr *common.Address
	if queryAddress != "" {
		if !common.IsHexAddress(queryAddress) {
			return nil, fmt.Errorf("invalid address %q", queryAddress)
		}
		a := common.HexToAddress(queryAddress)
		addr = &a
	}

	slots := make([]common.Hash, len(querySlots))
	for i, s := range querySlots {
		slot, err := query.ParseSlot(s)
		if err != nil {
			return nil, err
		}
		slots[i] = slot
	}

	var rows []query.Row
	for _, arg := range args {
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse block number %q: %w", arg, err)
		}

		rows = append(rows, query.Row{BlockNumber: uint32(n), Address: addr})

		for _, slot := range slots {
			rows = append(rows, query.Row{BlockNumber: uint32(n), Address: addr, Slot: &slot})
		}
	}

	return rows, nil
}
