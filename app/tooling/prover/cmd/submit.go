package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/blockwitness/business/core/oracle"
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	contractAddr string
	gasLimit     uint64
	dryRun       bool
	waitTimeout  time.Duration
	pollInterval time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit [block]",
	Short: "Prove a block and call provideGasPrice on the oracle contract",
	Args:  cobra.MaximumNArgs(1),
	RunE:  submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&contractAddr, "contract", "t", "", "Address of the oracle contract.")
	submitCmd.Flags().Uint64Var(&gasLimit, "gas-limit", 0, "Gas limit, estimated when zero.")
	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Sign the transaction and print it without sending.")
	submitCmd.Flags().DurationVar(&waitTimeout, "wait", 5*time.Minute, "How long to wait for the transaction to be mined.")
	submitCmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "How often to poll for the receipt.")
}

func submitRun(cmd *cobra.Command, args []string) error {
	number, err := parseBlock(args)
	if err != nil {
		return err
	}

	if !common.IsHexAddress(contractAddr) {
		return fmt.Errorf("invalid contract address %q", contractAddr)
	}

	pk, err := signature.Resolve(getPrivateKeyHex(), getPrivateKeyPath())
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()

	// =========================================================================
	// Query the block data.

	client, backend, err := connect(ctx, log)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Infow("submit", "status", "query builder", "builder", client.NewQueryBuilder().String())

	w, err := client.Block.HashWitness(ctx, number)
	if err != nil {
		return fmt.Errorf("hash witness: %w", err)
	}

	rlpHeader, err := client.Block.RLPHeader(ctx, number)
	if err != nil {
		return fmt.Errorf("rlp header: %w", err)
	}

	// =========================================================================
	// Call the contract.

	orc, err := oracle.New(oracle.Config{
		Log:          log,
		Backend:      backend,
		Contract:     common.HexToAddress(contractAddr),
		PrivateKey:   pk,
		ChainID:      chainID,
		GasLimit:     gasLimit,
		PollInterval: pollInterval,
	})
	if err != nil {
		return err
	}

	if dryRun {
		return printPrepared(ctx, orc, w, rlpHeader)
	}

	tx, err := orc.ProvideGasPrice(ctx, w, rlpHeader)
	if err != nil {
		return err
	}
	fmt.Println("tx:", tx.Hash().Hex())

	ctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	receipt, err := orc.Wait(ctx, tx)
	if err != nil {
		if errors.Is(err, oracle.ErrReverted) {
			fmt.Println("reverted in block:", receipt.BlockNumber)
		}
		return err
	}

	fmt.Println("mined in block:", receipt.BlockNumber, "gas used:", receipt.GasUsed)
	return nil
}

func printPrepared(ctx context.Context, orc *oracle.Oracle, w query.BlockHashWitness, rlpHeader []byte) error {
	tx, err := orc.Prepare(ctx, w, rlpHeader)
	if err != nil {
		return err
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return err
	}

	fmt.Println("from:", orc.From().Hex())
	fmt.Println("to:", orc.Contract().Hex())
	fmt.Println("nonce:", tx.Nonce(), "gas:", tx.Gas())
	fmt.Println("tx:", tx.Hash().Hex())
	fmt.Println("raw:", hexutil.Encode(raw))

	return nil
}
