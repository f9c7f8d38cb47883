// Package cmd contains the prover command line tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/simchain"
	"github.com/ardanlabs/blockwitness/foundation/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultBlock is the block the demo flow proves when none is given.
const defaultBlock = 9070887

var (
	providerURI string
	version     string
	chainID     uint64
	mock        bool
	mockHead    uint64
	concurrency int
	accountName string
	accountPath string
	privateKey  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&providerURI, "provider", "u", "https://rpc.ankr.com/eth_goerli", "JSON-RPC url of the chain provider.")
	rootCmd.PersistentFlags().StringVar(&version, "query-version", query.Version1, "Query version.")
	rootCmd.PersistentFlags().Uint64VarP(&chainID, "chain-id", "c", 5, "Chain id the provider must serve.")
	rootCmd.PersistentFlags().BoolVarP(&mock, "mock", "m", true, "Use the simulated chain instead of the provider.")
	rootCmd.PersistentFlags().Uint64Var(&mockHead, "mock-head", simchain.DefaultHead, "Head block of the simulated chain.")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 16, "Headers fetched in parallel.")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&privateKey, "private-key", "k", "", "Hex private key, overrides the account file. Defaults to $PROVER_PRIVATE_KEY.")
}

var rootCmd = &cobra.Command{
	Use:          "prover",
	Short:        "Prove block hashes and submit them to the gas price oracle",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {

	// A missing .env file is not an error, the flags and environment
	// still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// =============================================================================

// newLogger writes to stderr so command output on stdout stays parseable.
func newLogger() (*zap.SugaredLogger, error) {
	return logger.New("PROVER", "stderr")
}

func queryConfig() query.Config {
	return query.Config{
		ProviderURI: providerURI,
		Version:     version,
		ChainID:     chainID,
		Mock:        mock,
		MockHead:    mockHead,
		Concurrency: concurrency,
	}
}

// connect returns a query client and the provider it reads from. In mock
// mode the provider is a simulated chain that also accepts the submitted
// transactions.
func connect(ctx context.Context, log *zap.SugaredLogger) (*query.Client, query.Provider, error) {
	client, err := query.New(ctx, log, queryConfig())
	if err != nil {
		return nil, nil, err
	}

	return client, client.Provider(), nil
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, signature.KeyExtension) {
		accountName += signature.KeyExtension
	}

	return filepath.Join(accountPath, accountName)
}

// getPrivateKeyHex returns the key from the flag or the environment.
func getPrivateKeyHex() string {
	if privateKey != "" {
		return privateKey
	}
	return os.Getenv("PROVER_PRIVATE_KEY")
}

// parseBlock returns the block number from the first argument or the
// default block.
func parseBlock(args []string) (uint64, error) {
	if len(args) == 0 {
		return defaultBlock, nil
	}

	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse block number %q: %w", args[0], err)
	}

	return n, nil
}
