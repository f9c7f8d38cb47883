package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/blockwitness/app/services/prover/handlers"
	"github.com/ardanlabs/blockwitness/business/core/oracle"
	"github.com/ardanlabs/blockwitness/business/core/query"
	"github.com/ardanlabs/blockwitness/foundation/blockchain/signature"
	"github.com/ardanlabs/blockwitness/foundation/events"
	"github.com/ardanlabs/blockwitness/foundation/logger"
	"github.com/ardanlabs/blockwitness/foundation/nameservice"
	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("PROVER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// Values from a local .env file become environment variables before
	// the configuration is parsed. A missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:5m"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
			CorsOrigin      string        `conf:"default:*"`
		}
		Chain struct {
			ProviderURI string `conf:"default:https://rpc.ankr.com/eth_goerli"`
			Version     string `conf:"default:v1"`
			ChainID     uint64 `conf:"default:5"`
			Mock        bool   `conf:"default:true"`
			MockHead    uint64 `conf:"default:9072000"`
			Concurrency int    `conf:"default:16"`
		}
		Oracle struct {
			Contract     string
			PrivateKey   string        `conf:"mask"`
			Account      string        `conf:"default:private"`
			KeyFolder    string        `conf:"default:zblock/accounts/"`
			GasLimit     uint64        `conf:"default:0"`
			PollInterval time.Duration `conf:"default:1s"`
			WaitTimeout  time.Duration `conf:"default:4m"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "block hash witness prover",
		},
	}

	const prefix = "PROVER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Chain Support

	ctx := context.Background()

	queryCfg := query.Config{
		ProviderURI: cfg.Chain.ProviderURI,
		Version:     cfg.Chain.Version,
		ChainID:     cfg.Chain.ChainID,
		Mock:        cfg.Chain.Mock,
		MockHead:    cfg.Chain.MockHead,
		Concurrency: cfg.Chain.Concurrency,
	}

	// In mock mode the provider is a simulated chain that also accepts the
	// oracle transactions, so the service runs end to end without a node.
	client, err := query.New(ctx, log, queryCfg)
	if err != nil {
		return fmt.Errorf("constructing query client: %w", err)
	}
	defer client.Close()

	// =========================================================================
	// Oracle Support

	ns, err := nameservice.New(cfg.Oracle.KeyFolder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account.Hex())
	}

	orc, err := newOracle(log, cfg.Oracle.Contract, cfg.Oracle.PrivateKey, cfg.Oracle.Account, ns, oracle.Config{
		Log:          log,
		Backend:      client.Provider(),
		ChainID:      queryCfg.ChainID,
		GasLimit:     cfg.Oracle.GasLimit,
		PollInterval: cfg.Oracle.PollInterval,
	})
	if err != nil {
		return err
	}

	evts := events.New()

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, client)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Client:      client,
		Oracle:      orc,
		Evts:        evts,
		CorsOrigin:  cfg.Web.CorsOrigin,
		WaitTimeout: cfg.Oracle.WaitTimeout,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// newOracle constructs the oracle when a contract is configured. The signing
// key comes from the configured hex key or the named account file.
func newOracle(log *zap.SugaredLogger, contract string, hexKey string, account string, ns *nameservice.NameService, cfg oracle.Config) (*oracle.Oracle, error) {
	if contract == "" {
		log.Infow("startup", "status", "oracle disabled, no contract configured")
		return nil, nil
	}

	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}

	var path string
	if hexKey == "" {
		p, err := ns.KeyPath(account)
		if err != nil {
			return nil, fmt.Errorf("oracle signer: %w", err)
		}
		path = p
	}

	pk, err := signature.Resolve(hexKey, path)
	if err != nil {
		return nil, fmt.Errorf("oracle signer: %w", err)
	}

	cfg.Contract = common.HexToAddress(contract)
	cfg.PrivateKey = pk

	orc, err := oracle.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing oracle: %w", err)
	}

	log.Infow("startup", "status", "oracle enabled", "contract", orc.Contract().Hex(), "from", ns.Lookup(orc.From()))

	return orc, nil
}
