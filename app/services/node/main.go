package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tcoin/blockchain/app/services/node/handlers"
	"github.com/tcoin/blockchain/business/web/v1/httpclient"
	"github.com/tcoin/blockchain/foundation/blockchain/account"
	"github.com/tcoin/blockchain/foundation/blockchain/genesis"
	"github.com/tcoin/blockchain/foundation/blockchain/manager"
	"github.com/tcoin/blockchain/foundation/blockchain/node"
	"github.com/tcoin/blockchain/foundation/blockchain/peer"
	"github.com/tcoin/blockchain/foundation/blockchain/signature"
	"github.com/tcoin/blockchain/foundation/blockchain/state"
	"github.com/tcoin/blockchain/foundation/blockchain/storage/disk"
	"github.com/tcoin/blockchain/foundation/blockchain/utxo"
	"github.com/tcoin/blockchain/foundation/blockchain/worker"
	"github.com/tcoin/blockchain/foundation/events"
	"github.com/tcoin/blockchain/foundation/logger"
	"github.com/tcoin/blockchain/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

// config is all the configuration for the application and the default values.
type config struct {
	conf.Version
	Web struct {
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		PeerTimeout     time.Duration `conf:"default:5s"`
		MaxTxBytes      int64         `conf:"default:1048576"`
		MaxMessageBytes int64         `conf:"default:67108864"`
		DebugHost       string        `conf:"default:0.0.0.0:7080"`
		PublicHost      string        `conf:"default:0.0.0.0:8080"`
		PrivateHost     string        `conf:"default:0.0.0.0:9080"`
	}
	State struct {
		Strategy    string   `conf:"default:utxo"`
		MinerName   string   `conf:"default:miner1"`
		DBPath      string   `conf:"default:zblock/blocks/"`
		GenesisPath string   `conf:"default:zblock/genesis.json"`
		KnownPeers  []string `conf:"default:0.0.0.0:9180"`
		Mine        bool     `conf:"default:false"`
	}
	NameService struct {
		Folder string `conf:"default:zblock/accounts/"`
	}
}

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
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

	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
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

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Genesis and Name Service Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}
	log.Infow("startup", "status", "genesis", "difficulty", gen.Difficulty, "reward", gen.MiningReward, "version", gen.ProtocolVersion)

	// The names come from the file names in the accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	for publicKey, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "publicKey", publicKey)
	}

	// Need to load the private key file for the configured miner so the
	// public key can get credited with the block reward.
	path := filepath.Join(cfg.NameService.Folder, cfg.State.MinerName+nameservice.KeyExtension)
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}
	minerPublicKey := signature.PublicKeyHex(privateKey.PublicKey)

	// The blockchain packages accept a function of this signature to allow the
	// application to log. Viewer events are also sent to any websocket client
	// that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// =========================================================================
	// Choose the transaction strategy

	switch cfg.State.Strategy {
	case "utxo":
		mgr := utxo.New(utxo.Config{
			MinerPublicKey: minerPublicKey,
			MiningReward:   gen.MiningReward,
			EvHandler:      ev,
		})
		return runNode[utxo.Transaction, []utxo.Transaction](log, cfg, gen, mgr, ns, evts, ev)

	case "account":
		mgr := account.New(account.Config{
			MaxSteps:  gen.MaxSteps,
			EvHandler: ev,
		})
		return runNode[account.Transaction, account.Commit](log, cfg, gen, mgr, ns, evts, ev)
	}

	return fmt.Errorf("unknown strategy %q", cfg.State.Strategy)
}

// runNode starts the node for the chosen transaction strategy and blocks
// until it is told to shut down.
func runNode[TX any, D any](log *zap.SugaredLogger, cfg config, gen genesis.Genesis, mgr manager.Manager[TX, D], ns *nameservice.NameService, evts *events.Events, ev func(v string, args ...any)) error {

	// =========================================================================
	// Blockchain Support

	// Each strategy keeps its own chain.
	strg, err := disk.New[D](filepath.Join(cfg.State.DBPath, cfg.State.Strategy))
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	bc, err := state.New(state.Config[TX, D]{
		Difficulty: gen.Difficulty,
		Manager:    mgr,
		Storage:    strg,
		EvHandler:  ev,
	})
	if err != nil {
		return err
	}
	defer bc.Shutdown()

	// The node runs the peer protocol over the private API of its peers.
	srv, err := node.New(node.Config[TX, D]{
		Host:            cfg.Web.PrivateHost,
		ProtocolVersion: gen.ProtocolVersion,
		HashRate:        gen.HashRate,
		Blockchain:      bc,
		Client:          httpclient.New[TX, D](cfg.Web.PeerTimeout, ev),
		EvHandler:       ev,
	})
	if err != nil {
		return err
	}
	defer srv.Shutdown()

	// The worker implements mining and peer updates. The worker will
	// register itself with the node.
	worker.Run(srv, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig[TX, D]{
		Shutdown:        shutdown,
		Log:             log,
		Node:            srv,
		NS:              ns,
		Evts:            evts,
		MaxTxBytes:      cfg.Web.MaxTxBytes,
		MaxMessageBytes: cfg.Web.MaxMessageBytes,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Join the network

	// Peers are reached once the private API is up so they can handshake back.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		for _, host := range cfg.State.KnownPeers {
			if peer.New(host).Match(cfg.Web.PrivateHost) {
				continue
			}
			srv.Connect(ctx, host)
		}

		if cfg.State.Mine {
			srv.StartMining()
		}
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
