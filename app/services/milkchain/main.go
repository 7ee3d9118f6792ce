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

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/milkchain/app/services/milkchain/handlers"
	"github.com/ardanlabs/milkchain/business/core/guard"
	"github.com/ardanlabs/milkchain/business/core/order"
	"github.com/ardanlabs/milkchain/business/core/order/stores/orderdb"
	"github.com/ardanlabs/milkchain/business/core/order/stores/ordermem"
	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/core/user/stores/userdb"
	"github.com/ardanlabs/milkchain/business/core/user/stores/usermem"
	"github.com/ardanlabs/milkchain/business/sys/database"
	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ardanlabs/milkchain/foundation/keystore"
	"github.com/ardanlabs/milkchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MILKCHAIN")
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

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:90s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:5000"`
			DebugHost       string        `conf:"default:0.0.0.0:5010"`
			CORSOrigin      string        `conf:"default:*"`
		}
		DB struct {
			Driver                 string        `conf:"default:mongo"`
			URI                    string        `conf:"default:mongodb://localhost:27017,mask"`
			Name                   string        `conf:"default:milk-chain"`
			MaxPoolSize            uint64        `conf:"default:100"`
			ConnectTimeout         time.Duration `conf:"default:10s"`
			ServerSelectionTimeout time.Duration `conf:"default:5s"`
		}
		Contract struct {
			URL            string        `conf:"default:http://127.0.0.1:8545"`
			Address        string        `conf:"required"`
			ABIPath        string        `conf:"default:build/contracts/FarmerProcessorDelegate.json"`
			KeysFolder     string        `conf:"default:zblock/accounts/"`
			PollInterval   time.Duration `conf:"default:1s"`
			ReceiptTimeout time.Duration `conf:"default:60s"`
		}
		Auth struct {
			RejectUnregistered bool `conf:"default:false"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "milk supply chain relay",
		},
	}

	const prefix = "MILKCHAIN"
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
	// Database Support

	var (
		userStore  user.Storer
		orderStore order.Storer
		db         *database.DB
	)

	switch cfg.DB.Driver {
	case "mongo":
		log.Infow("startup", "status", "initializing database support", "name", cfg.DB.Name)

		db, err = database.Open(database.Config{
			URI:                    cfg.DB.URI,
			Name:                   cfg.DB.Name,
			MaxPoolSize:            cfg.DB.MaxPoolSize,
			ConnectTimeout:         cfg.DB.ConnectTimeout,
			ServerSelectionTimeout: cfg.DB.ServerSelectionTimeout,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}
		defer func() {
			log.Infow("shutdown", "status", "stopping database support", "name", cfg.DB.Name)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Close(ctx)
		}()

		uStore := userdb.NewStore(log, db)

		// A store that is down at startup is not fatal, requests report
		// it until the store comes back.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DB.ServerSelectionTimeout)
		if err := uStore.EnsureIndexes(ctx); err != nil {
			log.Errorw("startup", "status", "unable to ensure user indexes", "ERROR", err)
		}
		cancel()

		userStore = uStore
		orderStore = orderdb.NewStore(log, db)

	case "memory":
		log.Infow("startup", "status", "using in-memory stores, records are lost on shutdown")
		userStore = usermem.NewStore()
		orderStore = ordermem.NewStore()

	default:
		return fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}

	// =========================================================================
	// Contract Support

	// The keystore holds the private keys of callers whose transactions are
	// signed here. Callers without a key are signed for by the node.
	ks, err := keystore.New(cfg.Contract.KeysFolder)
	if err != nil {
		return fmt.Errorf("unable to load keystore: %w", err)
	}

	for account, name := range ks.Copy() {
		log.Infow("startup", "status", "keystore", "name", name, "account", account)
	}

	log.Infow("startup", "status", "dialing peer", "url", cfg.Contract.URL, "contract", cfg.Contract.Address)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	contractClient, err := contract.Dial(ctx, contract.DialConfig{
		URL:            cfg.Contract.URL,
		Address:        cfg.Contract.Address,
		ABIPath:        cfg.Contract.ABIPath,
		Keys:           ks,
		PollInterval:   cfg.Contract.PollInterval,
		ReceiptTimeout: cfg.Contract.ReceiptTimeout,
	})
	if err != nil {
		return fmt.Errorf("binding contract: %w", err)
	}
	defer contractClient.Close()

	log.Infow("startup", "status", "contract bound", "address", contractClient.Address(), "methods", contractClient.Methods())

	// =========================================================================
	// Core Support

	evts := events.New()

	userCore := user.NewCore(log, userStore)

	relayCore := relay.NewCore(relay.Config{
		Log:      log,
		Guard:    guard.New(log, userCore, guard.Config{RejectUnregistered: cfg.Auth.RejectUnregistered}),
		Contract: contractClient,
		Orders:   order.NewCore(log, orderStore),
		Events:   evts,
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugCfg := handlers.DebugConfig{
		Build: build,
		Log:   log,
		Peer:  contractClient,
	}
	if db != nil {
		debugCfg.DB = db
	}

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(debugCfg)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing API support")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	apiMux := handlers.APIMux(handlers.APIMuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		CORSOrigin: cfg.Web.CORSOrigin,
		User:       userCore,
		Relay:      relayCore,
		Evts:       evts,
	})

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
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

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
