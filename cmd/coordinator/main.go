// Command coordinator runs the vault transaction coordinator daemon: it owns
// the transaction store, accepts lifecycle operations from the embedding
// application, and drives submitted transactions to their on-chain outcome.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Daniellrra/bako-safe-api/chain/provider"
	"github.com/Daniellrra/bako-safe-api/engine/coordinator"
	"github.com/Daniellrra/bako-safe-api/engine/reconciler"
	"github.com/Daniellrra/bako-safe-api/module/signature"
	"github.com/Daniellrra/bako-safe-api/notifications"
	bstorage "github.com/Daniellrra/bako-safe-api/storage/badger"
)

func main() {
	pflag.String("datadir", "data/coordinator", "directory for the transaction store")
	pflag.String("provider-url", "http://localhost:4000", "base URL of the chain provider node")
	pflag.Duration("provider-timeout", 15*time.Second, "timeout for a single provider request")
	pflag.Duration("submit-timeout", 30*time.Second, "timeout for a chain submission")
	pflag.Duration("reconcile-interval", 10*time.Second, "interval between reconciliation rounds")
	pflag.Int("reconcile-concurrency", 4, "transactions reconciled in parallel per round")
	pflag.Int("notification-workers", 4, "workers delivering signer notifications")
	pflag.String("loglevel", "info", "minimum log level (debug, info, warn, error)")
	pflag.Parse()

	conf := viper.New()
	conf.SetEnvPrefix("COORDINATOR")
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.AutomaticEnv()
	err := conf.BindPFlags(pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not bind flags: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(conf.GetString("loglevel"))
	if err != nil {
		log.Fatal().Err(err).Str("loglevel", conf.GetString("loglevel")).Msg("invalid log level")
	}
	log = log.Level(level)

	err = run(log, conf)
	if err != nil {
		log.Fatal().Err(err).Msg("coordinator failed")
	}
}

func run(log zerolog.Logger, conf *viper.Viper) error {
	datadir := conf.GetString("datadir")
	err := os.MkdirAll(datadir, 0700)
	if err != nil {
		return fmt.Errorf("could not create data directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(datadir).WithLogger(nil))
	if err != nil {
		return fmt.Errorf("could not open transaction store: %w", err)
	}
	defer db.Close()

	client := provider.NewClient(log, provider.Config{
		URL:            conf.GetString("provider-url"),
		RequestTimeout: conf.GetDuration("provider-timeout"),
	})

	dist := notifications.NewDistributor(log,
		notifications.NewLogNotifier(log),
		conf.GetInt("notification-workers"))
	defer dist.Stop()

	coord := coordinator.New(log, bstorage.NewTransactions(db),
		signature.NewRecoverVerifier(), client, dist,
		coordinator.Config{
			SubmitTimeout: conf.GetDuration("submit-timeout"),
		})

	eng := reconciler.New(log, coord, reconciler.Config{
		Interval:    conf.GetDuration("reconcile-interval"),
		Concurrency: conf.GetInt("reconcile-concurrency"),
	})
	<-eng.Ready()
	log.Info().Str("datadir", datadir).Msg("coordinator started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	select {
	case <-eng.Done():
	case <-time.After(30 * time.Second):
		return fmt.Errorf("reconciler did not stop in time")
	}

	return nil
}
