package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/railpoint/railpoint"
	"github.com/railpoint/railpoint/cmd/railpoint/config"
	"github.com/railpoint/railpoint/fieldcipher"
	"github.com/railpoint/railpoint/internal/logger"
	"github.com/railpoint/railpoint/upi"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init(c.Logging.Internal)
	log.Info("Loaded Config")

	authority, err := upi.AuthorityFromConfigValue(c.Secrets.SigningSecret)
	if err != nil {
		log.WithError(err).Fatal("could not init signing authority")
	}
	cipher, err := fieldcipher.FromConfigValue(c.Secrets.DataEncryptionKey)
	if err != nil {
		log.WithError(err).Fatal("could not init field cipher")
	}
	log.Info("Loaded secrets")

	store, err := config.LoadStorage(c.Storage, cipher)
	if err != nil {
		log.WithError(err).Fatal("could not init storage")
	}
	backs := store.Backends()

	limiter := railpoint.NewRateLimiter(c.RateLimit, backs.KV)

	rp, err := railpoint.New(
		c.Server,
		backs,
		authority,
		cipher,
		store.Directory(),
		store.Organizations(),
		limiter,
	)
	if err != nil {
		log.WithError(err).Fatal("could not init service")
	}
	log.Info("Initialized service")

	rp.Start()
}
