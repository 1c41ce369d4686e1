package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/storefront-ops/giftcard-ledger/internal/app"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
