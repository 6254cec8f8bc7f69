package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/coinkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/coinkeeper/internal/client/cli"
	"github.com/dmitrijs2005/coinkeeper/internal/client/config"
	"github.com/dmitrijs2005/coinkeeper/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewText(os.Stderr, level)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
