package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/windwatts/curtailment-mining-watcher/api"
	"github.com/windwatts/curtailment-mining-watcher/common/config"
	cerrors "github.com/windwatts/curtailment-mining-watcher/common/errors"
	"github.com/windwatts/curtailment-mining-watcher/common/logging"
	database "github.com/windwatts/curtailment-mining-watcher/database/db"
	"github.com/windwatts/curtailment-mining-watcher/env"
	"github.com/windwatts/curtailment-mining-watcher/types"
)

func main() {
	name := "curtailment-api"
	logging.Initialize(name)
	defer logging.Finalize()
	logger := logging.NewLoggerTag(name)

	cerrors.Initialize(logger)
	defer cerrors.Catch()

	database.Initialize()
	defer database.Finalize()
	if env.ResetDatabase() {
		database.Reset(database.GetDB(), types.Watcher, true)
	}

	backgroundCtx, stop := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(backgroundCtx)

	server := api.NewSummaryServer(ctx, logger, config.GetString("API_LISTEN_ADDR", ":9487"))
	group.Go(func() error {
		return server.Run()
	})
	go WaitExitSignalWithServer(stop, logger, server)

	if err := group.Wait(); err != nil {
		logger.Critical("service stopped: %s", err)
	}
}

func WaitExitSignalWithServer(ctxStop context.CancelFunc, logger logging.Logger, server *api.SummaryServer) {
	var exitSignal = make(chan os.Signal, 1)
	signal.Notify(exitSignal, syscall.SIGTERM)
	signal.Notify(exitSignal, syscall.SIGINT)

	sig := <-exitSignal
	logger.Info("caught sig: %+v, Stopping...\n", sig)
	if err := server.Shutdown(); err != nil {
		logger.Error("server shutdown error: %s", err)
	}
	ctxStop()
}
