package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
	"github.com/trezcool/appraise/services/api"
	"github.com/trezcool/appraise/services/logger"
	"github.com/trezcool/appraise/storage/session"
)

func main() {
	std := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	if !conf.Debug {
		logger.SetLevel(logsvc.LevelWarn)
	}

	store, err := session.NewStore(sessionstore.NewFilePersister(conf.Session.File), session.WithLogger(logger))
	if err != nil {
		logger.Fatal("restoring session", err)
	}
	client := apisvc.NewClient(
		conf.API.BaseURL,
		apisvc.WithLogger(logger),
		apisvc.WithTimeout(conf.API.RequestTimeout),
		apisvc.WithStreamPath(conf.API.StreamPath),
		apisvc.OnUnauthorized(store.Expire),
	)
	validate := core.NewValidator(user.InitValidators)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// start CLI
	cli := newCommandLine(conf, store, client, validate, logger, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Debug("command failed", err)
			fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		}
		stop()
		os.Exit(1)
	}
}
