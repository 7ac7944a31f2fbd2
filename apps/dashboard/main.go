package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/trezcool/appraise/core"
	"github.com/trezcool/appraise/core/appraisal"
	"github.com/trezcool/appraise/core/auth"
	"github.com/trezcool/appraise/core/guard"
	"github.com/trezcool/appraise/core/session"
	"github.com/trezcool/appraise/core/user"
	"github.com/trezcool/appraise/services/api"
	"github.com/trezcool/appraise/services/logger"
	"github.com/trezcool/appraise/storage/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := core.NewConfig()
	if err != nil {
		return err
	}

	// the terminal belongs to the TUI: log to a file
	logPath := conf.LogFile
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "appraise-dashboard.log")
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logsvc.NewRollbarLogger(log.New(logFile, "DASHBOARD : ", log.LstdFlags|log.Lmicroseconds), conf)

	store, err := session.NewStore(sessionstore.NewFilePersister(conf.Session.File), session.WithLogger(logger))
	if err != nil {
		return err
	}
	client := apisvc.NewClient(
		conf.API.BaseURL,
		apisvc.WithLogger(logger),
		apisvc.WithTimeout(conf.API.RequestTimeout),
		apisvc.WithStreamPath(conf.API.StreamPath),
		apisvc.OnUnauthorized(store.Expire),
	)
	validate := core.NewValidator(user.InitValidators)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go session.WatchExpiry(ctx, store, clockwork.NewRealClock(), logger)

	model := newModel(deps{
		conf:       conf,
		store:      store,
		client:     client,
		auth:       auth.NewService(client, store, validate, logger),
		appraisals: appraisal.NewService(client, validate),
		guard:      guard.New(guard.DefaultEntry),
		logger:     logger,
	})
	defer model.Close()

	logger.Info("dashboard started", conf.API.BaseURL)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
