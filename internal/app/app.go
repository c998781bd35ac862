package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/randomoranges/can-do/internal/config"
	"github.com/randomoranges/can-do/internal/engine"
	"github.com/randomoranges/can-do/internal/llm"
	"github.com/randomoranges/can-do/internal/mail"
	"github.com/randomoranges/can-do/internal/scheduler"
	"github.com/randomoranges/can-do/internal/store"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	mux     *http.ServeMux
	httpSrv *http.Server
	gen     *llm.Client
	mailer  *mail.Sender
	repo    store.Repo
	cronGap time.Duration
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	gen, err := llm.New(cfg.GrokAPIKey, cfg.GrokBaseURL, cfg.GrokModel, log)
	if err != nil {
		return nil, err
	}

	mailer, err := mail.New(mail.Options{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		RefreshToken: cfg.GmailRefreshToken,
		FromName:     cfg.FromName,
		FromEmail:    cfg.FromEmail,
		AppURL:       cfg.AppURL,
	}, log)
	if err != nil {
		return nil, err
	}

	cronGap, err := time.ParseDuration(cfg.CronInterval)
	if err != nil {
		return nil, fmt.Errorf("parse CRON_INTERVAL: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // a scheduled batch runs inside the request
	}

	return &App{
		cfg:     cfg,
		log:     log,
		mux:     mux,
		httpSrv: srv,
		gen:     gen,
		mailer:  mailer,
		cronGap: cronGap,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting happy",
		zap.String("http", a.cfg.HTTPAddr),
		zap.Bool("cron", a.cfg.CronEnabled),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	eng := engine.New(repo, a.gen, a.mailer, a.cfg.DefaultTZ, a.log)
	a.mux.Handle("/jobs", a.jobsHandler(eng))

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.CronEnabled {
		cron := scheduler.New(eng, a.log, a.cronGap)
		go cron.Run(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = a.httpSrv.Shutdown(shCtx)
	cancel()

	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}
	if a.repo != nil {
		_ = a.repo.Close()
	}
	return nil
}
