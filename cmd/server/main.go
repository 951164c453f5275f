package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/folhapay/remittance/internal/api"
	"github.com/folhapay/remittance/internal/config"
	"github.com/folhapay/remittance/internal/ingestion"
	"github.com/folhapay/remittance/internal/layout"
	"github.com/folhapay/remittance/internal/reconciliation"
	"github.com/folhapay/remittance/internal/remittance"
	"github.com/folhapay/remittance/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.SetupLogger(cfg)

	catalogue, err := config.LoadCatalogue(cfg.BanksFile)
	if err != nil {
		logger.Error("failed to load bank catalogue", "path", cfg.BanksFile, "error", err)
		os.Exit(1)
	}

	logger.Info("initializing database", "path", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to init db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create repositories.
	remRepo := repository.NewRemittanceRepo(db)
	retRepo := repository.NewReturnRepo(db)
	resRepo := repository.NewResultRepo(db)
	index := repository.NewIndexCache(remRepo, cfg.IndexCacheSize, cfg.IndexCacheTTL)

	// Create services.
	remSvc := remittance.NewService(remRepo, catalogue, remittance.NewBuilder(), logger)
	reconSvc := reconciliation.NewService(reconciliation.NewEngine(layout.Default), index, resRepo, logger)
	ingestionSvc := ingestion.NewService(retRepo, catalogue, ingestion.NewParser(), reconSvc, logger)

	router := api.NewRouter(api.Deps{
		Remittances: remSvc,
		Ingestion:   ingestionSvc,
		Files:       remRepo,
		Returns: struct {
			*repository.ReturnRepo
			*repository.ResultRepo
		}{retRepo, resRepo},
		Catalogue: catalogue,
		Registry:  layout.Default,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	banks := make([]string, 0)
	for _, b := range catalogue.Banks() {
		banks = append(banks, b.BankCode+"/"+string(b.Layout))
	}
	logger.Info("payroll remittance service starting",
		"version", config.Version,
		"addr", srv.Addr,
		"api", "/api/v1",
		"banks", banks)

	if err := run(srv, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run serves until SIGINT or SIGTERM, then shuts down gracefully.
func run(srv *http.Server, cfg *config.Config, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
