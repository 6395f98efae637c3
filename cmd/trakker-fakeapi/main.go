// Package main runs an in-memory Trakker API for local development.
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

	"github.com/spf13/pflag"

	"github.com/nhle/trakker/internal/fakeapi"
	"github.com/nhle/trakker/internal/logger"
)

func main() {
	addr := pflag.String("addr", ":4000", "listen address")
	otp := pflag.String("otp", "", "fixed one-time code accepted for every login")
	tokenTTL := pflag.Duration("token-ttl", 15*time.Minute, "access token lifetime")
	logLevel := pflag.String("log-level", "info", "log level (debug, info, warn, error)")
	pflag.Parse()

	log := logger.New(logger.Config{
		Writer: os.Stderr,
		Level:  logger.ParseLevel(*logLevel),
	})

	opts := []fakeapi.Option{
		fakeapi.WithLogger(log),
		fakeapi.WithTokenTTL(*tokenTTL),
	}
	if *otp != "" {
		opts = append(opts, fakeapi.WithOTP(*otp))
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakeapi.New(opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("fake API listening", "addr", *addr, "base", fmt.Sprintf("http://localhost%s/api", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	case <-quit:
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
