// Copyright (c) 2025 A Bit of Help, Inc.

// Package utils provides utility functions for the application
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// SetupGracefulShutdown configures signal handling for the run. The first
// signal cancels the context so the pipeline can drain and the archive can
// be abandoned cleanly; a second signal forces an immediate exit.
// It returns a function that should be deferred to clean up signal handling
func SetupGracefulShutdown(cancel context.CancelFunc, logger *zap.Logger) func() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Create a channel to signal when the goroutine should exit
	done := make(chan struct{})

	// Closed by the goroutine itself, so cleanup can wait for it
	exited := make(chan struct{})

	// Start goroutine for signal handling
	go func() {
		defer close(exited)
		defer logger.Debug("Signal handling goroutine exited")

		select {
		case sig, ok := <-sigChan:
			if !ok {
				// sigChan was closed, exit goroutine
				return
			}
			logger.Info("Received signal, canceling the run",
				zap.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		}

		select {
		case sig, ok := <-sigChan:
			if !ok {
				return
			}
			// Second signal received, force immediate exit
			logger.Warn("Received second signal, forcing immediate shutdown",
				zap.String("signal", sig.String()))
			os.Exit(1)
		case <-done:
		}
	}()

	// Return a cleanup function
	return func() {
		// Stop signal notifications
		signal.Stop(sigChan)
		close(sigChan)

		// Signal the goroutine to exit and wait until it has
		close(done)
		<-exited

		logger.Debug("Signal handling cleaned up")
	}
}
