// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package server implementa o servidor de backup (nvault-server).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/nishisan-dev/n-vault/internal/config"
	"github.com/nishisan-dev/n-vault/internal/mirror"
)

// Run inicia o servidor de backup e bloqueia até o context ser cancelado.
func Run(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Listen, err)
	}
	defer ln.Close()

	logger.Info("server listening", "address", cfg.Server.Listen, "storage", cfg.Storage.BaseDir)

	return serve(ctx, ln, cfg, logger)
}

// RunWithListener inicia o servidor com um listener já existente (para testes).
func RunWithListener(ctx context.Context, ln net.Listener, cfg *config.ServerConfig, logger *slog.Logger) error {
	return serve(ctx, ln, cfg, logger)
}

func serve(ctx context.Context, ln net.Listener, cfg *config.ServerConfig, logger *slog.Logger) error {
	store, err := NewStore(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}

	guard := NewDiskGuard(cfg.Storage.BaseDir, cfg.Storage.MaxUsedPercent, logger)

	var mir mirror.Mirror
	if cfg.Mirror.Enabled {
		m, err := mirror.NewS3Mirror(ctx, cfg.Mirror, logger)
		if err != nil {
			return fmt.Errorf("configuring mirror: %w", err)
		}
		mir = m
		logger.Info("mirror enabled", "bucket", cfg.Mirror.Bucket)
	}

	handler := NewHandler(cfg, store, logger, guard, mir)
	go handler.StartStatsReporter(ctx)

	if cfg.Janitor.Enabled {
		janitor, err := NewJanitor(cfg.Storage.BaseDir, cfg.Janitor.Schedule, cfg.Janitor.TmpTTL, logger)
		if err != nil {
			return fmt.Errorf("configuring janitor: %w", err)
		}
		janitor.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			janitor.Stop(stopCtx)
		}()
	}

	// Goroutine para fechar o listener quando o context for cancelado
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		ln.Close()
	}()

	// Accept loop
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				logger.Info("server shutdown complete")
				return nil
			default:
				logger.Error("accepting connection", "error", err)
				continue
			}
		}

		go handler.HandleConnection(ctx, conn)
	}
}
