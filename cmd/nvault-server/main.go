// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nishisan-dev/n-vault/internal/config"
	"github.com/nishisan-dev/n-vault/internal/logging"
	"github.com/nishisan-dev/n-vault/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to server config file (optional)")
	flag.Parse()

	var cfg *config.ServerConfig
	var err error
	if *configPath != "" {
		cfg, err = config.LoadServerConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.DefaultServerConfig()
	}

	// Porta pode ser passada como argumento posicional, sobrescrevendo o config
	if flag.NArg() > 0 {
		port, err := strconv.Atoi(flag.Arg(0))
		if err != nil || port < 1 || port > 65535 {
			fmt.Fprintf(os.Stderr, "Invalid port %q\n", flag.Arg(0))
			os.Exit(1)
		}
		cfg.OverridePort(port)
	}

	logger, closer := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer closer.Close()

	// Context com cancelamento via signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
