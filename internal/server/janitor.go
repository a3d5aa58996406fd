// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor remove arquivos de staging (.nvault-*.tmp) órfãos, deixados por
// conexões que morreram no meio de um BACKUP sem chance de Abort (ex: kill
// do processo). Roda em um cron schedule configurável.
type Janitor struct {
	baseDir string
	ttl     time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewJanitor cria um Janitor com a cron expression e TTL fornecidos.
func NewJanitor(baseDir, schedule string, ttl time.Duration, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		baseDir: baseDir,
		ttl:     ttl,
		logger:  logger.With("component", "janitor"),
	}

	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	if _, err := c.AddFunc(schedule, j.sweep); err != nil {
		return nil, err
	}

	j.cron = c
	return j, nil
}

// Start inicia o schedule do janitor.
func (j *Janitor) Start() {
	j.logger.Info("janitor started", "ttl", j.ttl)
	j.cron.Start()
}

// Stop para o janitor e aguarda um sweep em andamento.
func (j *Janitor) Stop(ctx context.Context) {
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("janitor stopped")
	case <-ctx.Done():
		j.logger.Warn("janitor stop timed out")
	}
}

func (j *Janitor) sweep() {
	removed, err := SweepStaging(j.baseDir, j.ttl)
	if err != nil {
		j.logger.Warn("staging sweep failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("staging sweep complete", "removed", removed)
	}
}

// SweepStaging percorre os diretórios de usuário sob baseDir e remove
// arquivos de staging mais velhos que ttl. Retorna quantos foram removidos.
func SweepStaging(baseDir string, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)
	removed := 0

	users, err := os.ReadDir(baseDir)
	if err != nil {
		return 0, err
	}

	for _, user := range users {
		if !user.IsDir() {
			continue
		}
		userDir := filepath.Join(baseDir, user.Name())
		entries, err := os.ReadDir(userDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !isStagingName(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(userDir, e.Name())); err == nil {
					removed++
				}
			}
		}
	}

	return removed, nil
}

func isStagingName(name string) bool {
	return strings.HasPrefix(name, ".nvault-") && strings.HasSuffix(name, ".tmp")
}
