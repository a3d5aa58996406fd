// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"log/slog"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskGuard rejeita novos backups quando o filesystem do storage passa do
// watermark de uso configurado. A checagem é advisory: se a métrica não
// puder ser coletada, o backup é permitido.
type DiskGuard struct {
	path           string
	maxUsedPercent float64
	logger         *slog.Logger
}

// NewDiskGuard cria um DiskGuard para o path. Retorna nil se maxUsedPercent
// for <= 0 (guard desabilitado).
func NewDiskGuard(path string, maxUsedPercent float64, logger *slog.Logger) *DiskGuard {
	if maxUsedPercent <= 0 {
		return nil
	}
	return &DiskGuard{
		path:           path,
		maxUsedPercent: maxUsedPercent,
		logger:         logger.With("component", "disk_guard"),
	}
}

// Allow retorna false quando o uso do disco excede o watermark.
func (g *DiskGuard) Allow() bool {
	usage, err := disk.Usage(g.path)
	if err != nil {
		g.logger.Warn("collecting disk usage", "error", err)
		return true
	}
	if usage.UsedPercent >= g.maxUsedPercent {
		g.logger.Warn("disk usage above watermark",
			"used_percent", usage.UsedPercent,
			"watermark", g.maxUsedPercent,
		)
		return false
	}
	return true
}
