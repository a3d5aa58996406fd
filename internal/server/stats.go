// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"context"
	"fmt"
	"time"
)

// StartStatsReporter imprime métricas do server a cada 60 segundos:
// conexões ativas, traffic in (MB/s) e traffic out (MB/s).
func (h *Handler) StartStatsReporter(ctx context.Context) {
	const interval = 60 * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Swap-and-reset: lê o acumulado e zera
			in := h.TrafficIn.Swap(0)
			out := h.TrafficOut.Swap(0)
			conns := h.ActiveConns.Load()

			secs := interval.Seconds()
			h.logger.Info("server stats",
				"conns", conns,
				"traffic_in_MBps", fmt.Sprintf("%.2f", float64(in)/secs/(1024*1024)),
				"traffic_out_MBps", fmt.Sprintf("%.2f", float64(out)/secs/(1024*1024)),
				"traffic_in_total_MB", fmt.Sprintf("%.1f", float64(in)/(1024*1024)),
				"traffic_out_total_MB", fmt.Sprintf("%.1f", float64(out)/(1024*1024)),
			)
		}
	}
}
