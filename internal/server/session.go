// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nishisan-dev/n-vault/internal/config"
	"github.com/nishisan-dev/n-vault/internal/mirror"
	"github.com/nishisan-dev/n-vault/internal/protocol"
)

// Handler processa conexões individuais de clients.
type Handler struct {
	cfg    *config.ServerConfig
	store  *Store
	logger *slog.Logger
	guard  *DiskGuard    // nil quando max_used_percent não está configurado
	mirror mirror.Mirror // nil quando o mirror está desabilitado

	// Métricas observáveis pelo stats reporter
	TrafficIn   atomic.Int64 // bytes de payload recebidos (acumulado desde último reset)
	TrafficOut  atomic.Int64 // bytes de content enviados (acumulado desde último reset)
	ActiveConns atomic.Int32 // conexões ativas no momento
}

// NewHandler cria um novo Handler. guard e mir podem ser nil.
func NewHandler(cfg *config.ServerConfig, store *Store, logger *slog.Logger, guard *DiskGuard, mir mirror.Mirror) *Handler {
	return &Handler{
		cfg:    cfg,
		store:  store,
		logger: logger,
		guard:  guard,
		mirror: mir,
	}
}

// HandleConnection executa o loop de sessão de uma conexão: lê o request
// header fixo, despacha pelo op code e repete até o peer desconectar ou um
// erro irrecuperável de transporte ocorrer. Cada request com header lido
// produz exatamente uma response, exceto quando a leitura falha no meio do
// body — aí o framing está dessincronizado e a conexão é descartada sem
// response.
func (h *Handler) HandleConnection(ctx context.Context, conn net.Conn) {
	h.ActiveConns.Add(1)
	defer h.ActiveConns.Add(-1)
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := h.logger.With("remote", conn.RemoteAddr().String(), "session", sessionID)
	logger.Debug("connection accepted")

	for {
		select {
		case <-ctx.Done():
			logger.Info("session closed on server shutdown")
			return
		default:
		}

		hdr, err := protocol.ReadRequestHeader(conn)
		if err != nil {
			// EOF aqui é desconexão limpa; erros de transporte terminam a
			// sessão da mesma forma, sem response.
			logger.Debug("session ended", "reason", err)
			return
		}

		reqLogger := logger.With("user", hdr.UserID, "op", protocol.OpName(hdr.Op))
		reqLogger.Info("request received")

		if err := h.store.EnsureRoot(); err != nil {
			reqLogger.Error("ensuring storage root", "error", err)
		}

		var fatal error
		switch hdr.Op {
		case protocol.OpBackup:
			fatal = h.handleBackup(conn, hdr.UserID, reqLogger)
		case protocol.OpRestore:
			fatal = h.handleRestore(conn, hdr.UserID, reqLogger)
		case protocol.OpDelete:
			fatal = h.handleDelete(conn, hdr.UserID, reqLogger)
		case protocol.OpList:
			fatal = h.handleList(conn, hdr.UserID, reqLogger)
		default:
			reqLogger.Warn("unknown operation code", "code", hdr.Op)
			fatal = protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, "")
		}

		if fatal != nil {
			reqLogger.Warn("session aborted", "error", fatal)
			return
		}
	}
}
